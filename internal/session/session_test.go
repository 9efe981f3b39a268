package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasari/quest-bingo/internal/api"
	"github.com/thomasari/quest-bingo/internal/devserver"
	"github.com/thomasari/quest-bingo/internal/game"
	"github.com/thomasari/quest-bingo/internal/realtime"
	"github.com/thomasari/quest-bingo/internal/session"
)

// memStore is an in-memory IdentityStore; failSet simulates a broken
// persistence layer.
type memStore struct {
	mu      sync.Mutex
	id      string
	failSet bool
}

func (m *memStore) PlayerID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, nil
}

func (m *memStore) SetPlayerID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("disk full")
	}
	m.id = id
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBackend(t *testing.T) (*httptest.Server, *api.Client) {
	t.Helper()
	srv := httptest.NewServer(devserver.New(":0", testLogger(), 2, 2).Handler())
	t.Cleanup(srv.Close)
	return srv, api.New(srv.URL)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestJoinSequenceFreshPlayer(t *testing.T) {
	_, client := testBackend(t)
	code, err := client.CreateRoom(context.Background())
	require.NoError(t, err)

	store := &memStore{}
	s := session.New(code, client, realtime.NewFake(), store, testLogger())
	s.Start(context.Background())
	defer s.Close()

	waitFor(t, "join", func() bool { return s.State() == session.Joined })

	require.NotNil(t, s.Player())
	require.NotNil(t, s.Room())
	assert.Equal(t, s.Player().ID, s.Room().Host().ID)
	// The issued identity was persisted before the session trusted it.
	id, _ := store.PlayerID(context.Background())
	assert.Equal(t, s.Player().ID, id)
}

func TestRejoinReusesIdentity(t *testing.T) {
	_, client := testBackend(t)
	code, err := client.CreateRoom(context.Background())
	require.NoError(t, err)

	store := &memStore{}

	first := session.New(code, client, realtime.NewFake(), store, testLogger())
	first.Start(context.Background())
	waitFor(t, "first join", func() bool { return first.State() == session.Joined })
	firstID := first.Player().ID
	first.Close()

	second := session.New(code, client, realtime.NewFake(), store, testLogger())
	second.Start(context.Background())
	defer second.Close()
	waitFor(t, "rejoin", func() bool { return second.State() == session.Joined })

	// Same identity, no second player record.
	assert.Equal(t, firstID, second.Player().ID)
	assert.Len(t, second.Room().Players, 1)
}

func TestUnknownRoomIsTerminalError(t *testing.T) {
	_, client := testBackend(t)

	s := session.New("ZZZZZ", client, realtime.NewFake(), &memStore{}, testLogger())
	s.Start(context.Background())
	defer s.Close()

	waitFor(t, "error state", func() bool { return s.State() == session.Errored })
	assert.Equal(t, "Room not found", s.Err())
}

func TestFailedIdentityPersistenceFailsJoin(t *testing.T) {
	_, client := testBackend(t)
	code, err := client.CreateRoom(context.Background())
	require.NoError(t, err)

	s := session.New(code, client, realtime.NewFake(), &memStore{failSet: true}, testLogger())
	s.Start(context.Background())
	defer s.Close()

	waitFor(t, "error state", func() bool { return s.State() == session.Errored })
	assert.Equal(t, "Could not save player identity", s.Err())
}

func TestPushEventsFoldIntoView(t *testing.T) {
	_, client := testBackend(t)
	code, err := client.CreateRoom(context.Background())
	require.NoError(t, err)

	fake := realtime.NewFake()
	s := session.New(code, client, fake, &memStore{}, testLogger())
	s.Start(context.Background())
	defer s.Close()
	waitFor(t, "join", func() bool { return s.State() == session.Joined })

	require.NoError(t, fake.Emit(realtime.EventPlayerJoined,
		game.Player{ID: "p-other", Name: "Player 2", Color: "#61afef"}))
	waitFor(t, "roster growth", func() bool { return len(s.Room().Players) == 2 })

	// Duplicate delivery must not duplicate the player.
	require.NoError(t, fake.Emit(realtime.EventPlayerJoined,
		game.Player{ID: "p-other", Name: "Player 2", Color: "#61afef"}))

	require.NoError(t, fake.Emit(realtime.EventPlayerChangedName,
		game.Player{ID: "p-other", Name: "Bob", Color: "#61afef"}))
	waitFor(t, "rename", func() bool { return s.Room().Players[1].Name == "Bob" })
	assert.Len(t, s.Room().Players, 2)

	require.NoError(t, fake.Emit(realtime.EventReceiveChat, "Bob", "#61afef", "hello"))
	waitFor(t, "chat message", func() bool { return len(s.Messages()) == 1 })
	assert.Equal(t, "Bob", s.Messages()[0].Sender.Name)
	assert.Equal(t, "hello", s.Messages()[0].Message)
}

func TestPreJoinEventsAreDropped(t *testing.T) {
	_, client := testBackend(t)
	code, err := client.CreateRoom(context.Background())
	require.NoError(t, err)

	fake := realtime.NewFake()
	s := session.New(code, client, fake, &memStore{}, testLogger())

	// Delivered while the room snapshot is still undefined: both must be
	// discarded, not held back and applied after the join.
	require.NoError(t, fake.Emit(realtime.EventPlayerJoined,
		game.Player{ID: "p-ghost", Name: "Ghost", Color: "#c678dd"}))
	require.NoError(t, fake.Emit(realtime.EventReceiveChat, "Ghost", "#c678dd", "boo"))

	s.Start(context.Background())
	defer s.Close()
	waitFor(t, "join", func() bool { return s.State() == session.Joined })

	require.Len(t, s.Room().Players, 1)
	assert.Nil(t, s.Room().FindPlayer("p-ghost"))
	assert.Empty(t, s.Messages())
}

func TestQuitDuringJoinIsNotAnError(t *testing.T) {
	_, client := testBackend(t)
	code, err := client.CreateRoom(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := session.New(code, client, realtime.NewFake(), &memStore{}, testLogger())
	s.Start(ctx)
	s.Close()

	// Leaving while the join sequence is in flight is a normal shutdown,
	// not a terminal failure.
	assert.NotEqual(t, session.Errored, s.State())
	assert.Empty(t, s.Err())
}

func TestSendChatInvokesHub(t *testing.T) {
	_, client := testBackend(t)
	code, err := client.CreateRoom(context.Background())
	require.NoError(t, err)

	fake := realtime.NewFake()
	s := session.New(code, client, fake, &memStore{}, testLogger())
	s.Start(context.Background())
	defer s.Close()
	waitFor(t, "join", func() bool { return s.State() == session.Joined })

	require.NoError(t, s.SendChat(context.Background(), "  hi there  "))
	// Whitespace-only messages are dropped before the hub sees them.
	require.NoError(t, s.SendChat(context.Background(), "   "))

	calls := fake.Invocations()
	require.Len(t, calls, 1)
	assert.Equal(t, realtime.MethodSendChat, calls[0].Method)

	var roomID, playerID, text string
	require.NoError(t, realtime.Decode(calls[0].Args, &roomID, &playerID, &text))
	assert.Equal(t, code, roomID)
	assert.Equal(t, s.Player().ID, playerID)
	assert.Equal(t, "hi there", text)
}

func TestRenameValidatesLocally(t *testing.T) {
	_, client := testBackend(t)
	code, err := client.CreateRoom(context.Background())
	require.NoError(t, err)

	s := session.New(code, client, realtime.NewFake(), &memStore{}, testLogger())
	s.Start(context.Background())
	defer s.Close()
	waitFor(t, "join", func() bool { return s.State() == session.Joined })

	assert.ErrorIs(t, s.Rename(context.Background(), ""), game.ErrNameEmpty)
	// A local validation failure must not kill the session.
	assert.Equal(t, session.Joined, s.State())

	require.NoError(t, s.Rename(context.Background(), "Alice"))
	waitFor(t, "player rename", func() bool { return s.Player().Name == "Alice" })
}

func TestNonHostCannotStart(t *testing.T) {
	_, client := testBackend(t)
	code, err := client.CreateRoom(context.Background())
	require.NoError(t, err)

	// Mint the host out of band so our session joins second.
	_, _, err = client.Join(context.Background(), code)
	require.NoError(t, err)

	s := session.New(code, client, realtime.NewFake(), &memStore{}, testLogger())
	s.Start(context.Background())
	defer s.Close()
	waitFor(t, "join", func() bool { return s.State() == session.Joined })

	assert.ErrorIs(t, s.StartGame(context.Background()), session.ErrNotHost)
	assert.ErrorIs(t, s.EndGame(context.Background()), session.ErrNotHost)
}

func TestEventsAfterCloseAreDropped(t *testing.T) {
	_, client := testBackend(t)
	code, err := client.CreateRoom(context.Background())
	require.NoError(t, err)

	fake := realtime.NewFake()
	s := session.New(code, client, fake, &memStore{}, testLogger())
	s.Start(context.Background())
	waitFor(t, "join", func() bool { return s.State() == session.Joined })

	s.Close()

	// The fake reports closed; a real channel guarantees no handler
	// fires after Close returns.
	err = fake.Emit(realtime.EventPlayerJoined, game.Player{ID: "p-late"})
	assert.ErrorIs(t, err, realtime.ErrChannelClosed)
	assert.Len(t, s.Room().Players, 1)
}

func TestUpdatesNotifies(t *testing.T) {
	_, client := testBackend(t)
	code, err := client.CreateRoom(context.Background())
	require.NoError(t, err)

	s := session.New(code, client, realtime.NewFake(), &memStore{}, testLogger())
	updates, unsubscribe := s.Updates()
	defer unsubscribe()

	s.Start(context.Background())
	defer s.Close()

	select {
	case <-updates:
	case <-time.After(5 * time.Second):
		t.Fatal("no update tick during join")
	}
}
