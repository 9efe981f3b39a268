// Package session owns the lifecycle of one room membership: it opens
// the push channel, runs the join sequence, folds push events and
// command responses into a single room snapshot, and hands read-only
// views to whoever is rendering.
//
// One goroutine owns the snapshot. Channel callbacks and command
// responses post messages to its inbox; ordering between a push event
// and an in-flight command response is whatever order they land in the
// inbox, so a command response wins by being applied last. That
// transient clobbering is accepted, not corrected.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thomasari/quest-bingo/internal/api"
	"github.com/thomasari/quest-bingo/internal/game"
	"github.com/thomasari/quest-bingo/internal/identity"
	"github.com/thomasari/quest-bingo/internal/realtime"
)

// State of the session's lifecycle. Errored is terminal: the user
// navigates back and retries, nothing recovers automatically.
type State int

const (
	Disconnected State = iota
	Connecting
	AwaitingInitialRoom
	Joined
	Errored
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingInitialRoom:
		return "awaiting initial room"
	case Joined:
		return "joined"
	case Errored:
		return "error"
	}
	return "unknown"
}

var (
	ErrNotJoined = errors.New("not joined yet")
	ErrNotHost   = errors.New("only the host can do that")
)

// IdentityStore persists the opaque player identifier across restarts.
type IdentityStore interface {
	PlayerID(ctx context.Context) (string, error)
	SetPlayerID(ctx context.Context, id string) error
}

// View is an immutable snapshot of everything the UI reads. Room and
// Messages are never mutated after publication; a new View replaces the
// old one wholesale.
type View struct {
	State    State
	Room     *game.Room
	Player   *game.Player
	Messages []game.ChatMessage
	Elapsed  string
	Err      string
}

type message interface{ isMessage() }

type eventMsg struct{ ev game.Event }
type chatMsg struct{ msg game.ChatMessage }
type roomMsg struct{ room *game.Room }
type playerMsg struct{ player *game.Player }
type failMsg struct{ reason string }

func (eventMsg) isMessage()  {}
func (chatMsg) isMessage()   {}
func (roomMsg) isMessage()   {}
func (playerMsg) isMessage() {}
func (failMsg) isMessage()   {}

type Session struct {
	roomID  string
	api     *api.Client
	channel realtime.Channel
	ids     IdentityStore
	logger  *slog.Logger

	inbox     chan message
	view      atomic.Pointer[View]
	notifier  *notifier
	accepting atomic.Bool // false until the joined view is published

	cancel    context.CancelFunc
	quit      chan struct{} // closed when the loop stops draining
	done      chan struct{} // closed when teardown has finished
	closeOnce sync.Once
}

// New wires a session for one room. Call Start to run the join sequence.
func New(roomID string, client *api.Client, ch realtime.Channel, ids IdentityStore, logger *slog.Logger) *Session {
	s := &Session{
		roomID:   roomID,
		api:      client,
		channel:  ch,
		ids:      ids,
		logger:   logger.With("room", roomID),
		inbox:    make(chan message, 64),
		notifier: newNotifier(),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.view.Store(&View{State: Disconnected, Elapsed: "0:00:00"})
	s.registerHandlers()
	return s
}

// Start launches the join sequence and the event loop. It returns
// immediately; progress and failures surface through the view.
func (s *Session) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(runCtx)
}

// Close tears the session down: the channel and ticker stop before Close
// returns, and no event from either is applied afterwards. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
		// Closing again is a no-op on both channel implementations; this
		// covers a session that was never started.
		s.channel.Close()
	})
}

// View returns the current snapshot.
func (s *Session) View() View { return *s.view.Load() }

func (s *Session) Room() *game.Room             { return s.view.Load().Room }
func (s *Session) Player() *game.Player         { return s.view.Load().Player }
func (s *Session) Messages() []game.ChatMessage { return s.view.Load().Messages }
func (s *Session) State() State                 { return s.view.Load().State }
func (s *Session) Err() string                  { return s.view.Load().Err }
func (s *Session) Elapsed() string              { return s.view.Load().Elapsed }

// Updates returns a channel that ticks when the view changes, plus an
// unsubscribe func. Slow consumers miss ticks, never block the session.
func (s *Session) Updates() (<-chan struct{}, func()) {
	return s.notifier.subscribe()
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.channel.Close()
	defer close(s.quit)

	s.publish(func(v *View) { v.State = Connecting })

	if err := s.channel.Connect(ctx); err != nil {
		s.failNow("Could not connect to room", err)
		return
	}

	s.publish(func(v *View) { v.State = AwaitingInitialRoom })

	// The join sequence is sequential on purpose: whether to create a
	// player depends on the roster of the fetched room.
	room, player, ok := s.join(ctx)
	if !ok {
		return
	}

	messages, err := s.api.ChatHistory(ctx, s.roomID)
	if err != nil {
		// The room view works without history; start with an empty log.
		s.logger.Warn("chat history unavailable", "error", err)
		messages = nil
	}

	// Opened just before the room snapshot becomes defined: anything the
	// channel delivered earlier was dropped, not queued. The hub re-sends
	// a full RoomUpdate to every subscriber, so nothing stays lost.
	s.accepting.Store(true)

	s.publish(func(v *View) {
		v.State = Joined
		v.Room = room
		v.Player = player
		v.Messages = messages
	})
	s.logger.Info("joined room", "player", player.ID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-s.inbox:
			if !s.handle(m) {
				return
			}
		case <-ticker.C:
			s.tick()
		}
	}
}

// join fetches the room and resolves who we are, creating a player only
// when the persisted id is not in the roster.
func (s *Session) join(ctx context.Context) (*game.Room, *game.Player, bool) {
	room, err := s.api.Room(ctx, s.roomID)
	if err != nil {
		s.failNow("Room not found", err)
		return nil, nil, false
	}

	existingID, err := s.ids.PlayerID(ctx)
	if err != nil {
		// Unreadable state falls back to a fresh join.
		s.logger.Warn("reading stored player id", "error", err)
		existingID = ""
	}

	if p := identity.Resolve(existingID, room.Players); p != nil {
		return room, p, true
	}

	player, joinedRoom, err := s.api.Join(ctx, s.roomID)
	if err != nil {
		s.failNow("Failed to join room", err)
		return nil, nil, false
	}
	// The new identity must survive a reload before it is used for
	// anything else; otherwise it cannot be trusted.
	if err := s.ids.SetPlayerID(ctx, player.ID); err != nil {
		s.failNow("Could not save player identity", err)
		return nil, nil, false
	}
	return joinedRoom, player, true
}

// handle applies one inbox message; false stops the loop (terminal
// error).
func (s *Session) handle(m message) bool {
	switch m := m.(type) {
	case eventMsg:
		current := s.view.Load().Room
		next := game.Reduce(current, m.ev)
		if next != current {
			s.publish(func(v *View) { v.Room = next })
		}
	case chatMsg:
		s.publish(func(v *View) {
			msgs := make([]game.ChatMessage, 0, len(v.Messages)+1)
			msgs = append(msgs, v.Messages...)
			v.Messages = append(msgs, m.msg)
		})
	case roomMsg:
		s.publish(func(v *View) { v.Room = m.room })
	case playerMsg:
		s.publish(func(v *View) { v.Player = m.player })
	case failMsg:
		s.publish(func(v *View) {
			v.State = Errored
			v.Err = m.reason
		})
		return false
	}
	return true
}

// tick recomputes elapsed time from the stored start timestamp. It reads
// the snapshot and writes only the formatted string, so it cannot race
// the reducer.
func (s *Session) tick() {
	v := s.view.Load()
	if v.Room == nil || v.Room.GameStarted == nil || v.Room.GameEnded {
		return
	}
	elapsed := game.FormatElapsed(*v.Room.GameStarted, time.Now())
	if elapsed != v.Elapsed {
		s.publish(func(v *View) { v.Elapsed = elapsed })
	}
}

func (s *Session) publish(mutate func(*View)) {
	next := *s.view.Load()
	mutate(&next)
	s.view.Store(&next)
	s.notifier.notify()
}

// failNow is for failures inside the loop goroutine itself. A cancelled
// context means the user left during setup, which is not an error.
func (s *Session) failNow(reason string, err error) {
	if errors.Is(err, context.Canceled) {
		s.logger.Debug("session stopped during setup", "error", err)
		return
	}
	s.logger.Error("session failed", "reason", reason, "error", err)
	s.publish(func(v *View) {
		v.State = Errored
		v.Err = reason
	})
}

// post delivers a message to the loop. Messages are discarded while the
// room snapshot is still undefined and once teardown begins, so early
// channel callbacks never queue up and late ones never block or
// resurrect a dead session.
func (s *Session) post(m message) {
	if !s.accepting.Load() {
		return
	}
	select {
	case s.inbox <- m:
	case <-s.quit:
	}
}

func (s *Session) registerHandlers() {
	s.channel.On(realtime.EventPlayerJoined, func(args []json.RawMessage) {
		var p game.Player
		if err := realtime.Decode(args, &p); err != nil {
			s.logger.Warn("bad PlayerJoined event", "error", err)
			return
		}
		s.post(eventMsg{game.PlayerJoined{Player: p}})
	})

	s.channel.On(realtime.EventPlayerChangedName, func(args []json.RawMessage) {
		var p game.Player
		if err := realtime.Decode(args, &p); err != nil {
			s.logger.Warn("bad PlayerChangedName event", "error", err)
			return
		}
		s.post(eventMsg{game.PlayerRenamed{Player: p}})
	})

	s.channel.On(realtime.EventRoomUpdate, func(args []json.RawMessage) {
		var room game.Room
		if err := realtime.Decode(args, &room); err != nil {
			s.logger.Warn("bad RoomUpdate event", "error", err)
			return
		}
		s.post(eventMsg{game.RoomReplaced{Room: room}})
	})

	s.channel.On(realtime.EventReceiveChat, func(args []json.RawMessage) {
		var name, color, text string
		if err := realtime.Decode(args, &name, &color, &text); err != nil {
			s.logger.Warn("bad ReceiveChat event", "error", err)
			return
		}
		s.post(chatMsg{game.ChatMessage{
			Sender:  game.Sender{Name: name, Color: color},
			Message: text,
		}})
	})
}

// Rename submits a new display name. Validation failures stay local and
// never reach the backend; backend failures are terminal for the
// session.
func (s *Session) Rename(ctx context.Context, name string) error {
	if err := game.ValidatePlayerName(name); err != nil {
		return err
	}
	v := s.View()
	if v.Player == nil {
		return ErrNotJoined
	}

	player, err := s.api.RenamePlayer(ctx, s.roomID, v.Player.ID, name)
	if err != nil {
		s.post(failMsg{"Player not found"})
		return err
	}
	// The roster entry updates through the PlayerChangedName push event;
	// only our own record is folded here.
	s.post(playerMsg{player})
	return nil
}

// StartGame starts the game. The host gate here is advisory; the backend
// decides for real.
func (s *Session) StartGame(ctx context.Context) error {
	if err := s.requireHost(); err != nil {
		return err
	}
	room, err := s.api.StartGame(ctx, s.roomID)
	if err != nil {
		s.post(failMsg{"Room not found"})
		return err
	}
	s.post(roomMsg{room})
	return nil
}

// EndGame ends the game. The updated room arrives as a RoomUpdate push.
func (s *Session) EndGame(ctx context.Context) error {
	if err := s.requireHost(); err != nil {
		return err
	}
	if err := s.api.EndGame(ctx, s.roomID); err != nil {
		s.post(failMsg{"Room not found"})
		return err
	}
	return nil
}

// ToggleQuest flips completion of a quest for this player. Conflicts are
// expected races, logged and otherwise ignored: the next RoomUpdate
// shows the authoritative outcome.
func (s *Session) ToggleQuest(ctx context.Context, questID string) error {
	v := s.View()
	if v.Player == nil {
		return ErrNotJoined
	}
	q := v.Room.QuestByID(questID)
	if !v.Room.CanToggle(v.Player.ID, q) {
		return nil
	}

	if err := s.api.ToggleQuest(ctx, s.roomID, questID, v.Player.ID); err != nil {
		s.logger.Warn("quest toggle rejected", "quest", questID, "error", err)
	}
	return nil
}

// SendChat broadcasts a message through the hub. Empty messages are
// dropped; send failures are logged, never fatal.
func (s *Session) SendChat(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	v := s.View()
	if v.Player == nil {
		return ErrNotJoined
	}

	if err := s.channel.Invoke(ctx, realtime.MethodSendChat, s.roomID, v.Player.ID, text); err != nil {
		s.logger.Warn("chat send failed", "error", err)
		return fmt.Errorf("sending chat: %w", err)
	}
	return nil
}

func (s *Session) requireHost() error {
	v := s.View()
	if v.Player == nil || v.Room == nil {
		return ErrNotJoined
	}
	if host := v.Room.Host(); host == nil || host.ID != v.Player.ID {
		return ErrNotHost
	}
	return nil
}
