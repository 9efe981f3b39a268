package devserver

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/thomasari/quest-bingo/internal/game"
	"github.com/thomasari/quest-bingo/internal/realtime"
)

var (
	errNotFound = errors.New("not found")
	errConflict = errors.New("conflict")
)

// registry holds every room's authoritative state. All mutations
// broadcast while the lock is held so hub subscribers observe events in
// the same order the mutations happened.
type registry struct {
	rows, cols int
	hub        *hub

	mu    sync.Mutex
	rooms map[string]*roomState
}

type roomState struct {
	room *game.Room
	chat []game.ChatMessage
}

func newRegistry(rows, cols int, h *hub) *registry {
	return &registry{
		rows:  rows,
		cols:  cols,
		hub:   h,
		rooms: make(map[string]*roomState),
	}
}

// create allocates a room with a fresh board and returns its code.
func (g *registry) create() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var code string
	for {
		c, err := newRoomCode()
		if err != nil {
			return "", err
		}
		if _, taken := g.rooms[c]; !taken {
			code = c
			break
		}
	}

	g.rooms[code] = &roomState{
		room: &game.Room{
			ID:      code,
			Players: []game.Player{},
			Board:   newBoard(g.rows, g.cols),
		},
	}
	return code, nil
}

// snapshot returns a deep copy of the room, or errNotFound.
func (g *registry) snapshot(roomID string) (*game.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.rooms[roomID]
	if !ok {
		return nil, errNotFound
	}
	return st.room.Clone(), nil
}

// join mints a new player, appends it to the roster and broadcasts
// PlayerJoined. Every call creates a new player record; rejoin gating is
// the client's job.
func (g *registry) join(roomID string) (*game.Player, *game.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.rooms[roomID]
	if !ok {
		return nil, nil, errNotFound
	}

	id, err := newPlayerID()
	if err != nil {
		return nil, nil, err
	}
	player := game.Player{
		ID:    id,
		Name:  fmt.Sprintf("Player %d", len(st.room.Players)+1),
		Color: playerColor(len(st.room.Players)),
	}
	st.room.Players = append(st.room.Players, player)

	g.hub.publish(roomID, realtime.EventPlayerJoined, player)
	return &player, st.room.Clone(), nil
}

// rename updates one player's display name and broadcasts
// PlayerChangedName.
func (g *registry) rename(roomID, playerID, name string) (*game.Player, error) {
	if err := game.ValidatePlayerName(name); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.rooms[roomID]
	if !ok {
		return nil, errNotFound
	}
	for i := range st.room.Players {
		if st.room.Players[i].ID == playerID {
			st.room.Players[i].Name = name
			player := st.room.Players[i]
			g.hub.publish(roomID, realtime.EventPlayerChangedName, player)
			return &player, nil
		}
	}
	return nil, errNotFound
}

// start marks the game started. Idempotent once started: the original
// timestamp is kept.
func (g *registry) start(roomID string) (*game.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.rooms[roomID]
	if !ok {
		return nil, errNotFound
	}
	if st.room.GameStarted == nil {
		now := time.Now().UTC()
		st.room.GameStarted = &now
		g.hub.publish(roomID, realtime.EventRoomUpdate, st.room.Clone())
	}
	return st.room.Clone(), nil
}

// end marks the game ended. Idempotent once ended.
func (g *registry) end(roomID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.rooms[roomID]
	if !ok {
		return errNotFound
	}
	if !st.room.GameEnded {
		st.room.GameEnded = true
		g.hub.publish(roomID, realtime.EventRoomUpdate, st.room.Clone())
	}
	return nil
}

// toggle flips quest completion for the acting player: open quests are
// claimed, own quests are released, someone else's quest is a conflict.
func (g *registry) toggle(roomID, questID, playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.rooms[roomID]
	if !ok {
		return errNotFound
	}
	if st.room.FindPlayer(playerID) == nil {
		return errNotFound
	}

	q := st.room.QuestByID(questID)
	if q == nil {
		return errNotFound
	}
	switch q.CompletedBy {
	case "":
		q.CompletedBy = playerID
	case playerID:
		q.CompletedBy = ""
	default:
		return errConflict
	}

	g.hub.publish(roomID, realtime.EventRoomUpdate, st.room.Clone())
	return nil
}

// chatLog returns the room's running chat log.
func (g *registry) chatLog(roomID string) ([]game.ChatMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.rooms[roomID]
	if !ok {
		return nil, errNotFound
	}
	return append([]game.ChatMessage{}, st.chat...), nil
}

// sendChat appends a message to the log with a snapshot of the sender's
// current name and color, and broadcasts ReceiveChat. Empty messages are
// dropped.
func (g *registry) sendChat(roomID, playerID, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.rooms[roomID]
	if !ok {
		return errNotFound
	}
	p := st.room.FindPlayer(playerID)
	if p == nil {
		return errNotFound
	}

	st.chat = append(st.chat, game.ChatMessage{
		Sender:  game.Sender{Name: p.Name, Color: p.Color},
		Message: message,
	})
	g.hub.publish(roomID, realtime.EventReceiveChat, p.Name, p.Color, message)
	return nil
}
