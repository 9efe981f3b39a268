// Package game holds the client's view of a quest bingo room and the
// pure functions that evolve it. The backend is authoritative for all of
// it; everything here is a cached snapshot plus advisory checks.
package game

import "time"

// Room is a single game instance. Player order is meaningful: the first
// player is the host. GameStarted stays nil until the host starts the
// game and never reverts; GameEnded only ever flips false to true.
type Room struct {
	ID          string     `json:"id"`
	Players     []Player   `json:"players"`
	Board       Board      `json:"board"`
	GameStarted *time.Time `json:"gameStarted"`
	GameEnded   bool       `json:"gameEnded"`
}

type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Board is a fixed rows-by-columns grid of quests, shaped once at room
// creation.
type Board struct {
	Quests [][]Quest `json:"quests"`
}

// Quest is one board cell. CompletedBy is the claiming player's id, or
// empty while the quest is open.
type Quest struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	CompletedBy string `json:"completedByPlayerId,omitempty"`
}

// ChatMessage carries a snapshot of the sender's name and color at send
// time, not a live player reference.
type ChatMessage struct {
	Sender  Sender `json:"sender"`
	Message string `json:"message"`
}

type Sender struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Host returns the first player, or nil for an empty room.
func (r *Room) Host() *Player {
	if r == nil || len(r.Players) == 0 {
		return nil
	}
	return &r.Players[0]
}

// FindPlayer returns the player with the given id, or nil.
func (r *Room) FindPlayer(id string) *Player {
	if r == nil || id == "" {
		return nil
	}
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// QuestByID returns the quest with the given id, or nil.
func (r *Room) QuestByID(id string) *Quest {
	if r == nil {
		return nil
	}
	for i := range r.Board.Quests {
		for j := range r.Board.Quests[i] {
			if r.Board.Quests[i][j].ID == id {
				return &r.Board.Quests[i][j]
			}
		}
	}
	return nil
}

// Score counts the quests completed by the given player.
func (r *Room) Score(playerID string) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, row := range r.Board.Quests {
		for _, q := range row {
			if q.CompletedBy != "" && q.CompletedBy == playerID {
				n++
			}
		}
	}
	return n
}

// CanToggle is the advisory client-side gate for quest toggling: the game
// must be running and the quest must be open or held by the acting player
// themselves. The backend is the real arbiter.
func (r *Room) CanToggle(playerID string, q *Quest) bool {
	if r == nil || q == nil || playerID == "" {
		return false
	}
	if r.GameStarted == nil || r.GameEnded {
		return false
	}
	return q.CompletedBy == "" || q.CompletedBy == playerID
}

// Clone returns a deep copy. Snapshots handed across goroutine
// boundaries are always clones so no reader ever observes a mutation.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	out.Players = append([]Player(nil), r.Players...)
	if r.Board.Quests != nil {
		out.Board.Quests = make([][]Quest, len(r.Board.Quests))
		for i, row := range r.Board.Quests {
			out.Board.Quests[i] = append([]Quest(nil), row...)
		}
	}
	if r.GameStarted != nil {
		t := *r.GameStarted
		out.GameStarted = &t
	}
	return &out
}
