package game

// Event is a push notification from the room hub. Events are applied to
// the local snapshot through Reduce, in arrival order.
type Event interface{ isEvent() }

// PlayerJoined appends a new player to the roster.
type PlayerJoined struct {
	Player Player
}

// PlayerRenamed replaces the matching player's record in place.
type PlayerRenamed struct {
	Player Player
}

// RoomReplaced swaps in a whole new snapshot. The hub uses it for
// everything not covered by the fine-grained player events: quest
// completion, game start and end, full board state.
type RoomReplaced struct {
	Room Room
}

func (PlayerJoined) isEvent()  {}
func (PlayerRenamed) isEvent() {}
func (RoomReplaced) isEvent()  {}
