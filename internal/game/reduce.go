package game

// Reduce applies one push event to the current snapshot and returns the
// next one. It never mutates current; when the event is a no-op the same
// pointer comes back unchanged.
//
// A nil current means the join sequence has not produced an initial
// snapshot yet. Events arriving in that window are dropped rather than
// buffered: the initial fetch happens after the event was generated, so
// it already reflects the event's effect.
func Reduce(current *Room, ev Event) *Room {
	if current == nil {
		return nil
	}

	switch e := ev.(type) {
	case PlayerJoined:
		// Duplicate delivery must not duplicate the player.
		for _, p := range current.Players {
			if p.ID == e.Player.ID {
				return current
			}
		}
		next := current.Clone()
		next.Players = append(next.Players, e.Player)
		return next

	case PlayerRenamed:
		for i, p := range current.Players {
			if p.ID == e.Player.ID {
				next := current.Clone()
				next.Players[i] = e.Player
				return next
			}
		}
		return current

	case RoomReplaced:
		// Wholesale replacement, no merging.
		return e.Room.Clone()
	}

	return current
}
