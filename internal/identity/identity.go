// Package identity answers "who am I" when entering a room: the client
// keeps one opaque player identifier across reloads and matches it
// against the roster on (re)join.
package identity

import "github.com/thomasari/quest-bingo/internal/game"

// Resolve returns the roster entry matching existingID, or nil when the
// caller must request a fresh player record from the backend. Resolution
// is pure; persisting a newly issued id is the caller's job and must
// succeed before the id is used for anything else.
func Resolve(existingID string, roster []game.Player) *game.Player {
	if existingID == "" {
		return nil
	}
	for i := range roster {
		if roster[i].ID == existingID {
			p := roster[i]
			return &p
		}
	}
	return nil
}
