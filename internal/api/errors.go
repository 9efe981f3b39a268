package api

import "errors"

var (
	// ErrNotFound covers a missing room or player server-side, and also
	// malformed responses: the client treats an unparseable body the same
	// as a missing resource.
	ErrNotFound = errors.New("not found")

	// ErrConflict is an expected, non-fatal race: typically a quest that
	// another player claimed first.
	ErrConflict = errors.New("conflict")
)
