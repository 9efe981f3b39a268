package game

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Validation errors stay local to the input that produced them; they are
// never sent to the backend and never fail a session.
var (
	ErrNameEmpty   = errors.New("player name must be filled out")
	ErrNameTooLong = errors.New("player name is too long")
	ErrBadRoomCode = errors.New("room code must be 5 characters")
)

const maxNameLength = 20

// ValidatePlayerName checks the 1-20 character rule before a rename is
// submitted. Length counts runes, not bytes.
func ValidatePlayerName(name string) error {
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return ErrNameEmpty
	case n > maxNameLength:
		return ErrNameTooLong
	}
	return nil
}

// NormalizeRoomCode uppercases a user-entered room code and validates its
// shape. Codes are always exactly 5 characters.
func NormalizeRoomCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if utf8.RuneCountInString(code) != 5 {
		return "", ErrBadRoomCode
	}
	return code, nil
}
