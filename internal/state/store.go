// Package state persists the little client-side state that survives a
// restart: the opaque player identifier used for rejoin matching, the
// theme preference, and the list of recently joined rooms.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thomasari/quest-bingo/internal/database"
	"github.com/thomasari/quest-bingo/internal/migrations"
)

const (
	keyPlayerID = "player_id"
	keyTheme    = "theme"

	// DefaultTheme applies until the player picks one.
	DefaultTheme = "dark"
)

var ErrBadTheme = errors.New(`theme must be "light" or "dark"`)

type Store struct {
	db *sql.DB
}

// Open creates (if needed) and migrates the state database under dir.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	db, err := database.Open(ctx, filepath.Join(dir, "questbingo.db"))
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenInMemory returns a store backed by an in-memory database, for
// tests.
func OpenInMemory(ctx context.Context) (*Store, error) {
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// PlayerID returns the persisted player identifier, or "" when none has
// been stored yet.
func (s *Store) PlayerID(ctx context.Context) (string, error) {
	return s.setting(ctx, keyPlayerID)
}

// SetPlayerID durably stores the identifier issued on join. The session
// must not trust a new identity until this has succeeded.
func (s *Store) SetPlayerID(ctx context.Context, id string) error {
	return s.setSetting(ctx, keyPlayerID, id)
}

// Theme returns the persisted theme preference, falling back to the
// default when unset.
func (s *Store) Theme(ctx context.Context) (string, error) {
	theme, err := s.setting(ctx, keyTheme)
	if err != nil {
		return "", err
	}
	if theme == "" {
		return DefaultTheme, nil
	}
	return theme, nil
}

func (s *Store) SetTheme(ctx context.Context, theme string) error {
	if theme != "light" && theme != "dark" {
		return ErrBadTheme
	}
	return s.setSetting(ctx, keyTheme, theme)
}

// RecentRoom is one entry of the recently joined list.
type RecentRoom struct {
	ID           string
	LastJoinedAt time.Time
}

// TouchRoom records that the player joined (or rejoined) a room now.
func (s *Store) TouchRoom(ctx context.Context, roomID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, last_joined_at) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET last_joined_at = excluded.last_joined_at`,
		roomID, now)
	if err != nil {
		return fmt.Errorf("recording room %s: %w", roomID, err)
	}
	return nil
}

// RecentRooms lists rooms by most recent join, newest first.
func (s *Store) RecentRooms(ctx context.Context, limit int) ([]RecentRoom, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, last_joined_at FROM rooms ORDER BY last_joined_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var out []RecentRoom
	for rows.Next() {
		var r RecentRoom
		var ts string
		if err := rows.Scan(&r.ID, &ts); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		r.LastJoinedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) setSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}
