package state

import (
	"context"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory(context.Background())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPlayerIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	id, err := s.PlayerID(ctx)
	if err != nil {
		t.Fatalf("reading unset player id: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty player id, got %q", id)
	}

	if err := s.SetPlayerID(ctx, "p-123"); err != nil {
		t.Fatalf("storing player id: %v", err)
	}
	// Overwrite, like a fresh join after the old room expired.
	if err := s.SetPlayerID(ctx, "p-456"); err != nil {
		t.Fatalf("overwriting player id: %v", err)
	}

	id, err = s.PlayerID(ctx)
	if err != nil {
		t.Fatalf("reading player id: %v", err)
	}
	if id != "p-456" {
		t.Errorf("got %q, want p-456", id)
	}
}

func TestThemeDefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	theme, err := s.Theme(ctx)
	if err != nil {
		t.Fatalf("reading theme: %v", err)
	}
	if theme != DefaultTheme {
		t.Errorf("got %q, want default %q", theme, DefaultTheme)
	}

	if err := s.SetTheme(ctx, "neon"); err == nil {
		t.Error("expected invalid theme to be rejected")
	}
	if err := s.SetTheme(ctx, "light"); err != nil {
		t.Fatalf("storing theme: %v", err)
	}
	theme, _ = s.Theme(ctx)
	if theme != "light" {
		t.Errorf("got %q, want light", theme)
	}
}

func TestRecentRoomsOrdering(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for _, id := range []string{"AAAAA", "BBBBB", "CCCCC"} {
		if err := s.TouchRoom(ctx, id); err != nil {
			t.Fatalf("touching %s: %v", id, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	// Rejoin the oldest; it should move to the front.
	if err := s.TouchRoom(ctx, "AAAAA"); err != nil {
		t.Fatalf("re-touching: %v", err)
	}

	rooms, err := s.RecentRooms(ctx, 2)
	if err != nil {
		t.Fatalf("listing rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("got %d rooms, want 2", len(rooms))
	}
	if rooms[0].ID != "AAAAA" || rooms[1].ID != "CCCCC" {
		t.Errorf("unexpected order: %s, %s", rooms[0].ID, rooms[1].ID)
	}
}
