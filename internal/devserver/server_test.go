package devserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/thomasari/quest-bingo/internal/game"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(New(":0", logger, 2, 2).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func createRoom(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Get(srv.URL + "/create")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	code := strings.TrimSpace(string(body))
	if len(code) != 5 {
		t.Fatalf("got room code %q, want 5 characters", code)
	}
	return code
}

func joinRoom(t *testing.T, srv *httptest.Server, code string) JoinResponse {
	t.Helper()
	resp, err := http.Post(srv.URL+"/join/"+code, "application/json", nil)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join returned %d", resp.StatusCode)
	}
	var out JoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding join response: %v", err)
	}
	return out
}

func TestCreateAndGetRoom(t *testing.T) {
	srv := testServer(t)
	code := createRoom(t, srv)

	resp, err := http.Get(srv.URL + "/room/" + code)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	defer resp.Body.Close()

	var room game.Room
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		t.Fatalf("decoding room: %v", err)
	}
	if room.ID != code {
		t.Errorf("got id %q, want %q", room.ID, code)
	}
	if len(room.Board.Quests) != 2 || len(room.Board.Quests[0]) != 2 {
		t.Errorf("expected a 2x2 board, got %d rows", len(room.Board.Quests))
	}
	if room.GameStarted != nil || room.GameEnded {
		t.Error("new room should not be started or ended")
	}
}

func TestGetUnknownRoom(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/room/ZZZZZ")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("got %d, want 404", resp.StatusCode)
	}
}

func TestJoinAssignsHostOrderAndColors(t *testing.T) {
	srv := testServer(t)
	code := createRoom(t, srv)

	first := joinRoom(t, srv, code)
	second := joinRoom(t, srv, code)

	if first.Player.ID == second.Player.ID {
		t.Error("joins must mint distinct players")
	}
	if got := second.Room.Players; len(got) != 2 || got[0].ID != first.Player.ID {
		t.Errorf("first joiner must stay first (host): %+v", got)
	}
	if first.Player.Color == "" || first.Player.Color == second.Player.Color {
		t.Errorf("players should get distinct colors, got %q and %q",
			first.Player.Color, second.Player.Color)
	}
}

func TestRenameValidation(t *testing.T) {
	srv := testServer(t)
	code := createRoom(t, srv)
	joined := joinRoom(t, srv, code)

	put := func(body string) int {
		req, _ := http.NewRequest(http.MethodPut,
			srv.URL+"/room/"+code+"/player/"+joined.Player.ID,
			bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("rename: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if got := put(`"Alice"`); got != http.StatusOK {
		t.Errorf("valid rename returned %d", got)
	}
	if got := put(`""`); got != http.StatusBadRequest {
		t.Errorf("empty name returned %d, want 400", got)
	}
	if got := put(`"` + strings.Repeat("x", 21) + `"`); got != http.StatusBadRequest {
		t.Errorf("21-char name returned %d, want 400", got)
	}
	if got := put(`not json`); got != http.StatusBadRequest {
		t.Errorf("non-JSON body returned %d, want 400", got)
	}
}

func TestQuestToggleRules(t *testing.T) {
	srv := testServer(t)
	code := createRoom(t, srv)
	a := joinRoom(t, srv, code)
	b := joinRoom(t, srv, code)

	// Start the game first.
	resp, err := http.Get(srv.URL + "/room/" + code + "/start")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	resp.Body.Close()

	questID := a.Room.Board.Quests[0][0].ID
	patch := func(playerID string) int {
		body, _ := json.Marshal(playerID)
		req, _ := http.NewRequest(http.MethodPatch,
			srv.URL+"/room/"+code+"/quest/"+questID, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("toggle: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if got := patch(a.Player.ID); got != http.StatusNoContent {
		t.Fatalf("claiming open quest returned %d", got)
	}
	// B cannot touch A's quest.
	if got := patch(b.Player.ID); got != http.StatusConflict {
		t.Errorf("toggling someone else's quest returned %d, want 409", got)
	}
	// A toggling again releases it.
	if got := patch(a.Player.ID); got != http.StatusNoContent {
		t.Errorf("releasing own quest returned %d", got)
	}
	// Now open again, B can claim.
	if got := patch(b.Player.ID); got != http.StatusNoContent {
		t.Errorf("claiming released quest returned %d", got)
	}
}

func TestStartAndEndAreIdempotent(t *testing.T) {
	srv := testServer(t)
	code := createRoom(t, srv)
	joinRoom(t, srv, code)

	var first game.Room
	for i := range 2 {
		resp, err := http.Get(srv.URL + "/room/" + code + "/start")
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		var room game.Room
		if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
			t.Fatalf("decoding start response: %v", err)
		}
		resp.Body.Close()
		if room.GameStarted == nil {
			t.Fatal("game not started")
		}
		if i == 0 {
			first = room
		} else if !room.GameStarted.Equal(*first.GameStarted) {
			t.Error("second start must keep the original timestamp")
		}
	}

	for range 2 {
		resp, err := http.Get(srv.URL + "/room/" + code + "/end")
		if err != nil {
			t.Fatalf("end: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("end returned %d", resp.StatusCode)
		}
	}
}

func TestChatLogStartsEmpty(t *testing.T) {
	srv := testServer(t)
	code := createRoom(t, srv)

	resp, err := http.Get(srv.URL + "/room/" + code + "/chat")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	defer resp.Body.Close()

	var log []game.ChatMessage
	if err := json.NewDecoder(resp.Body).Decode(&log); err != nil {
		t.Fatalf("decoding chat log: %v", err)
	}
	if len(log) != 0 {
		t.Errorf("expected empty log, got %d messages", len(log))
	}
}

func TestOpenAPIServes(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/openapi.json")
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("openapi returned %d", resp.StatusCode)
	}
	var spec map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&spec); err != nil {
		t.Fatalf("spec is not JSON: %v", err)
	}
	if _, ok := spec["paths"]; !ok {
		t.Error("spec has no paths")
	}
}
