// Package api is the command side of the client: plain request/response
// calls against the quest bingo backend. It holds no state of its own;
// responses are folded into the session's snapshot by the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thomasari/quest-bingo/internal/game"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the backend at baseURL (scheme and host, no
// trailing slash required).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateRoom allocates a new room and returns its code. Each call
// creates a fresh room.
func (c *Client) CreateRoom(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/create", nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("creating room: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", fmt.Errorf("creating room: %w", err)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("reading room code: %w", err)
	}
	code := strings.TrimSpace(string(body))
	if code == "" {
		return "", fmt.Errorf("creating room: empty room code: %w", ErrNotFound)
	}
	return code, nil
}

// Room fetches the current snapshot of a room.
func (c *Client) Room(ctx context.Context, roomID string) (*game.Room, error) {
	var room game.Room
	if err := c.do(ctx, http.MethodGet, "/room/"+roomID, nil, &room); err != nil {
		return nil, fmt.Errorf("fetching room %s: %w", roomID, err)
	}
	return &room, nil
}

type joinResponse struct {
	Player game.Player `json:"player"`
	Room   game.Room   `json:"room"`
}

// Join creates a new player record in the room. It is not idempotent:
// callers gate it through identity resolution so a rejoin never mints a
// second player.
func (c *Client) Join(ctx context.Context, roomID string) (*game.Player, *game.Room, error) {
	var out joinResponse
	if err := c.do(ctx, http.MethodPost, "/join/"+roomID, nil, &out); err != nil {
		return nil, nil, fmt.Errorf("joining room %s: %w", roomID, err)
	}
	return &out.Player, &out.Room, nil
}

// RenamePlayer updates a player's display name. The body is the bare
// JSON-encoded string, matching the backend's contract.
func (c *Client) RenamePlayer(ctx context.Context, roomID, playerID, name string) (*game.Player, error) {
	var player game.Player
	path := "/room/" + roomID + "/player/" + playerID
	if err := c.do(ctx, http.MethodPut, path, name, &player); err != nil {
		return nil, fmt.Errorf("renaming player: %w", err)
	}
	return &player, nil
}

// StartGame starts the game and returns the updated room. Idempotent
// once started.
func (c *Client) StartGame(ctx context.Context, roomID string) (*game.Room, error) {
	var room game.Room
	if err := c.do(ctx, http.MethodGet, "/room/"+roomID+"/start", nil, &room); err != nil {
		return nil, fmt.Errorf("starting game: %w", err)
	}
	return &room, nil
}

// EndGame ends the game. The updated room arrives through the push
// channel rather than the response body.
func (c *Client) EndGame(ctx context.Context, roomID string) error {
	if err := c.do(ctx, http.MethodGet, "/room/"+roomID+"/end", nil, nil); err != nil {
		return fmt.Errorf("ending game: %w", err)
	}
	return nil
}

// ToggleQuest flips quest completion for the acting player: claim when
// open, release when held by that player, so toggling twice reverts.
// A quest held by another player yields ErrConflict.
func (c *Client) ToggleQuest(ctx context.Context, roomID, questID, playerID string) error {
	path := "/room/" + roomID + "/quest/" + questID
	if err := c.do(ctx, http.MethodPatch, path, playerID, nil); err != nil {
		return fmt.Errorf("toggling quest %s: %w", questID, err)
	}
	return nil
}

// ChatHistory returns the room's chat log in chronological order.
func (c *Client) ChatHistory(ctx context.Context, roomID string) ([]game.ChatMessage, error) {
	var msgs []game.ChatMessage
	if err := c.do(ctx, http.MethodGet, "/room/"+roomID+"/chat", nil, &msgs); err != nil {
		return nil, fmt.Errorf("fetching chat history: %w", err)
	}
	return msgs, nil
}

// do issues a request with an optional JSON body and decodes the
// response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// Malformed responses are treated the same as a missing resource.
		return fmt.Errorf("malformed response: %w", ErrNotFound)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
