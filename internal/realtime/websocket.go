package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

const (
	reconnectBase = 500 * time.Millisecond
	reconnectMax  = 8 * time.Second
	readLimit     = 1 << 20
)

// ErrChannelClosed is returned by Invoke after Close, or while a
// reconnect is in progress and there is no live connection to write to.
var ErrChannelClosed = errors.New("channel closed")

// WSChannel is the websocket implementation of Channel. A lost
// connection reconnects automatically with capped backoff; the join
// sequence is not re-run, because the hub re-sends a full room snapshot
// to every new subscriber.
type WSChannel struct {
	url      string
	logger   *slog.Logger
	handlers map[string]Handler

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// NewWSChannel builds a channel for the given hub URL, e.g.
// "http://host/hub/room?roomId=ABCDE".
func NewWSChannel(url string, logger *slog.Logger) *WSChannel {
	return &WSChannel{
		url:      url,
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// On registers a handler for a named hub event. Must be called before
// Connect.
func (c *WSChannel) On(event string, fn Handler) {
	c.handlers[event] = fn
}

// Connect dials the hub and starts the read loop. It returns once the
// first dial succeeds; later disconnects are handled internally.
func (c *WSChannel) Connect(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dialing hub: %w", err)
	}
	conn.SetReadLimit(readLimit)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		conn.Close(websocket.StatusNormalClosure, "closed")
		return ErrChannelClosed
	}
	c.conn = conn
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(loopCtx, conn)
	return nil
}

// run reads frames until the connection drops, then redials until the
// channel is closed.
func (c *WSChannel) run(ctx context.Context, conn *websocket.Conn) {
	defer close(c.done)

	for {
		c.readLoop(ctx, conn)
		if ctx.Err() != nil {
			return
		}

		c.logger.Warn("hub connection lost, reconnecting")
		var ok bool
		conn, ok = c.redial(ctx)
		if !ok {
			return
		}
	}
}

func (c *WSChannel) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("dropping unparseable hub frame", "error", err)
			continue
		}
		fn, ok := c.handlers[env.Type]
		if !ok {
			c.logger.Debug("no handler for hub event", "event", env.Type)
			continue
		}
		// Teardown must win over a frame already in hand.
		if ctx.Err() != nil {
			return
		}
		fn(env.Args)
	}
}

// redial retries with capped exponential backoff until it gets a
// connection or the channel is torn down.
func (c *WSChannel) redial(ctx context.Context) (*websocket.Conn, bool) {
	backoff := reconnectBase
	for {
		conn, _, err := websocket.Dial(ctx, c.url, nil)
		if err == nil {
			conn.SetReadLimit(readLimit)
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				conn.Close(websocket.StatusNormalClosure, "closed")
				return nil, false
			}
			c.conn = conn
			c.mu.Unlock()
			c.logger.Info("hub connection re-established")
			return conn, true
		}

		c.logger.Debug("hub redial failed", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

// Invoke sends a method call to the hub.
func (c *WSChannel) Invoke(ctx context.Context, method string, args ...any) error {
	payload, err := NewEnvelope(method, args...)
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	closed := c.closed
	c.mu.Unlock()
	if closed || conn == nil {
		return ErrChannelClosed
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		return fmt.Errorf("invoking %s: %w", method, err)
	}
	return nil
}

// Close tears the channel down. It is idempotent and synchronous: no
// handler fires after Close returns.
func (c *WSChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel, conn, done := c.cancel, c.conn, c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "leaving room")
	}
	if done != nil {
		<-done
	}
	return nil
}
