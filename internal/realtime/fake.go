package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Fake is an in-memory Channel for tests: events are injected with Emit
// and outbound invokes are recorded.
type Fake struct {
	ConnectErr error

	mu       sync.Mutex
	handlers map[string]Handler
	invoked  []Invocation
	closed   bool
}

type Invocation struct {
	Method string
	Args   []json.RawMessage
}

func NewFake() *Fake {
	return &Fake{handlers: make(map[string]Handler)}
}

func (f *Fake) Connect(ctx context.Context) error { return f.ConnectErr }

func (f *Fake) On(event string, fn Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = fn
}

func (f *Fake) Invoke(ctx context.Context, method string, args ...any) error {
	raw := make([]json.RawMessage, 0, len(args))
	for _, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return err
		}
		raw = append(raw, b)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrChannelClosed
	}
	f.invoked = append(f.invoked, Invocation{Method: method, Args: raw})
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Emit delivers an event to the registered handler, synchronously, the
// way the websocket read loop would.
func (f *Fake) Emit(event string, args ...any) error {
	f.mu.Lock()
	fn, ok := f.handlers[event]
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}
	if !ok {
		return fmt.Errorf("no handler for %s", event)
	}

	raw := make([]json.RawMessage, 0, len(args))
	for _, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return err
		}
		raw = append(raw, b)
	}
	fn(raw)
	return nil
}

// Invocations returns a copy of the recorded outbound calls.
func (f *Fake) Invocations() []Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Invocation(nil), f.invoked...)
}
