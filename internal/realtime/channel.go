// Package realtime abstracts the push channel between the client and the
// room hub. The session layer only sees Channel; the wire transport can
// be swapped without touching reducer or dispatcher logic.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event names delivered by the hub, and the one method the client
// invokes on it. Payload shapes are the contract; framing belongs to the
// transport.
const (
	EventPlayerJoined      = "PlayerJoined"
	EventPlayerChangedName = "PlayerChangedName"
	EventRoomUpdate        = "RoomUpdate"
	EventReceiveChat       = "ReceiveChat"

	MethodSendChat = "SendChat"
)

// Handler receives the raw argument list of one hub event. Handlers for
// a connection run on a single goroutine in arrival order.
type Handler func(args []json.RawMessage)

// Channel is the capability the session needs from a push transport.
// Register handlers with On before calling Connect.
type Channel interface {
	Connect(ctx context.Context) error
	On(event string, fn Handler)
	Invoke(ctx context.Context, method string, args ...any) error
	Close() error
}

// Envelope is the JSON frame exchanged over the websocket transport in
// both directions.
type Envelope struct {
	Type string            `json:"type"`
	Args []json.RawMessage `json:"args"`
}

// UnmarshalFrom parses a raw wire frame into the envelope.
func (e *Envelope) UnmarshalFrom(data []byte) error {
	if err := json.Unmarshal(data, e); err != nil {
		return fmt.Errorf("parsing frame: %w", err)
	}
	if e.Type == "" {
		return fmt.Errorf("frame has no type")
	}
	return nil
}

// DecodeArgs unmarshals the envelope's arguments positionally into the
// given destinations.
func (e *Envelope) DecodeArgs(dsts ...any) error {
	if err := Decode(e.Args, dsts...); err != nil {
		return fmt.Errorf("%s: %w", e.Type, err)
	}
	return nil
}

// Decode unmarshals an event's raw arguments positionally into the given
// destinations and fails when fewer arguments arrived than expected.
func Decode(args []json.RawMessage, dsts ...any) error {
	if len(args) < len(dsts) {
		return fmt.Errorf("got %d arguments, want %d", len(args), len(dsts))
	}
	for i, dst := range dsts {
		if err := json.Unmarshal(args[i], dst); err != nil {
			return fmt.Errorf("decoding argument %d: %w", i, err)
		}
	}
	return nil
}

// NewEnvelope marshals an event or method call into a wire frame.
func NewEnvelope(typ string, args ...any) ([]byte, error) {
	env := Envelope{Type: typ, Args: make([]json.RawMessage, 0, len(args))}
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encoding %s argument: %w", typ, err)
		}
		env.Args = append(env.Args, raw)
	}
	return json.Marshal(env)
}
