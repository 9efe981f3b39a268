package devserver

import (
	"log/slog"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/thomasari/quest-bingo/internal/realtime"
)

// hub is an in-process pub/sub of wire frames, keyed by room id.
type hub struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger: logger,
		subs:   make(map[string]map[chan []byte]struct{}),
	}
}

func (h *hub) subscribe(roomID string) chan []byte {
	ch := make(chan []byte, 16)
	h.mu.Lock()
	if h.subs[roomID] == nil {
		h.subs[roomID] = make(map[chan []byte]struct{})
	}
	h.subs[roomID][ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(roomID string, ch chan []byte) {
	h.mu.Lock()
	delete(h.subs[roomID], ch)
	if len(h.subs[roomID]) == 0 {
		delete(h.subs, roomID)
	}
	h.mu.Unlock()
}

// publish fans an event out to every subscriber of the room. Slow
// subscribers drop frames rather than block a mutation.
func (h *hub) publish(roomID, event string, args ...any) {
	data, err := realtime.NewEnvelope(event, args...)
	if err != nil {
		h.logger.Error("encoding hub event", "event", event, "error", err)
		return
	}
	h.mu.RLock()
	for ch := range h.subs[roomID] {
		select {
		case ch <- data:
		default:
		}
	}
	h.mu.RUnlock()
}

// handleHub upgrades to a websocket, streams room events to the client
// and accepts SendChat invocations. Every new subscriber immediately
// receives a full RoomUpdate snapshot, which is also what makes
// reconnects converge without a re-join.
func (s *Server) handleHub() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("roomId")
		if roomID == "" {
			writeError(w, http.StatusBadRequest, "roomId query parameter required")
			return
		}
		if _, err := s.rooms.snapshot(roomID); err != nil {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			s.logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		ch := s.hub.subscribe(roomID)
		defer s.hub.unsubscribe(roomID, ch)

		if room, err := s.rooms.snapshot(roomID); err == nil {
			frame, err := realtime.NewEnvelope(realtime.EventRoomUpdate, room)
			if err == nil {
				if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
					return
				}
			}
		}

		// Writer: hub frames out to the socket.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case frame := <-ch:
					if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
						return
					}
				}
			}
		}()

		// Reader: client invocations in.
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				s.logger.Debug("hub connection closed", "room", roomID, "error", err)
				return
			}
			s.handleInvocation(roomID, data)
		}
	}
}

func (s *Server) handleInvocation(roomID string, data []byte) {
	var env realtime.Envelope
	if err := env.UnmarshalFrom(data); err != nil {
		s.logger.Warn("dropping unparseable invocation", "error", err)
		return
	}

	switch env.Type {
	case realtime.MethodSendChat:
		var chatRoomID, playerID, message string
		if err := env.DecodeArgs(&chatRoomID, &playerID, &message); err != nil {
			s.logger.Warn("bad SendChat arguments", "error", err)
			return
		}
		if err := s.rooms.sendChat(chatRoomID, playerID, message); err != nil {
			s.logger.Warn("chat send rejected", "room", chatRoomID, "error", err)
		}
	default:
		s.logger.Debug("unknown hub method", "method", env.Type)
	}
}
