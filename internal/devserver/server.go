// Package devserver is an in-process stand-in for the quest bingo
// backend: it implements exactly the HTTP surface and push hub the
// client consumes, enough for local play and end-to-end tests. Game
// authority in production belongs to the real backend.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/swaggest/swgui/v5emb"
)

type Server struct {
	logger *slog.Logger
	rooms  *registry
	hub    *hub
	srv    *http.Server
}

// New builds a server creating rows-by-cols boards, listening on addr
// when Run is called.
func New(addr string, logger *slog.Logger, rows, cols int) *Server {
	s := &Server{logger: logger}
	s.hub = newHub(logger)
	s.rooms = newRegistry(rows, cols, s.hub)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)

	s.addRoutes(r)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) addRoutes(r chi.Router) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Quest Bingo API", "/openapi.json", "/docs"))
	r.Get("/healthz", s.handleHealth())

	r.Get("/create", s.handleCreateRoom())
	r.Get("/room/{roomID}", s.handleGetRoom())
	r.Post("/join/{roomID}", s.handleJoin())
	r.Put("/room/{roomID}/player/{playerID}", s.handleRenamePlayer())
	r.Get("/room/{roomID}/start", s.handleStartGame())
	r.Get("/room/{roomID}/end", s.handleEndGame())
	r.Patch("/room/{roomID}/quest/{questID}", s.handleToggleQuest())
	r.Get("/room/{roomID}/chat", s.handleChatLog())

	r.Get("/hub/room", s.handleHub())
}

// Handler exposes the router for httptest servers.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
