package devserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleCreateRoom allocates a room and returns its code as plain text.
func (s *Server) handleCreateRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := s.rooms.create()
		if err != nil {
			s.logger.Error("creating room", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		s.logger.Info("room created", "room", code)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, code)
	}
}

func (s *Server) handleGetRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := s.rooms.snapshot(chi.URLParam(r, "roomID"))
		if errors.Is(err, errNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeJSON(w, http.StatusOK, room)
	}
}

func (s *Server) handleStartGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")
		room, err := s.rooms.start(roomID)
		if errors.Is(err, errNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		s.logger.Info("game started", "room", roomID)
		writeJSON(w, http.StatusOK, room)
	}
}

func (s *Server) handleEndGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")
		if err := s.rooms.end(roomID); errors.Is(err, errNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		s.logger.Info("game ended", "room", roomID)
		w.WriteHeader(http.StatusNoContent)
	}
}
