package devserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleChatLog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log, err := s.rooms.chatLog(chi.URLParam(r, "roomID"))
		if errors.Is(err, errNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeJSON(w, http.StatusOK, log)
	}
}
