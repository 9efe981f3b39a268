package devserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleToggleQuest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := readJSONString(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		err = s.rooms.toggle(chi.URLParam(r, "roomID"), chi.URLParam(r, "questID"), playerID)
		switch {
		case errors.Is(err, errNotFound):
			writeError(w, http.StatusNotFound, "room, quest or player not found")
		case errors.Is(err, errConflict):
			writeError(w, http.StatusConflict, "quest already completed by another player")
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}
