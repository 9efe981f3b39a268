package devserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thomasari/quest-bingo/internal/game"
)

// JoinResponse pairs the freshly minted player with the roster that
// already includes it.
type JoinResponse struct {
	Player game.Player `json:"player"`
	Room   game.Room   `json:"room"`
}

func (s *Server) handleJoin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")
		player, room, err := s.rooms.join(roomID)
		if errors.Is(err, errNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		if err != nil {
			s.logger.Error("joining room", "room", roomID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		s.logger.Info("player joined", "room", roomID, "player", player.ID)
		writeJSON(w, http.StatusOK, JoinResponse{Player: *player, Room: *room})
	}
}

func (s *Server) handleRenamePlayer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := readJSONString(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		player, err := s.rooms.rename(chi.URLParam(r, "roomID"), chi.URLParam(r, "playerID"), name)
		switch {
		case errors.Is(err, errNotFound):
			writeError(w, http.StatusNotFound, "player not found")
			return
		case err != nil:
			// Validation failure.
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, player)
	}
}
