package devserver

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/thomasari/quest-bingo/internal/game"
)

// ErrorResponse is the shape of every error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Quest Bingo API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Development stand-in for the quest bingo backend. " +
		"The push hub at /hub/room is a websocket and is not described here.")

	// GET /create
	create, _ := r.NewOperationContext(http.MethodGet, "/create")
	create.SetSummary("Create room")
	create.SetDescription("Allocates a new room and returns its 5-character code as plain text.")
	create.AddRespStructure("", openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(create)

	// GET /room/{roomID}
	getRoom, _ := r.NewOperationContext(http.MethodGet, "/room/{roomID}")
	getRoom.SetSummary("Get room")
	getRoom.AddRespStructure(game.Room{}, openapi.WithHTTPStatus(http.StatusOK))
	getRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getRoom)

	// POST /join/{roomID}
	join, _ := r.NewOperationContext(http.MethodPost, "/join/{roomID}")
	join.SetSummary("Join room")
	join.SetDescription("Creates a new player record. Not idempotent; clients gate rejoin through their stored player id.")
	join.AddRespStructure(JoinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	join.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(join)

	// PUT /room/{roomID}/player/{playerID}
	rename, _ := r.NewOperationContext(http.MethodPut, "/room/{roomID}/player/{playerID}")
	rename.SetSummary("Rename player")
	rename.SetDescription("Body is the new name as a bare JSON string, 1-20 characters.")
	rename.AddReqStructure("")
	rename.AddRespStructure(game.Player{}, openapi.WithHTTPStatus(http.StatusOK))
	rename.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	rename.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(rename)

	// GET /room/{roomID}/start
	start, _ := r.NewOperationContext(http.MethodGet, "/room/{roomID}/start")
	start.SetSummary("Start game")
	start.SetDescription("Idempotent once started.")
	start.AddRespStructure(game.Room{}, openapi.WithHTTPStatus(http.StatusOK))
	start.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(start)

	// GET /room/{roomID}/end
	end, _ := r.NewOperationContext(http.MethodGet, "/room/{roomID}/end")
	end.SetSummary("End game")
	end.SetDescription("Idempotent once ended.")
	end.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	end.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(end)

	// PATCH /room/{roomID}/quest/{questID}
	toggle, _ := r.NewOperationContext(http.MethodPatch, "/room/{roomID}/quest/{questID}")
	toggle.SetSummary("Toggle quest")
	toggle.SetDescription("Body is the acting player id as a bare JSON string. Claims an open quest, releases your own, conflicts on someone else's.")
	toggle.AddReqStructure("")
	toggle.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	toggle.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	toggle.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(toggle)

	// GET /room/{roomID}/chat
	chat, _ := r.NewOperationContext(http.MethodGet, "/room/{roomID}/chat")
	chat.SetSummary("Chat history")
	chat.AddRespStructure([]game.ChatMessage{}, openapi.WithHTTPStatus(http.StatusOK))
	chat.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(chat)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	var cached []byte
	return func(w http.ResponseWriter, r *http.Request) {
		if cached == nil {
			data, err := json.Marshal(newOpenAPISpec())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "rendering spec")
				return
			}
			cached = data
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write(cached)
	}
}
