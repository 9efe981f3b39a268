package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSONString reads a request body that is a bare JSON-encoded
// string, the shape the rename and toggle routes use.
func readJSONString(r *http.Request) (string, error) {
	defer r.Body.Close()
	var s string
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		return "", fmt.Errorf("body must be a JSON string: %w", err)
	}
	return s, nil
}
