package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorBody is the failure outcome surfaced to the presentation layer: a
// human-readable reason next to the triggering action, nothing more.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error writing response", "error", err)
	}
}

// Error writes a failure outcome with the given status and reason.
func Error(w http.ResponseWriter, status int, reason string) {
	JSON(w, status, errorBody{Error: reason})
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
