package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MukeshR-prog/distributer/internal/types"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps the shared error taxonomy onto HTTP status codes.
// Anything unrecognized is internal.
func statusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrDistributionNotFound),
		errors.Is(err, types.ErrAgentNotFound),
		errors.Is(err, types.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrNotAssigned):
		return http.StatusForbidden
	case errors.Is(err, types.ErrAgentExists),
		errors.Is(err, types.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, types.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrEmptyInput),
		errors.Is(err, types.ErrNoAgents),
		errors.Is(err, types.ErrNoActiveAgents):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
