package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/audiencelab-io/audiencelab/internal/core"
	"github.com/audiencelab-io/audiencelab/internal/core/llm"
	"github.com/audiencelab-io/audiencelab/internal/schema"
	"github.com/audiencelab-io/audiencelab/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP statuses. Provider drift
// (malformed or out-of-range structured output) surfaces as 502 with a
// retry hint rather than leaking raw model text.
func writeError(w http.ResponseWriter, err error) {
	var (
		outErr *llm.NoStructuredOutputError
		valErr *schema.ValidationError
	)
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, core.ErrNotOwner):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, core.ErrNameTaken):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "an audience with this name already exists"})
	case errors.As(err, &outErr), errors.As(err, &valErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "the model returned an unusable response, please try again"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}
