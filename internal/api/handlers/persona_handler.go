package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	appMiddleware "github.com/audiencelab-io/audiencelab/internal/api/middlewares"
	"github.com/audiencelab-io/audiencelab/internal/services"
)

type PersonaHandler struct {
	audiences *services.AudienceService
}

func NewPersonaHandler(audiences *services.AudienceService) *PersonaHandler {
	return &PersonaHandler{audiences: audiences}
}

// List returns the personas of one generation session (?audienceId=...,
// defaulting to the unsaved working set).
func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	personas, err := h.audiences.ListPersonas(r.Context(), appMiddleware.UserID(r.Context()),
		r.URL.Query().Get("audienceId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, personas)
}

func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.audiences.GetPersona(r.Context(), appMiddleware.UserID(r.Context()),
		chi.URLParam(r, "personaId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
