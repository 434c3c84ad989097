package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	appMiddleware "github.com/audiencelab-io/audiencelab/internal/api/middlewares"
	"github.com/audiencelab-io/audiencelab/internal/services"
)

type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type sessionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AudienceID  string `json:"audienceId"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := appMiddleware.UserID(r.Context())

	var req sessionRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	var err error
	var session any
	if req.Title == "" {
		session, err = h.sessions.Create(r.Context(), userID)
	} else {
		session, err = h.sessions.CreateWithTitle(r.Context(), userID, req.Title, req.Description, req.AudienceID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) Activate(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.Activate(r.Context(), appMiddleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.sessions.Rename(r.Context(), appMiddleware.UserID(r.Context()), chi.URLParam(r, "id"),
		req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.Remove(r.Context(), appMiddleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.List(r.Context(), appMiddleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}
