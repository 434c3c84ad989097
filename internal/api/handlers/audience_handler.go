package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appMiddleware "github.com/audiencelab-io/audiencelab/internal/api/middlewares"
	"github.com/audiencelab-io/audiencelab/internal/models"
	"github.com/audiencelab-io/audiencelab/internal/services"
)

// AudienceHandler exposes group suggestion, persona generation, saved
// audiences and exports.
type AudienceHandler struct {
	audiences *services.AudienceService
	exports   *services.ExportService
}

func NewAudienceHandler(audiences *services.AudienceService, exports *services.ExportService) *AudienceHandler {
	return &AudienceHandler{audiences: audiences, exports: exports}
}

type suggestGroupsRequest struct {
	AudienceText string `json:"audienceText"`
	Location     string `json:"location"`
	GroupCount   int    `json:"groupCount"`
}

func (h *AudienceHandler) SuggestGroups(w http.ResponseWriter, r *http.Request) {
	var req suggestGroupsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AudienceText == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "audienceText is required"})
		return
	}

	bundle, err := h.audiences.SuggestGroups(r.Context(), req.AudienceText, req.Location, req.GroupCount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

type generateRequest struct {
	AudienceText string                 `json:"audienceText"`
	Location     string                 `json:"location"`
	Total        int                    `json:"total"`
	Groups       []models.AudienceGroup `json:"groups"`
}

// Generate kicks off the per-group fan-out and returns the run token
// right away; the client polls GenerationStatus until done.
func (h *AudienceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	status, err := h.audiences.GenerateAudience(r.Context(), services.GenerateRequest{
		UserID:       appMiddleware.UserID(r.Context()),
		AudienceText: req.AudienceText,
		Location:     req.Location,
		Total:        req.Total,
		Groups:       req.Groups,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, status)
}

func (h *AudienceHandler) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.audiences.Status(chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type saveAudienceRequest struct {
	Name                   string `json:"name"`
	Description            string `json:"description"`
	AudienceID             string `json:"audienceId"`
	ProjectedPersonasCount int    `json:"projectedPersonasCount"`
}

func (h *AudienceHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveAudienceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	aud, err := h.audiences.SaveAudience(r.Context(), appMiddleware.UserID(r.Context()),
		req.Name, req.Description, req.AudienceID, req.ProjectedPersonasCount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, aud)
}

type audiencePage struct {
	Items      []models.UserAudience `json:"items"`
	NextCursor string                `json:"nextCursor,omitempty"`
}

func (h *AudienceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cursor := r.URL.Query().Get("cursor")

	items, next, err := h.audiences.ListAudiences(r.Context(), appMiddleware.UserID(r.Context()), limit, cursor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, audiencePage{Items: items, NextCursor: next})
}

func (h *AudienceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.audiences.DeleteAudience(r.Context(), appMiddleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AudienceHandler) Similar(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.audiences.FindSimilarAudiences(r.Context(), appMiddleware.UserID(r.Context()), query, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type exportRequest struct {
	Format string `json:"format"`
}

func (h *AudienceHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	url, err := h.exports.ExportAudience(r.Context(), appMiddleware.UserID(r.Context()),
		chi.URLParam(r, "audienceId"), req.Format)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
