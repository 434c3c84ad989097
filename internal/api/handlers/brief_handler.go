package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	appMiddleware "github.com/audiencelab-io/audiencelab/internal/api/middlewares"
	"github.com/audiencelab-io/audiencelab/internal/services"
)

const maxBriefSize = 20 << 20

type BriefHandler struct {
	briefs *services.BriefService
}

func NewBriefHandler(briefs *services.BriefService) *BriefHandler {
	return &BriefHandler{briefs: briefs}
}

// Upload accepts a multipart marketing brief, extracts its text and hands
// back the stored record so the client can prefill the audience form.
func (h *BriefHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBriefSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBriefSize))
	if err != nil {
		writeError(w, err)
		return
	}

	brief, err := h.briefs.Import(r.Context(), appMiddleware.UserID(r.Context()),
		header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, brief)
}

func (h *BriefHandler) List(w http.ResponseWriter, r *http.Request) {
	briefs, err := h.briefs.List(r.Context(), appMiddleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, briefs)
}

// Download streams the original uploaded document back as an attachment.
func (h *BriefHandler) Download(w http.ResponseWriter, r *http.Request) {
	rc, brief, err := h.briefs.Download(r.Context(), appMiddleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", brief.FileName))
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = io.Copy(w, rc)
}

func (h *BriefHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.briefs.Remove(r.Context(), appMiddleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
