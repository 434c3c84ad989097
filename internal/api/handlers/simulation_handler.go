package handlers

import (
	"net/http"

	appMiddleware "github.com/audiencelab-io/audiencelab/internal/api/middlewares"
	"github.com/audiencelab-io/audiencelab/internal/models"
	"github.com/audiencelab-io/audiencelab/internal/services"
)

type SimulationHandler struct {
	simulations *services.SimulationService
}

func NewSimulationHandler(simulations *services.SimulationService) *SimulationHandler {
	return &SimulationHandler{simulations: simulations}
}

type adSimulationRequest struct {
	AudienceID string             `json:"audienceId"`
	Variants   []models.AdVariant `json:"variants"`
}

func (h *SimulationHandler) SimulateAds(w http.ResponseWriter, r *http.Request) {
	var req adSimulationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.simulations.SimulateAdReactions(r.Context(), appMiddleware.UserID(r.Context()),
		req.AudienceID, req.Variants)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type keywordSimulationRequest struct {
	AudienceID      string `json:"audienceId"`
	AdvertisingGoal string `json:"advertisingGoal"`
}

func (h *SimulationHandler) SimulateKeywords(w http.ResponseWriter, r *http.Request) {
	var req keywordSimulationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.simulations.SimulateKeywords(r.Context(), appMiddleware.UserID(r.Context()),
		req.AudienceID, req.AdvertisingGoal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
