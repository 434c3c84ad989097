package handlers

import "net/http"

type SettingsHandler struct{}

func NewSettingsHandler() *SettingsHandler {
	return &SettingsHandler{}
}

type integration struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// Integrations lists the ad-platform connections shown on the settings
// page. All are placeholders until the platform OAuth flows ship.
func (h *SettingsHandler) Integrations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []integration{
		{ID: "google-ads", Name: "Google Ads", Connected: false},
		{ID: "meta-ads", Name: "Meta Ads", Connected: false},
		{ID: "linkedin-ads", Name: "LinkedIn Ads", Connected: false},
	})
}
