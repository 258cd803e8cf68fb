package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/focuspact/focuspact/internal/models"
	"github.com/focuspact/focuspact/internal/services"
)

// SettingsResponse is the envelope the device client and the app both decode.
type SettingsResponse struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message,omitempty"`
	Settings *models.UserSettings `json:"settings,omitempty"`
}

// GetSettings returns a settings document to its owner or one of their coaches.
func GetSettings(w http.ResponseWriter, r *http.Request) {
	callerID, ok := authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	uid := r.URL.Query().Get("uid")
	if uid == "" {
		uid = callerID
	}

	settings, err := services.GetSettings(r.Context(), uid)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	if uid != callerID && !settings.HasCoach(callerID) {
		writeError(w, http.StatusForbidden, "Not authorized for this trainee")
		return
	}

	writeJSON(w, http.StatusOK, SettingsResponse{Success: true, Settings: settings})
}

// PutSettings replaces the caller's settings document. The settings store is
// last-write-wins; the device merges before writing, so a full replace here
// is safe.
func PutSettings(w http.ResponseWriter, r *http.Request) {
	callerID, ok := authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var settings models.UserSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if settings.ID == "" {
		settings.ID = callerID
	}
	if settings.ID != callerID {
		writeError(w, http.StatusForbidden, "Cannot write another user's settings")
		return
	}

	if settings.Mode != "" && !models.ValidMode(settings.Mode) {
		writeError(w, http.StatusBadRequest, "Unknown mode")
		return
	}

	if err := services.UpsertSettings(r.Context(), &settings); err != nil {
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, SettingsResponse{Success: true, Message: "Settings saved", Settings: &settings})
}

// PatchSettings applies a partial edit to the caller's settings document.
// Used by the app for single-field changes (mode, threshold, app list).
func PatchSettings(w http.ResponseWriter, r *http.Request) {
	callerID, ok := authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var patch models.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if patch.Mode != nil && !models.ValidMode(*patch.Mode) {
		writeError(w, http.StatusBadRequest, "Unknown mode")
		return
	}

	settings, err := services.MergeSettings(r.Context(), callerID, patch)
	if err != nil {
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, SettingsResponse{Success: true, Message: "Settings saved", Settings: settings})
}
