package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/focuspact/focuspact/internal/models"
	"github.com/focuspact/focuspact/internal/services"
	"github.com/focuspact/focuspact/internal/signedcmd"
)

// StatusPushRequest is the body a trainee's device posts when its status
// changes. The signature covers uid|status|ts with the shared secret.
type StatusPushRequest struct {
	UID    string `json:"uid"`
	Status string `json:"status"`
	TS     int64  `json:"ts"`
	Sig    string `json:"sig"`
}

// PushStatus ingests a signed status push from a device. Device pushes are
// not session-authenticated; the HMAC signature is the credential.
func PushStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.UID == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "uid and status are required")
		return
	}

	fields := []string{req.UID, req.Status, strconv.FormatInt(req.TS, 10)}
	if !signedcmd.Verify(fields, req.Sig, sharedSecret, commandMaxAge) {
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	status := models.TraineeStatus(req.Status)
	if !models.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "Unknown status")
		return
	}

	applied, err := services.ApplyStatusPush(r.Context(), req.UID, status, req.TS)
	if err != nil {
		http.Error(w, "Failed to store status", http.StatusInternalServerError)
		return
	}

	message := "Status recorded"
	if !applied {
		// A newer push already landed; the stale one is acknowledged but dropped.
		message = "Stale push ignored"
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    map[string]interface{}{"applied": applied},
	})
}

// GetStatus returns a trainee's current status to an authorized coach (or the
// trainee itself).
func GetStatus(w http.ResponseWriter, r *http.Request) {
	callerID, ok := authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	uid := r.URL.Query().Get("uid")
	if uid == "" {
		uid = callerID
	}

	if uid != callerID {
		settings, err := services.GetSettings(r.Context(), uid)
		if err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		if !settings.HasCoach(callerID) {
			writeError(w, http.StatusForbidden, "Not authorized for this trainee")
			return
		}
	}

	status, err := services.CachedStatus(r.Context(), uid)
	if err != nil {
		http.Error(w, "Failed to load status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]interface{}{"uid": uid, "status": status},
	})
}
