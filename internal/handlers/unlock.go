package handlers

import (
	"net/http"
	"time"

	"github.com/focuspact/focuspact/internal/models"
	"github.com/focuspact/focuspact/internal/services"
	"github.com/focuspact/focuspact/internal/unlock"
	"github.com/focuspact/focuspact/pkg/clientip"
)

// RemoteUnlock handles the signed unlock link a coach triggers out-of-band.
// There is no session on this path; the link's signature is the credential.
// Every rejection looks the same to the caller, but the audit log records why.
func RemoteUnlock(w http.ResponseWriter, r *http.Request) {
	ip := clientip.RealClientIP(r)

	req, ok := unlock.Parse(r.URL.Query())
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid unlock link")
		return
	}

	if !unlock.Verify(req, sharedSecret, commandMaxAge) {
		services.RecordUnlockAttempt(req.TraineeID, req.CoachID, ip, services.UnlockOutcomeRefused, "bad_signature")
		writeError(w, http.StatusUnauthorized, "Invalid unlock link")
		return
	}

	settings, err := services.GetSettings(r.Context(), req.TraineeID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	switch err := unlock.Authorize(req, settings); err {
	case nil:
	case unlock.ErrNotCoach:
		services.RecordUnlockAttempt(req.TraineeID, req.CoachID, ip, services.UnlockOutcomeRefused, "not_a_coach")
		writeError(w, http.StatusUnauthorized, "Invalid unlock link")
		return
	case unlock.ErrHardMode:
		services.RecordUnlockAttempt(req.TraineeID, req.CoachID, ip, services.UnlockOutcomeRefused, "hard_mode")
		writeError(w, http.StatusForbidden, "This trainee cannot be unlocked remotely")
		return
	default:
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	if _, err := services.ApplyStatusPush(r.Context(), req.TraineeID, models.StatusAllClear, time.Now().Unix()); err != nil {
		http.Error(w, "Failed to apply unlock", http.StatusInternalServerError)
		return
	}

	services.RecordUnlockAttempt(req.TraineeID, req.CoachID, ip, services.UnlockOutcomeApplied, "")

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Unlock applied. The trainee's device will pick it up on next sync.",
	})
}
