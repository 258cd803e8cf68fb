package services

import (
	"log"
	"time"

	"github.com/focuspact/focuspact/internal/database"
)

// Unlock audit outcomes.
const (
	UnlockOutcomeApplied = "applied"
	UnlockOutcomeRefused = "refused"
)

// RecordUnlockAttempt stores one row per remote-unlock request, allowed or
// refused. Failures are logged and swallowed; auditing never blocks an unlock.
func RecordUnlockAttempt(traineeID, coachID, ipAddress, outcome, reason string) {
	_, err := database.PostgresDB.Exec(`
		INSERT INTO unlock_audit (trainee_id, coach_id, ip_address, outcome, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, traineeID, coachID, ipAddress, outcome, reason)
	if err != nil {
		log.Printf("failed to record unlock attempt: %v", err)
	}
}

// StartViolationCleanup periodically deletes old violation rows. Blocked IPs
// are kept; only the per-request noise is trimmed.
func StartViolationCleanup(intervalHours, maxAgeHours int) {
	go func() {
		ticker := time.NewTicker(time.Duration(intervalHours) * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-time.Duration(maxAgeHours) * time.Hour)
			if _, err := database.PostgresDB.Exec(`DELETE FROM violations WHERE created_at < $1`, cutoff); err != nil {
				log.Printf("violation cleanup failed: %v", err)
			}
		}
	}()
}

// RecordViolation records a rate-limit or abuse violation for admin visibility.
func RecordViolation(ipAddress, violationType, message, actionTaken string) error {
	_, err := database.PostgresDB.Exec(`
		INSERT INTO violations (ip_address, type, message, action_taken)
		VALUES ($1, $2, $3, $4)
	`, ipAddress, violationType, message, actionTaken)
	return err
}
