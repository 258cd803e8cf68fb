package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/focuspact/focuspact/internal/relationship"
	"github.com/focuspact/focuspact/internal/services"
)

// Package-level wiring, set once from routes.SetupRoutes before the server
// starts taking traffic.
var (
	sharedSecret  []byte
	commandMaxAge time.Duration
	relationships *relationship.Machine
)

// Configure injects the shared command secret, the replay window and the
// relationship machine into the handler set.
func Configure(secret string, maxAge time.Duration, rel *relationship.Machine) {
	sharedSecret = []byte(secret)
	commandMaxAge = maxAge
	relationships = rel
}

// Response is the standard JSON envelope.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}

// extractBearerToken pulls the session token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// authenticate resolves the calling user from the bearer session token.
// Returns the uid and whether the session is valid.
func authenticate(r *http.Request) (string, bool) {
	token := extractBearerToken(r)
	if token == "" {
		return "", false
	}
	userID, valid, err := services.ValidateSession(token)
	if err != nil || !valid {
		return "", false
	}
	return userID.String(), true
}
