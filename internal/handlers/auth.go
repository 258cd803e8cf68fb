package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/focuspact/focuspact/internal/models"
	"github.com/focuspact/focuspact/internal/services"
	"github.com/focuspact/focuspact/pkg/utils"
	"github.com/google/uuid"
)

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse returns the session token and anonymous profile data.
type AuthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Token   string                 `json:"token,omitempty"`
	User    map[string]interface{} `json:"user,omitempty"`
}

// Signup handles user registration.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Validate username
	if err := utils.ValidateUsername(req.Username); err != nil {
		writeJSON(w, http.StatusBadRequest, AuthResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	// Validate password
	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, AuthResponse{
			Success: false,
			Message: "Password must be at least 8 characters",
		})
		return
	}

	normalizedUsername := utils.NormalizeUsername(req.Username)

	// Check if username already exists
	existingID, err := services.GetUserIDByUsername(normalizedUsername)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if existingID != "" {
		writeJSON(w, http.StatusConflict, AuthResponse{
			Success: false,
			Message: "Username is already taken",
		})
		return
	}

	// Hash password
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	userID, err := services.CreateUser(normalizedUsername, hashedPassword)
	if err != nil {
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	// Seed the settings document so the first device sync has something to
	// merge into.
	if err := services.UpsertSettings(r.Context(), models.DefaultSettings(userID.String())); err != nil {
		http.Error(w, "Failed to initialize settings", http.StatusInternalServerError)
		return
	}

	token, err := services.CreateSession(userID)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created successfully",
		Token:   token,
		User: map[string]interface{}{
			"id":       userID.String(),
			"username": normalizedUsername,
		},
	})
}

// Signin handles user login.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	normalizedUsername := utils.NormalizeUsername(req.Username)

	userID, passwordHash, err := services.GetCredentialsByUsername(normalizedUsername)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if userID == uuid.Nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	valid, err := utils.VerifyPassword(req.Password, passwordHash)
	if err != nil || !valid {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token, err := services.CreateSession(userID)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User: map[string]interface{}{
			"id":       userID.String(),
			"username": normalizedUsername,
		},
	})
}

// Signout invalidates the caller's session.
func Signout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := services.InvalidateSession(token); err != nil {
		http.Error(w, "Failed to sign out", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Signed out"})
}

// Me returns the authenticated user's profile.
func Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	username, err := services.GetUsernameByID(uid)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"id":       uid,
			"username": username,
		},
	})
}
