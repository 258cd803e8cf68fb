package services

import (
	"database/sql"
	"strings"

	"github.com/focuspact/focuspact/internal/database"
	"github.com/google/uuid"
)

// CreateUser inserts a new account and returns its ID.
func CreateUser(username, passwordHash string) (uuid.UUID, error) {
	var id uuid.UUID
	err := database.PostgresDB.QueryRow(`
		INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id
	`, username, passwordHash).Scan(&id)
	return id, err
}

// GetCredentialsByUsername returns the user ID and password hash for sign-in.
// Returns uuid.Nil with no error when the account does not exist.
func GetCredentialsByUsername(username string) (uuid.UUID, string, error) {
	var id uuid.UUID
	var hash string
	err := database.PostgresDB.QueryRow(`
		SELECT id, password_hash FROM users WHERE LOWER(username) = $1 AND is_active = TRUE
	`, strings.ToLower(username)).Scan(&id, &hash)

	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, "", nil
		}
		return uuid.Nil, "", err
	}

	return id, hash, nil
}

// GetUsernameByID retrieves username by user ID.
func GetUsernameByID(userID string) (string, error) {
	parsedID, err := uuid.Parse(userID)
	if err != nil {
		return "", err
	}

	var username string
	err = database.PostgresDB.QueryRow(`
		SELECT username FROM users WHERE id = $1 AND is_active = TRUE
	`, parsedID).Scan(&username)

	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil // User not found or inactive
		}
		return "", err
	}

	return username, nil
}

// GetUserIDByUsername retrieves user ID by username.
func GetUserIDByUsername(username string) (string, error) {
	var userID uuid.UUID
	err := database.PostgresDB.QueryRow(`
		SELECT id FROM users WHERE LOWER(username) = $1 AND is_active = TRUE
	`, strings.ToLower(username)).Scan(&userID)

	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}

	return userID.String(), nil
}
