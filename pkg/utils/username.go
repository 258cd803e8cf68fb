package utils

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidationError carries the field a validation failed on.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateUsername checks the format rules: 3-20 characters, letters, numbers
// and underscores only, starting with a letter or number.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return &ValidationError{Field: "username", Message: "Username must be 3-20 characters"}
	}

	if !usernameRegex.MatchString(username) {
		return &ValidationError{Field: "username", Message: "Username can only contain letters, numbers, and underscores"}
	}

	first := rune(username[0])
	if !unicode.IsLetter(first) && !unicode.IsNumber(first) {
		return &ValidationError{Field: "username", Message: "Username must start with a letter or number"}
	}

	return nil
}

// NormalizeUsername converts a username to its canonical stored form.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
