package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// GenerateSessionToken returns an opaque 256-bit random token encoded
// as hex. Session tokens are never derived from user data.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateUserID returns a new UUID string for a user record.
func GenerateUserID() string {
	return uuid.New().String()
}

// GenerateSessionID returns a new UUID string for a session row.
func GenerateSessionID() string {
	return uuid.New().String()
}
