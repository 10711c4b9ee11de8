package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	apiKeyTag       = "bm_live"
	refreshTokenTag = "rt"
)

// NewAPIKey generates an opaque long-lived API key: the live-key tag followed
// by 24 random bytes in hex.
func NewAPIKey() string {
	return fmt.Sprintf("%s_%s", apiKeyTag, randomHex(24))
}

// NewRefreshToken generates an opaque refresh token bound to a user identity.
// The token is not cryptographically verifiable; validity is solely "matches
// the value currently stored for that user".
func NewRefreshToken(userID string) string {
	return fmt.Sprintf("%s_%s_%s", refreshTokenTag, userID, randomHex(32))
}

// ParseRefreshToken extracts the user id from a refresh token, rejecting
// malformed input.
func ParseRefreshToken(token string) (string, error) {
	parts := strings.Split(token, "_")
	if len(parts) < 3 || parts[0] != refreshTokenTag {
		return "", ErrInvalidToken
	}
	userID := strings.Join(parts[1:len(parts)-1], "_")
	if userID == "" || parts[len(parts)-1] == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
