package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"unicode"
)

// HashPassword returns the hex SHA-256 digest of the password. The digest is
// deterministic and unsalted to stay compatible with credentials written by
// earlier deployments; see DESIGN.md before changing the construction.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword recomputes the digest and compares in constant time.
func VerifyPassword(password, digest string) bool {
	computed := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}

// CheckPasswordStrength enforces the registration password policy: at least 8
// characters with one upper-case letter, one lower-case letter and one digit.
func CheckPasswordStrength(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}

// ValidEmail performs a shape check on an email address.
func ValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.LastIndexByte(domain, '.')
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n") && strings.Count(email, "@") == 1
}
