package auth

import (
	"strings"
	"testing"
)

func TestNewAPIKeyFormat(t *testing.T) {
	key := NewAPIKey()
	if !strings.HasPrefix(key, "bm_live_") {
		t.Fatalf("NewAPIKey() = %q, want bm_live_ prefix", key)
	}
	if len(key) != len("bm_live_")+48 {
		t.Fatalf("NewAPIKey() length = %d, want %d", len(key), len("bm_live_")+48)
	}
	if NewAPIKey() == key {
		t.Fatalf("NewAPIKey() returned the same value twice")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token := NewRefreshToken("7f8a6c1e-1111-2222-3333-444455556666")
	userID, err := ParseRefreshToken(token)
	if err != nil {
		t.Fatalf("ParseRefreshToken() error: %v", err)
	}
	if userID != "7f8a6c1e-1111-2222-3333-444455556666" {
		t.Fatalf("ParseRefreshToken() = %q, want original user id", userID)
	}
}

func TestParseRefreshTokenRejectsMalformed(t *testing.T) {
	tests := []string{
		"",
		"rt_",
		"rt_onlyuser",
		"xx_user_abcdef",
		"not a token",
	}
	for _, tc := range tests {
		if _, err := ParseRefreshToken(tc); err == nil {
			t.Fatalf("ParseRefreshToken(%q) expected error", tc)
		}
	}
}
