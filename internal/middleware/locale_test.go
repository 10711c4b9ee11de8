package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name           string
		xLocale        string
		acceptLanguage string
		fallback       string
		want           string
	}{
		{"x-locale english", "en", "", "ar", "en"},
		{"x-locale arabic", "ar", "", "en", "ar"},
		{"accept-language english", "", "en-US,en;q=0.9", "ar", "en"},
		{"accept-language arabic", "", "ar-SA", "en", "ar"},
		{"fallback wins when empty", "", "", "ar", "ar"},
		{"garbage falls back to default language", "zz-!!", "", "ar", "ar"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.xLocale != "" {
				req.Header.Set("X-Locale", tc.xLocale)
			}
			if tc.acceptLanguage != "" {
				req.Header.Set("Accept-Language", tc.acceptLanguage)
			}
			if got := detectLocale(req, tc.fallback); got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}
