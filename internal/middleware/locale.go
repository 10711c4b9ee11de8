package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

var supportedLocales = language.NewMatcher([]language.Tag{
	language.Arabic, // default product language
	language.English,
})

// Locale resolves the response language from X-Locale or Accept-Language and
// stores the normalized tag ("ar" or "en") in the request context.
func Locale(defaultLocale string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, defaultLocale)
			ctx := context.WithValue(r.Context(), localeKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback string) string {
	header := r.Header.Get("X-Locale")
	if header == "" {
		header = r.Header.Get("Accept-Language")
	}
	if header == "" {
		header = fallback
	}
	tag, _ := language.MatchStrings(supportedLocales, header)
	base, _ := tag.Base()
	if base.String() == "en" {
		return "en"
	}
	return "ar"
}

// LocaleFromContext returns the negotiated locale, defaulting to Arabic.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeKey).(string); ok {
		return v
	}
	return "ar"
}
