package httpapi

import (
	"net/http"
	"time"

	"brandmind/internal/domain"
	"brandmind/internal/http/handlers"
	"brandmind/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires the full route tree. Gate order on protected routes is
// authenticate, then role, then plan or feature, then the daily quota.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Cfg.CORSOrigins),
		middleware.Locale(app.Cfg.DefaultLocale),
	)

	authn := middleware.Authenticate(app.Issuer, app.Users)
	adminOnly := middleware.RequireRole(domain.RoleAdmin, domain.RoleSuperadmin)
	superadminOnly := middleware.RequireRole(domain.RoleSuperadmin)
	quota := middleware.DailyQuota(app.Counter, app.Subs, app.Cfg.DefaultDailyLimit, app.Logger)
	loginLimit := middleware.PerIPRateLimit(app.Cfg.LoginRatePerMin, time.Minute)

	r.Get("/v1/healthz", app.Health)
	r.Get("/api/plans", app.ListPlans)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(loginLimit)
			r.Post("/register", app.Register)
			r.Post("/login", app.Login)
			r.Post("/refresh", app.Refresh)
		})
		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/logout", app.Logout)
			r.Get("/me", app.Me)
			r.Put("/change-password", app.ChangePassword)
			r.Post("/regenerate-api-key", app.RegenerateAPIKey)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authn, adminOnly)
		r.Get("/dashboard", app.Dashboard)
		r.Get("/users", app.ListUsers)
		r.Get("/users/{id}", app.GetUser)
		r.Post("/users/{id}/activate", app.ActivateUser)
		r.Post("/users/{id}/deactivate", app.DeactivateUser)
		r.Put("/users/{id}/upstream-key", app.SetUpstreamKey)
		r.Post("/users/{id}/regenerate-api-key", app.RegenerateUserKey)
		r.Put("/users/{id}/subscription", app.ChangeSubscription)
		r.Get("/actions", app.ListActions)
		r.Get("/settings", app.GetSettings)
		r.With(superadminOnly).Put("/settings", app.UpdateSettings)
	})

	r.Route("/api/content", func(r chi.Router) {
		r.Use(authn)
		r.With(middleware.RequireFeature(app.Subs, "content_generation"), quota).
			Post("/generate", app.GenerateContent)
		r.With(middleware.RequireFeature(app.Subs, "content_generation"), quota).
			Post("/social-post", app.SocialPost)
		r.With(middleware.RequireFeature(app.Subs, "ad_generator"), quota).
			Post("/ad-copy", app.AdCopy)
		r.With(middleware.RequireFeature(app.Subs, "content_generation"), quota).
			Post("/ideas", app.ContentIdeas)
	})

	r.Route("/api/chat", func(r chi.Router) {
		r.Use(authn)
		r.With(middleware.RequireFeature(app.Subs, "ai_chat"), quota).
			Post("/message", app.ChatMessage)
	})

	return r
}
