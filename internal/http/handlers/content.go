package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"brandmind/internal/middleware"
	"brandmind/internal/providers/completion"
)

type generateContentRequest struct {
	BusinessName   string `json:"business_name"`
	TargetAudience string `json:"target_audience"`
	Topic          string `json:"topic"`
	Tone           string `json:"tone"`
}

type socialPostRequest struct {
	BusinessName string `json:"business_name"`
	Platform     string `json:"platform"`
	Topic        string `json:"topic"`
}

type adCopyRequest struct {
	BusinessName   string `json:"business_name"`
	Product        string `json:"product"`
	TargetAudience string `json:"target_audience"`
}

type ideasRequest struct {
	BusinessName string `json:"business_name"`
	Industry     string `json:"industry"`
	Count        int    `json:"count"`
}

// complete runs one completion call on behalf of the authenticated user,
// records usage and writes the generated text.
func (a *App) complete(w http.ResponseWriter, r *http.Request, feature, action string, msgs []completion.Message) {
	user := middleware.UserFromContext(r.Context())

	key := a.completionKey(r.Context(), user)
	if key == "" {
		a.error(w, r, http.StatusServiceUnavailable, "no_api_key")
		return
	}
	res, err := a.Completion.Chat(r.Context(), key, msgs, completion.Options{})
	if err != nil {
		var ue *completion.UpstreamError
		if errors.As(err, &ue) {
			a.Logger.Error().Int("status", ue.Status).Str("feature", feature).Msg("completion upstream error")
			a.error(w, r, http.StatusBadGateway, "upstream_error")
			return
		}
		a.Logger.Error().Err(err).Str("feature", feature).Msg("completion call failed")
		a.error(w, r, http.StatusBadGateway, "upstream_error")
		return
	}

	a.logUsage(r.Context(), user.ID, feature, action, res.TokensUsed)
	a.success(w, http.StatusOK, map[string]any{
		"content":     res.Text,
		"tokens_used": res.TokensUsed,
	})
}

// GenerateContent produces long-form marketing copy.
func (a *App) GenerateContent(w http.ResponseWriter, r *http.Request) {
	var req generateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	if strings.TrimSpace(req.BusinessName) == "" || strings.TrimSpace(req.Topic) == "" {
		a.errorMsg(w, http.StatusBadRequest, "bad_request", "business_name and topic required")
		return
	}
	if req.Tone == "" {
		req.Tone = "professional"
	}
	locale := middleware.LocaleFromContext(r.Context())
	msgs := completion.MarketingContentPrompt(req.BusinessName, req.TargetAudience, req.Topic, req.Tone, locale)
	a.complete(w, r, "content_generation", "generate", msgs)
}

// SocialPost produces a platform-specific post.
func (a *App) SocialPost(w http.ResponseWriter, r *http.Request) {
	var req socialPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	if strings.TrimSpace(req.BusinessName) == "" || strings.TrimSpace(req.Topic) == "" {
		a.errorMsg(w, http.StatusBadRequest, "bad_request", "business_name and topic required")
		return
	}
	if req.Platform == "" {
		req.Platform = "instagram"
	}
	locale := middleware.LocaleFromContext(r.Context())
	msgs := completion.SocialPostPrompt(req.BusinessName, req.Platform, req.Topic, locale)
	a.complete(w, r, "content_generation", "social_post", msgs)
}

// AdCopy produces short paid-ad variants. Gated on the ad_generator feature
// in the router.
func (a *App) AdCopy(w http.ResponseWriter, r *http.Request) {
	var req adCopyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	if strings.TrimSpace(req.BusinessName) == "" || strings.TrimSpace(req.Product) == "" {
		a.errorMsg(w, http.StatusBadRequest, "bad_request", "business_name and product required")
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	msgs := completion.AdCopyPrompt(req.BusinessName, req.Product, req.TargetAudience, locale)
	a.complete(w, r, "ad_generator", "ad_copy", msgs)
}

// ContentIdeas produces an ideation list.
func (a *App) ContentIdeas(w http.ResponseWriter, r *http.Request) {
	var req ideasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	if strings.TrimSpace(req.BusinessName) == "" {
		a.errorMsg(w, http.StatusBadRequest, "bad_request", "business_name required")
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	msgs := completion.IdeasPrompt(req.BusinessName, req.Industry, locale, req.Count)
	a.complete(w, r, "content_generation", "ideas", msgs)
}
