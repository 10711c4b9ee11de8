package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"brandmind/internal/adapter/kv"
	"brandmind/internal/auth"
	"brandmind/internal/domain"
	"brandmind/internal/infra"
	"brandmind/internal/infra/geoip"
	"brandmind/internal/middleware"
	"brandmind/internal/providers/completion"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SettingKeyUpstreamAPIKey is the system settings entry holding the shared
// completion credential used when a user has no key of their own.
const SettingKeyUpstreamAPIKey = "upstream_api_key"

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Users    domain.UserRepository
	Subs     domain.SubscriptionRepository
	Actions  domain.AdminActionRepository
	Usage    domain.UsageRepository
	Settings domain.SettingsRepository

	RefreshTokens *kv.RefreshTokenStore
	Counter       *kv.DailyCounter

	Issuer     *auth.Issuer
	Completion *completion.Client
	Geo        *geoip.Resolver

	Logger zerolog.Logger
	Cfg    *infra.Config
}

// activeSubscription loads the user's active subscription, mapping "none" to
// nil instead of an error.
func (a *App) activeSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := a.Subs.GetActiveByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return sub, err
}

// completionKey picks the upstream credential for a call: the user's own key
// first, then the shared key from system settings, then the configured one.
func (a *App) completionKey(ctx context.Context, user *domain.User) string {
	if key := strings.TrimSpace(user.UpstreamKey); key != "" {
		return key
	}
	if key, err := a.Settings.Get(ctx, SettingKeyUpstreamAPIKey); err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		a.Logger.Error().Err(err).Msg("load upstream key setting failed")
	}
	return strings.TrimSpace(a.Cfg.UpstreamAPIKey)
}

// audit records a privileged operation with the admin's IP and, when the
// GeoIP database is available, their country. Failures are logged, not
// surfaced: the admin operation itself already succeeded.
func (a *App) audit(r *http.Request, admin *domain.User, actionType, targetUserID string, details any) {
	var raw json.RawMessage
	if details != nil {
		raw, _ = json.Marshal(details)
	}
	ip := middleware.ClientIP(r)
	action := &domain.AdminAction{
		ID:           uuid.NewString(),
		AdminID:      admin.ID,
		ActionType:   actionType,
		TargetUserID: targetUserID,
		Details:      raw,
		IPAddress:    ip,
		Country:      a.Geo.CountryCode(ip),
	}
	if err := a.Actions.Insert(r.Context(), action); err != nil {
		a.Logger.Error().Err(err).Str("action", actionType).Msg("audit insert failed")
	}
}

// logUsage records a metered completion call. Best effort.
func (a *App) logUsage(ctx context.Context, userID, feature, action string, tokens int) {
	event := &domain.UsageEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		Feature:    feature,
		Action:     action,
		APICalls:   1,
		TokensUsed: tokens,
	}
	if err := a.Usage.Insert(ctx, event); err != nil {
		a.Logger.Error().Err(err).Str("feature", feature).Msg("usage insert failed")
	}
}
