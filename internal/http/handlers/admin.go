package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"brandmind/internal/auth"
	"brandmind/internal/domain"
	"brandmind/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type activateRequest struct {
	Plan         string `json:"plan"`
	DurationDays int    `json:"duration_days"`
	Notes        string `json:"notes"`
}

type upstreamKeyRequest struct {
	APIKey string `json:"api_key"`
}

type adminActionDTO struct {
	ID           string          `json:"id"`
	AdminID      string          `json:"admin_id"`
	ActionType   string          `json:"action_type"`
	TargetUserID string          `json:"target_user_id,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	IPAddress    string          `json:"ip_address,omitempty"`
	Country      string          `json:"country,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toActionDTO(a domain.AdminAction) adminActionDTO {
	return adminActionDTO{
		ID:           a.ID,
		AdminID:      a.AdminID,
		ActionType:   a.ActionType,
		TargetUserID: a.TargetUserID,
		Details:      a.Details,
		IPAddress:    a.IPAddress,
		Country:      a.Country,
		CreatedAt:    a.CreatedAt,
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// Dashboard aggregates user, subscription and plan counts for the admin home
// screen.
func (a *App) Dashboard(w http.ResponseWriter, r *http.Request) {
	total, active, pending, err := a.Users.CountByActive(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("count users failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	subTotal, subActive, err := a.Subs.CountByStatus(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("count subscriptions failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	dist, err := a.Subs.PlanDistribution(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("plan distribution failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	plans := make(map[string]int, len(dist))
	revenue := 0
	for plan, n := range dist {
		plans[string(plan)] = n
		revenue += domain.PlanPrice(plan) * n
	}
	a.success(w, http.StatusOK, map[string]any{
		"users": map[string]int{
			"total":   total,
			"active":  active,
			"pending": pending,
		},
		"subscriptions": map[string]int{
			"total":  subTotal,
			"active": subActive,
		},
		"plan_distribution": plans,
		"monthly_revenue":   revenue,
	})
}

// ListUsers returns a filtered, paginated user listing.
func (a *App) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := domain.UserFilter{
		Status: r.URL.Query().Get("status"),
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
	}
	users, total, err := a.Users.List(r.Context(), filter)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list users failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	items := make([]userDTO, 0, len(users))
	for i := range users {
		items = append(items, toUserDTO(&users[i], nil))
	}
	a.success(w, http.StatusOK, map[string]any{
		"users": items,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// GetUser returns one user with subscription, usage stats and recent audit
// entries.
func (a *App) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := a.Users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found")
			return
		}
		a.Logger.Error().Err(err).Msg("load user failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	sub, err := a.activeSubscription(r.Context(), id)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load subscription failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	stats, err := a.Usage.StatsByUser(r.Context(), id)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load usage stats failed")
		stats = nil
	}
	actions, err := a.Actions.ListByTarget(r.Context(), id, 20)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load audit entries failed")
		actions = nil
	}
	actionDTOs := make([]adminActionDTO, 0, len(actions))
	for _, act := range actions {
		actionDTOs = append(actionDTOs, toActionDTO(act))
	}
	a.success(w, http.StatusOK, map[string]any{
		"user":          toUserDTO(user, sub),
		"subscription":  toSubscriptionDTO(sub),
		"usage":         stats,
		"admin_actions": actionDTOs,
	})
}

// ActivateUser marks the account active and installs a subscription for the
// requested plan. The user row is updated first, then the subscription row is
// replaced; re-running converges to the same state.
func (a *App) ActivateUser(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	plan, err := domain.ParsePlan(req.Plan)
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "invalid_plan")
		return
	}
	if req.DurationDays <= 0 {
		req.DurationDays = 30
	}

	user, err := a.Users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found")
			return
		}
		a.Logger.Error().Err(err).Msg("load user failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	if err := a.Users.SetActive(r.Context(), id, true, true); err != nil {
		a.Logger.Error().Err(err).Msg("activate user failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	start := time.Now().UTC()
	end := start.AddDate(0, 0, req.DurationDays)
	sub := &domain.Subscription{
		ID:               uuid.NewString(),
		UserID:           id,
		Plan:             plan,
		Status:           domain.SubscriptionActive,
		Features:         domain.PlanFeatureSet(plan),
		Limits:           domain.PlanLimits(plan),
		Price:            domain.PlanPrice(plan),
		BillingCycle:     "monthly",
		ActivatedBy:      admin.ID,
		ActivationMethod: domain.ActivationManual,
		StartDate:        &start,
		EndDate:          &end,
		Notes:            req.Notes,
	}
	if err := a.Subs.Replace(r.Context(), sub); err != nil {
		a.Logger.Error().Err(err).Msg("replace subscription failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	a.audit(r, admin, "activate_user", id, map[string]any{
		"plan":          string(plan),
		"duration_days": req.DurationDays,
		"email":         user.Email,
	})
	a.successMsg(w, http.StatusOK, "user activated", map[string]any{
		"user_id":  id,
		"plan":     string(plan),
		"end_date": end,
	})
}

// DeactivateUser suspends the account and cancels its subscription.
func (a *App) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	user, err := a.Users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found")
			return
		}
		a.Logger.Error().Err(err).Msg("load user failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	if err := a.Users.SetActive(r.Context(), id, false, user.IsVerified); err != nil {
		a.Logger.Error().Err(err).Msg("deactivate user failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	if err := a.Subs.SetStatus(r.Context(), id, domain.SubscriptionCancelled); err != nil && !errors.Is(err, domain.ErrNotFound) {
		a.Logger.Error().Err(err).Msg("cancel subscription failed")
	}
	if err := a.RefreshTokens.Delete(r.Context(), id); err != nil {
		a.Logger.Error().Err(err).Msg("revoke refresh token failed")
	}

	a.audit(r, admin, "deactivate_user", id, map[string]any{"email": user.Email})
	a.successMsg(w, http.StatusOK, "user deactivated", nil)
}

// SetUpstreamKey installs a per-user completion credential. The key value is
// not written to the audit log.
func (a *App) SetUpstreamKey(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req upstreamKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	if err := a.Users.UpdateUpstreamKey(r.Context(), id, strings.TrimSpace(req.APIKey)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found")
			return
		}
		a.Logger.Error().Err(err).Msg("update upstream key failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	a.audit(r, admin, "set_upstream_key", id, map[string]any{
		"cleared": strings.TrimSpace(req.APIKey) == "",
	})
	a.successMsg(w, http.StatusOK, "upstream key updated", nil)
}

// RegenerateUserKey rotates another user's API key on their behalf.
func (a *App) RegenerateUserKey(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	key := auth.NewAPIKey()
	if err := a.Users.UpdateAPIKey(r.Context(), id, key); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found")
			return
		}
		a.Logger.Error().Err(err).Msg("update api key failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	a.audit(r, admin, "regenerate_api_key", id, nil)
	a.success(w, http.StatusOK, map[string]string{"api_key": key})
}

// ChangeSubscription replaces the user's subscription without touching the
// account's active flag.
func (a *App) ChangeSubscription(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	plan, err := domain.ParsePlan(req.Plan)
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "invalid_plan")
		return
	}
	if req.DurationDays <= 0 {
		req.DurationDays = 30
	}
	if _, err := a.Users.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found")
			return
		}
		a.Logger.Error().Err(err).Msg("load user failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	start := time.Now().UTC()
	end := start.AddDate(0, 0, req.DurationDays)
	sub := &domain.Subscription{
		ID:               uuid.NewString(),
		UserID:           id,
		Plan:             plan,
		Status:           domain.SubscriptionActive,
		Features:         domain.PlanFeatureSet(plan),
		Limits:           domain.PlanLimits(plan),
		Price:            domain.PlanPrice(plan),
		BillingCycle:     "monthly",
		ActivatedBy:      admin.ID,
		ActivationMethod: domain.ActivationManual,
		StartDate:        &start,
		EndDate:          &end,
		Notes:            req.Notes,
	}
	if err := a.Subs.Replace(r.Context(), sub); err != nil {
		a.Logger.Error().Err(err).Msg("replace subscription failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	a.audit(r, admin, "change_subscription", id, map[string]any{
		"plan":          string(plan),
		"duration_days": req.DurationDays,
	})
	a.successMsg(w, http.StatusOK, "subscription updated", map[string]any{
		"plan":     string(plan),
		"end_date": end,
	})
}

// ListActions returns the paginated audit log.
func (a *App) ListActions(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 50)
	actions, total, err := a.Actions.List(r.Context(), page, limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list audit entries failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	items := make([]adminActionDTO, 0, len(actions))
	for _, act := range actions {
		items = append(items, toActionDTO(act))
	}
	a.success(w, http.StatusOK, map[string]any{
		"actions": items,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// GetSettings returns all system settings with secret values masked.
func (a *App) GetSettings(w http.ResponseWriter, r *http.Request) {
	all, err := a.Settings.All(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("load settings failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	masked := make(map[string]string, len(all))
	for k, v := range all {
		if strings.Contains(k, "key") || strings.Contains(k, "secret") {
			masked[k] = maskSecret(v)
			continue
		}
		masked[k] = v
	}
	a.success(w, http.StatusOK, masked)
}

// UpdateSettings writes system settings. Restricted to superadmin in the
// router.
func (a *App) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromContext(r.Context())

	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	if len(req) == 0 {
		a.errorMsg(w, http.StatusBadRequest, "bad_request", "no settings provided")
		return
	}
	keys := make([]string, 0, len(req))
	for k, v := range req {
		if err := a.Settings.Set(r.Context(), k, v); err != nil {
			a.Logger.Error().Err(err).Str("key", k).Msg("save setting failed")
			a.error(w, r, http.StatusInternalServerError, "internal")
			return
		}
		keys = append(keys, k)
	}

	a.audit(r, admin, "update_settings", "", map[string]any{"keys": keys})
	a.successMsg(w, http.StatusOK, "settings updated", nil)
}

func maskSecret(v string) string {
	if len(v) <= 8 {
		return "********"
	}
	return v[:4] + "..." + v[len(v)-4:]
}
