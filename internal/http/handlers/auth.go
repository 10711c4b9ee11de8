package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"brandmind/internal/auth"
	"brandmind/internal/domain"
	"brandmind/internal/middleware"

	"github.com/google/uuid"
)

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	TelegramUser string `json:"telegram_username"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type userDTO struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone,omitempty"`
	TelegramUser string     `json:"telegram_username,omitempty"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	IsVerified   bool       `json:"is_verified"`
	APIKey       string     `json:"api_key,omitempty"`
	Plan         string     `json:"plan"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type subscriptionDTO struct {
	Plan      string        `json:"plan"`
	Status    string        `json:"status"`
	Features  []string      `json:"features"`
	Limits    domain.Limits `json:"limits"`
	Price     int           `json:"price"`
	StartDate *time.Time    `json:"start_date,omitempty"`
	EndDate   *time.Time    `json:"end_date,omitempty"`
}

type tokenResponse struct {
	Token        string  `json:"token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    int     `json:"expires_in"`
	User         userDTO `json:"user"`
}

func toUserDTO(u *domain.User, sub *domain.Subscription) userDTO {
	plan := string(domain.PlanFree)
	if sub != nil {
		plan = string(sub.Plan)
	}
	return userDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		TelegramUser: u.TelegramUser,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		IsVerified:   u.IsVerified,
		APIKey:       u.APIKey,
		Plan:         plan,
		LastLogin:    u.LastLogin,
		CreatedAt:    u.CreatedAt,
	}
}

func toSubscriptionDTO(sub *domain.Subscription) *subscriptionDTO {
	if sub == nil {
		return nil
	}
	return &subscriptionDTO{
		Plan:      string(sub.Plan),
		Status:    string(sub.Status),
		Features:  sub.Features,
		Limits:    sub.Limits,
		Price:     sub.Price,
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
	}
}

// Register creates an inactive account with an API key and an inactive free
// subscription. Activation is an admin operation.
func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !auth.ValidEmail(req.Email) {
		a.error(w, r, http.StatusBadRequest, "invalid_email")
		return
	}
	if err := auth.CheckPasswordStrength(req.Password); err != nil {
		a.error(w, r, http.StatusBadRequest, "weak_password")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		a.errorMsg(w, http.StatusBadRequest, "bad_request", "name required")
		return
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: auth.HashPassword(req.Password),
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		TelegramUser: strings.TrimSpace(req.TelegramUser),
		Role:         domain.RoleUser,
		IsActive:     false,
		IsVerified:   false,
		APIKey:       auth.NewAPIKey(),
	}
	if err := a.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrEmailExists) {
			a.error(w, r, http.StatusConflict, "email_exists")
			return
		}
		a.Logger.Error().Err(err).Msg("create user failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	sub := &domain.Subscription{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Plan:     domain.PlanFree,
		Status:   domain.SubscriptionInactive,
		Features: domain.PlanFeatureSet(domain.PlanFree),
		Limits:   domain.PlanLimits(domain.PlanFree),
		Price:    domain.PlanPrice(domain.PlanFree),
	}
	if err := a.Subs.Create(r.Context(), sub); err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("create initial subscription failed")
	}

	a.successMsg(w, http.StatusCreated, "registration received, awaiting activation", toUserDTO(user, nil))
}

// Login verifies credentials and issues an access/refresh token pair. The
// refresh token is stored server-side so issuing a new one revokes the old.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := a.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		a.Logger.Error().Err(err).Msg("load user by email failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		a.error(w, r, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if !user.IsActive {
		a.error(w, r, http.StatusForbidden, "account_inactive")
		return
	}

	sub, err := a.activeSubscription(r.Context(), user.ID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("load subscription failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	plan := string(domain.PlanFree)
	if sub != nil {
		plan = string(sub.Plan)
	}

	token, err := a.Issuer.Issue(auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		Plan:   plan,
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("issue token failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	refresh := auth.NewRefreshToken(user.ID)
	if err := a.RefreshTokens.Put(r.Context(), user.ID, refresh, a.Cfg.RefreshTokenTTL); err != nil {
		a.Logger.Error().Err(err).Msg("store refresh token failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	if err := a.Users.TouchLastLogin(r.Context(), user.ID); err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("touch last login failed")
	}

	a.success(w, http.StatusOK, tokenResponse{
		Token:        token,
		RefreshToken: refresh,
		ExpiresIn:    int(a.Issuer.TTL().Seconds()),
		User:         toUserDTO(user, sub),
	})
}

// Refresh rotates a refresh token and issues a fresh access token. Only the
// most recently issued refresh token per user is valid.
func (a *App) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	userID, err := auth.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		a.error(w, r, http.StatusUnauthorized, "invalid_refresh_token")
		return
	}
	stored, err := a.RefreshTokens.Get(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("load refresh token failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	if stored == "" || stored != req.RefreshToken {
		a.error(w, r, http.StatusUnauthorized, "invalid_refresh_token")
		return
	}

	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil || !user.IsActive {
		a.error(w, r, http.StatusUnauthorized, "invalid_refresh_token")
		return
	}
	sub, err := a.activeSubscription(r.Context(), user.ID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("load subscription failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	plan := string(domain.PlanFree)
	if sub != nil {
		plan = string(sub.Plan)
	}

	token, err := a.Issuer.Issue(auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		Plan:   plan,
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("issue token failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	rotated := auth.NewRefreshToken(user.ID)
	if err := a.RefreshTokens.Put(r.Context(), user.ID, rotated, a.Cfg.RefreshTokenTTL); err != nil {
		a.Logger.Error().Err(err).Msg("rotate refresh token failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	a.success(w, http.StatusOK, tokenResponse{
		Token:        token,
		RefreshToken: rotated,
		ExpiresIn:    int(a.Issuer.TTL().Seconds()),
		User:         toUserDTO(user, sub),
	})
}

// Logout revokes the stored refresh token. The access token stays valid until
// expiry; it is stateless.
func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if err := a.RefreshTokens.Delete(r.Context(), user.ID); err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("delete refresh token failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.successMsg(w, http.StatusOK, "logged out", nil)
}

// Me returns the authenticated profile with its subscription.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	sub, err := a.activeSubscription(r.Context(), user.ID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("load subscription failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.success(w, http.StatusOK, map[string]any{
		"user":         toUserDTO(user, sub),
		"subscription": toSubscriptionDTO(sub),
	})
}

// ChangePassword verifies the current password before setting the new one.
func (a *App) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	if !auth.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		a.error(w, r, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if err := auth.CheckPasswordStrength(req.NewPassword); err != nil {
		a.error(w, r, http.StatusBadRequest, "weak_password")
		return
	}
	if err := a.Users.UpdatePassword(r.Context(), user.ID, auth.HashPassword(req.NewPassword)); err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("update password failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.successMsg(w, http.StatusOK, "password updated", nil)
}

// RegenerateAPIKey replaces the caller's API key. The old key stops working
// immediately.
func (a *App) RegenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	key := auth.NewAPIKey()
	if err := a.Users.UpdateAPIKey(r.Context(), user.ID, key); err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("update api key failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.success(w, http.StatusOK, map[string]string{"api_key": key})
}
