package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brandmind/internal/auth"
	"brandmind/internal/domain"
)

type fakeUserSource struct {
	byID     map[string]*domain.User
	byAPIKey map[string]*domain.User
}

func (f *fakeUserSource) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserSource) GetByAPIKey(_ context.Context, key string) (*domain.User, error) {
	if u, ok := f.byAPIKey[key]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

type fakeSubSource struct {
	subs map[string]*domain.Subscription
	err  error
}

func (f *fakeSubSource) GetActiveByUserID(_ context.Context, userID string) (*domain.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.subs[userID]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func okHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func testUser(id string, role domain.Role, active bool) *domain.User {
	return &domain.User{ID: id, Email: id + "@example.com", Role: role, IsActive: active, APIKey: "bm_live_" + id}
}

func TestAuthenticateBearer(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	users := &fakeUserSource{byID: map[string]*domain.User{
		"u1": testUser("u1", domain.RoleUser, true),
		"u2": testUser("u2", domain.RoleUser, false),
	}}
	mw := Authenticate(issuer, users)

	token := func(userID string) string {
		tok, err := issuer.Issue(auth.Claims{UserID: userID})
		if err != nil {
			t.Fatalf("Issue() error: %v", err)
		}
		return tok
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token("u1"), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"unknown user", "Bearer " + token("ghost"), http.StatusUnauthorized},
		{"inactive user", "Bearer " + token("u2"), http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			mw(okHandler(t, &called)).ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if (tc.wantStatus == http.StatusOK) != called {
				t.Fatalf("handler called = %v at status %d", called, rec.Code)
			}
		})
	}
}

func TestAuthenticateAPIKey(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	active := testUser("u1", domain.RoleUser, true)
	inactive := testUser("u2", domain.RoleUser, false)
	users := &fakeUserSource{byAPIKey: map[string]*domain.User{
		active.APIKey:   active,
		inactive.APIKey: inactive,
	}}

	var got *domain.User
	handler := Authenticate(issuer, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", active.APIKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || got == nil || got.ID != "u1" {
		t.Fatalf("api key auth failed: status %d user %+v", rec.Code, got)
	}

	for _, key := range []string{inactive.APIKey, "bm_live_bogus"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", key)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("key %q: status = %d, want 401", key, rec.Code)
		}
		if env := decodeEnvelope(t, rec); env["error"] != "invalid_api_key" {
			t.Fatalf("key %q: error = %v, want invalid_api_key", key, env["error"])
		}
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       domain.Role
		required   []domain.Role
		wantStatus int
	}{
		{"admin passes admin gate", domain.RoleAdmin, []domain.Role{domain.RoleAdmin}, http.StatusOK},
		{"user denied admin gate", domain.RoleUser, []domain.Role{domain.RoleAdmin}, http.StatusForbidden},
		{"superadmin passes any gate", domain.RoleSuperadmin, []domain.Role{domain.RoleUser}, http.StatusOK},
		{"admin denied superadmin gate", domain.RoleAdmin, []domain.Role{domain.RoleSuperadmin}, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(ContextWithUser(req.Context(), testUser("u1", tc.role, true)))
			rec := httptest.NewRecorder()
			RequireRole(tc.required...)(okHandler(t, &called)).ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}

	// unauthenticated request never reaches the role check
	rec := httptest.NewRecorder()
	var called bool
	RequireRole(domain.RoleUser)(okHandler(t, &called)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("missing user: status = %d, called = %v", rec.Code, called)
	}
}

func proSubscription(userID string) *domain.Subscription {
	return &domain.Subscription{
		UserID:   userID,
		Plan:     domain.PlanPro,
		Status:   domain.SubscriptionActive,
		Features: domain.PlanFeatureSet(domain.PlanPro),
		Limits:   domain.PlanLimits(domain.PlanPro),
	}
}

func TestRequirePlan(t *testing.T) {
	user := testUser("u1", domain.RoleUser, true)
	subs := &fakeSubSource{subs: map[string]*domain.Subscription{"u1": proSubscription("u1")}}

	run := func(subs SubscriptionSource, required ...domain.Plan) *httptest.ResponseRecorder {
		var called bool
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(ContextWithUser(req.Context(), user))
		rec := httptest.NewRecorder()
		RequirePlan(subs, required...)(okHandler(t, &called)).ServeHTTP(rec, req)
		return rec
	}

	if rec := run(subs, domain.PlanBasic); rec.Code != http.StatusOK {
		t.Fatalf("pro caller vs basic requirement: status = %d", rec.Code)
	}
	rec := run(subs, domain.PlanEnterprise)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("pro caller vs enterprise requirement: status = %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env["error"] != "upgrade_required" {
		t.Fatalf("error = %v, want upgrade_required", env["error"])
	}

	rec = run(&fakeSubSource{}, domain.PlanFree)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("no subscription: status = %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env["error"] != "no_subscription" {
		t.Fatalf("error = %v, want no_subscription", env["error"])
	}

	// store failures fail closed
	rec = run(&fakeSubSource{err: context.DeadlineExceeded}, domain.PlanFree)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("store error: status = %d, want 500", rec.Code)
	}
}

func TestRequireFeature(t *testing.T) {
	user := testUser("u1", domain.RoleUser, true)
	subs := &fakeSubSource{subs: map[string]*domain.Subscription{"u1": proSubscription("u1")}}

	run := func(subs SubscriptionSource, feature string) *httptest.ResponseRecorder {
		var called bool
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(ContextWithUser(req.Context(), user))
		rec := httptest.NewRecorder()
		RequireFeature(subs, feature)(okHandler(t, &called)).ServeHTTP(rec, req)
		return rec
	}

	if rec := run(subs, "ad_generator"); rec.Code != http.StatusOK {
		t.Fatalf("pro caller vs ad_generator: status = %d", rec.Code)
	}

	rec := run(subs, "white_label")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("pro caller vs white_label: status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env["error"] != "feature_not_available" {
		t.Fatalf("error = %v, want feature_not_available", env["error"])
	}
	if env["current_plan"] != "pro" {
		t.Fatalf("current_plan = %v, want pro", env["current_plan"])
	}

	if rec := run(&fakeSubSource{}, "ai_chat"); rec.Code != http.StatusForbidden {
		t.Fatalf("no subscription feature gate: status = %d", rec.Code)
	}
}
