package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"brandmind/internal/adapter/kv"
	"brandmind/internal/domain"
)

func newCounter(t *testing.T) (*miniredis.Miniredis, *kv.DailyCounter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, kv.NewDailyCounter(client)
}

func TestDailyQuotaBoundary(t *testing.T) {
	_, counter := newCounter(t)
	user := testUser("u1", domain.RoleUser, true)
	sub := proSubscription("u1")
	sub.Limits.APICallsPerDay = 2
	subs := &fakeSubSource{subs: map[string]*domain.Subscription{"u1": sub}}

	mw := DailyQuota(counter, subs, 50, zerolog.Nop())
	request := func() *httptest.ResponseRecorder {
		var called bool
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(ContextWithUser(req.Context(), user))
		rec := httptest.NewRecorder()
		mw(okHandler(t, &called)).ServeHTTP(rec, req)
		return rec
	}

	first := request()
	if first.Code != http.StatusOK {
		t.Fatalf("request 1: status = %d", first.Code)
	}
	if got := first.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Fatalf("request 1: remaining header = %q, want 1", got)
	}

	if rec := request(); rec.Code != http.StatusOK {
		t.Fatalf("request 2 (limit): status = %d", rec.Code)
	}

	over := request()
	if over.Code != http.StatusTooManyRequests {
		t.Fatalf("request 3: status = %d, want 429", over.Code)
	}
	env := decodeEnvelope(t, over)
	if env["error"] != "rate_limit_exceeded" {
		t.Fatalf("error = %v, want rate_limit_exceeded", env["error"])
	}
	reset, err := time.Parse(time.RFC3339, over.Header().Get("X-RateLimit-Reset"))
	if err != nil {
		t.Fatalf("reset header: %v", err)
	}
	if !reset.After(time.Now().UTC()) {
		t.Fatalf("reset %v should be in the future", reset)
	}
}

func TestDailyQuotaFallbackLimitWithoutSubscription(t *testing.T) {
	_, counter := newCounter(t)
	user := testUser("u1", domain.RoleUser, true)
	mw := DailyQuota(counter, &fakeSubSource{}, 1, zerolog.Nop())

	var called bool
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(ContextWithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	mw(okHandler(t, &called)).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request under fallback limit: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mw(okHandler(t, &called)).ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request over fallback limit: status = %d", rec.Code)
	}
}

func TestDailyQuotaFailsOpenOnStoreError(t *testing.T) {
	mr, counter := newCounter(t)
	user := testUser("u1", domain.RoleUser, true)
	mw := DailyQuota(counter, &fakeSubSource{}, 1, zerolog.Nop())

	mr.Close()

	var called bool
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(ContextWithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	mw(okHandler(t, &called)).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("store outage must fail open: status = %d, called = %v", rec.Code, called)
	}
}

func TestPerIPRateLimit(t *testing.T) {
	mw := PerIPRateLimit(2, time.Minute)
	request := func(addr string) int {
		var called bool
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		mw(okHandler(t, &called)).ServeHTTP(rec, req)
		return rec.Code
	}

	if request("198.51.100.10:1234") != http.StatusOK {
		t.Fatalf("request 1 should pass")
	}
	if request("198.51.100.10:1234") != http.StatusOK {
		t.Fatalf("request 2 should pass")
	}
	if request("198.51.100.10:1234") != http.StatusTooManyRequests {
		t.Fatalf("request 3 should be limited")
	}
	// other clients are unaffected
	if request("203.0.113.7:4321") != http.StatusOK {
		t.Fatalf("separate ip should pass")
	}
}

func TestIPLimiterEvictsExpiredBuckets(t *testing.T) {
	l := newIPLimiter(1, time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, ip := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		if !l.allow(ip, now) {
			t.Fatalf("first request from %s should pass", ip)
		}
	}
	if len(l.buckets) != 3 {
		t.Fatalf("buckets = %d, want 3", len(l.buckets))
	}

	later := now.Add(2 * time.Minute)
	if !l.allow("198.51.100.9", later) {
		t.Fatal("request after window should pass")
	}
	if len(l.buckets) != 1 {
		t.Fatalf("buckets after eviction = %d, want 1", len(l.buckets))
	}
	if _, ok := l.buckets["198.51.100.9"]; !ok {
		t.Fatal("current client's bucket should survive eviction")
	}

	// an expired bucket for the same ip resets instead of carrying its count
	if !l.allow("198.51.100.9", later.Add(2*time.Minute)) {
		t.Fatal("new window should reset the count")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		remoteAddr string
		want       string
	}{
		{"single ip", "203.0.113.1", "198.51.100.10:1234", "203.0.113.1"},
		{"multiple ips use first", " 203.0.113.1 , 198.51.100.2 ", "198.51.100.10:1234", "203.0.113.1"},
		{"invalid forwarded falls back", "invalid", "198.51.100.10:1234", "198.51.100.10"},
		{"empty forwarded uses remote host", "", "198.51.100.10:1234", "198.51.100.10"},
		{"ipv6 forwarded", "2001:db8::1", net.JoinHostPort("2001:db8::2", "443"), "2001:db8::1"},
		{"remote without port", "invalid", "203.0.113.1", "203.0.113.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.header != "" {
				req.Header.Set("X-Forwarded-For", tc.header)
			}
			if got := ClientIP(req); got != tc.want {
				t.Fatalf("ClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}
