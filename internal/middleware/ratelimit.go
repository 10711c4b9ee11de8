package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"brandmind/internal/adapter/kv"
)

// DailyQuota applies the per-user daily request budget. The limit comes from
// the caller's active subscription (api_calls_per_day), falling back to the
// configured default when no subscription exists. On counter-store failures
// the request is allowed: this gate alone fails open, by policy.
func DailyQuota(counter *kv.DailyCounter, subs SubscriptionSource, fallbackLimit int, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			limit := fallbackLimit
			sub, err := loadSubscription(r.Context(), subs, user.ID)
			if err != nil {
				logger.Error().Err(err).Str("user_id", user.ID).Msg("rate limit: subscription lookup failed")
			} else if sub != nil && sub.Limits.APICallsPerDay > 0 {
				limit = sub.Limits.APICallsPerDay
			}

			verdict, err := counter.CheckAndIncrement(r.Context(), user.ID, limit)
			if err != nil {
				logger.Error().Err(err).Str("user_id", user.ID).Msg("rate limit: counter store unavailable, allowing")
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(verdict.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(verdict.Remaining))
			w.Header().Set("X-RateLimit-Reset", verdict.ResetAt.Format(time.RFC3339))

			if !verdict.Allowed {
				deny(w, http.StatusTooManyRequests, "rate_limit_exceeded",
					"daily request limit reached", map[string]any{
						"limit":    verdict.Limit,
						"reset_at": verdict.ResetAt.Format(time.RFC3339),
					})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type bucket struct {
	count int
	until time.Time
}

// ipLimiter is a fixed-window counter keyed by client IP.
type ipLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	return &ipLimiter{limit: limit, window: window, buckets: make(map[string]*bucket)}
}

// allow consumes one slot for ip. Expired buckets are evicted whenever a
// window rolls over, so the map is bounded by clients seen in the current
// window rather than over the process lifetime.
func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[ip]
	if !ok || now.After(b.until) {
		for k, v := range l.buckets {
			if now.After(v.until) {
				delete(l.buckets, k)
			}
		}
		b = &bucket{until: now.Add(l.window)}
		l.buckets[ip] = b
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// PerIPRateLimit is an in-memory limiter keyed by client IP, used on the
// unauthenticated auth endpoints to slow down credential stuffing.
func PerIPRateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	limiter := newIPLimiter(limit, per)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(ClientIP(r), time.Now()) {
				deny(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests, slow down", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}
	return r.RemoteAddr
}
