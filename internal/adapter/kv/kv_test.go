package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRefreshTokenSingleValidity(t *testing.T) {
	_, client := newTestClient(t)
	store := NewRefreshTokenStore(client)
	ctx := context.Background()

	if err := store.Put(ctx, "user-1", "rt_user-1_aaaa", time.Hour); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := store.Put(ctx, "user-1", "rt_user-1_bbbb", time.Hour); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != "rt_user-1_bbbb" {
		t.Fatalf("Get() = %q, want the newest token", got)
	}
	// the first token no longer matches the stored value
	if got == "rt_user-1_aaaa" {
		t.Fatalf("old refresh token still live")
	}
}

func TestRefreshTokenDeleteAndMiss(t *testing.T) {
	_, client := newTestClient(t)
	store := NewRefreshTokenStore(client)
	ctx := context.Background()

	if got, err := store.Get(ctx, "missing"); err != nil || got != "" {
		t.Fatalf("Get(missing) = %q, %v, want empty", got, err)
	}
	if err := store.Put(ctx, "user-1", "rt_user-1_cccc", time.Hour); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if got, _ := store.Get(ctx, "user-1"); got != "" {
		t.Fatalf("Get() after delete = %q, want empty", got)
	}
}

func TestDailyCounterBoundary(t *testing.T) {
	_, client := newTestClient(t)
	counter := NewDailyCounter(client)
	ctx := context.Background()
	limit := 3

	for i := 1; i <= limit; i++ {
		v, err := counter.CheckAndIncrement(ctx, "user-1", limit)
		if err != nil {
			t.Fatalf("request %d: error %v", i, err)
		}
		if !v.Allowed {
			t.Fatalf("request %d of %d should be allowed", i, limit)
		}
		if v.Remaining != limit-i {
			t.Fatalf("request %d: remaining = %d, want %d", i, v.Remaining, limit-i)
		}
	}

	v, err := counter.CheckAndIncrement(ctx, "user-1", limit)
	if err != nil {
		t.Fatalf("over-limit request: error %v", err)
	}
	if v.Allowed {
		t.Fatalf("request %d should be denied", limit+1)
	}
	if v.Remaining != 0 {
		t.Fatalf("denied verdict remaining = %d, want 0", v.Remaining)
	}
	if !v.ResetAt.After(time.Now().UTC().Add(-time.Minute)) {
		t.Fatalf("ResetAt = %v, want a future reset", v.ResetAt)
	}
}

func TestDailyCounterIsolatesUsersAndDays(t *testing.T) {
	_, client := newTestClient(t)
	counter := NewDailyCounter(client)
	ctx := context.Background()

	if v, _ := counter.CheckAndIncrement(ctx, "user-1", 1); !v.Allowed {
		t.Fatalf("first request for user-1 should pass")
	}
	if v, _ := counter.CheckAndIncrement(ctx, "user-2", 1); !v.Allowed {
		t.Fatalf("user-2 must not share user-1's counter")
	}
	if v, _ := counter.CheckAndIncrement(ctx, "user-1", 1); v.Allowed {
		t.Fatalf("second request for user-1 should be denied")
	}

	// next day, the counter starts fresh under a new key
	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	counter.WithClock(func() time.Time { return tomorrow })
	if v, _ := counter.CheckAndIncrement(ctx, "user-1", 1); !v.Allowed {
		t.Fatalf("a new day should reset the counter")
	}
}

func TestDailyCounterFailsOpen(t *testing.T) {
	mr, client := newTestClient(t)
	counter := NewDailyCounter(client)
	ctx := context.Background()

	mr.Close()

	v, err := counter.CheckAndIncrement(ctx, "user-1", 1)
	if err == nil {
		t.Fatalf("expected an error from the closed store")
	}
	if !v.Allowed {
		t.Fatalf("counter must fail open when the store is down")
	}
}
