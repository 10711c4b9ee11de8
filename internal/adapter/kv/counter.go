package kv

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Verdict is the outcome of a rate-limit consultation.
type Verdict struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// DailyCounter tracks per-user request counts for the current UTC day. The
// read-then-write sequence is not atomic; concurrent requests may undercount.
// That slack is accepted rather than papered over with a transaction.
type DailyCounter struct {
	client *redis.Client
	now    func() time.Time
}

const counterTTL = 24 * time.Hour

func NewDailyCounter(client *redis.Client) *DailyCounter {
	return &DailyCounter{client: client, now: time.Now}
}

// WithClock overrides the counter's clock, for tests.
func (c *DailyCounter) WithClock(now func() time.Time) *DailyCounter {
	c.now = now
	return c
}

func (c *DailyCounter) key(userID string, day time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%s", userID, day.UTC().Format("2006-01-02"))
}

// CheckAndIncrement consults and advances the user's daily counter. When the
// store is unreachable the request is allowed and the error returned for
// logging: availability wins over strict enforcement here, unlike every other
// gate in the pipeline.
func (c *DailyCounter) CheckAndIncrement(ctx context.Context, userID string, limit int) (Verdict, error) {
	now := c.now().UTC()
	resetAt := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	verdict := Verdict{Allowed: true, Limit: limit, Remaining: limit, ResetAt: resetAt}

	key := c.key(userID, now)
	current, err := c.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return verdict, fmt.Errorf("rate limit read: %w", err)
	}
	count := 0
	if err == nil {
		count, _ = strconv.Atoi(current)
	}

	if count >= limit {
		verdict.Allowed = false
		verdict.Remaining = 0
		return verdict, nil
	}

	// TTL runs 24h from the write rather than aligning to midnight; stale
	// keys for past days simply age out.
	if err := c.client.Set(ctx, key, strconv.Itoa(count+1), counterTTL).Err(); err != nil {
		return verdict, fmt.Errorf("rate limit write: %w", err)
	}

	verdict.Remaining = limit - count - 1
	return verdict, nil
}
