package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RefreshTokenStore keeps exactly one live refresh token per user in the
// expiring key-value store. Writing a new token overwrites the old one, which
// invalidates it without an explicit revocation step.
type RefreshTokenStore struct {
	client *redis.Client
}

func NewRefreshTokenStore(client *redis.Client) *RefreshTokenStore {
	return &RefreshTokenStore{client: client}
}

func refreshKey(userID string) string {
	return "refresh_token:" + userID
}

// Put stores the user's current refresh token with the given lifetime.
func (s *RefreshTokenStore) Put(ctx context.Context, userID, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKey(userID), token, ttl).Err(); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Get returns the stored token for the user, or "" when none exists.
func (s *RefreshTokenStore) Get(ctx context.Context, userID string) (string, error) {
	v, err := s.client.Get(ctx, refreshKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	return v, nil
}

// Delete removes the user's refresh token, ending the session.
func (s *RefreshTokenStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, refreshKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}
