package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"brandmind/internal/domain"
)

// SettingsRepositoryPG implements domain.SettingsRepository backed by PostgreSQL.
type SettingsRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a new SettingsRepositoryPG.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepositoryPG {
	return &SettingsRepositoryPG{pool: pool}
}

// Get returns the value stored under key, or ErrNotFound.
func (r *SettingsRepositoryPG) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM system_settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// Set upserts a setting.
func (r *SettingsRepositoryPG) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO system_settings (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW();
`, key, value)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// All returns every setting as a map.
func (r *SettingsRepositoryPG) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM system_settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
