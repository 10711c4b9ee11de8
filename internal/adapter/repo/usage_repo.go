package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"brandmind/internal/domain"
)

// UsageRepositoryPG implements domain.UsageRepository backed by PostgreSQL.
type UsageRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUsageRepository creates a new UsageRepositoryPG.
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepositoryPG {
	return &UsageRepositoryPG{pool: pool}
}

// Insert records one metered call.
func (r *UsageRepositoryPG) Insert(ctx context.Context, event *domain.UsageEvent) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO usage_logs (id, user_id, feature, action, api_calls, tokens_used)
VALUES ($1, $2, $3, $4, $5, $6);
`,
		event.ID, event.UserID, event.Feature, event.Action, event.APICalls, event.TokensUsed,
	)
	if err != nil {
		return fmt.Errorf("insert usage event: %w", err)
	}
	return nil
}

// StatsByUser aggregates usage per feature for one user.
func (r *UsageRepositoryPG) StatsByUser(ctx context.Context, userID string) ([]domain.UsageStat, error) {
	rows, err := r.pool.Query(ctx, `
SELECT feature, COUNT(*), COALESCE(SUM(api_calls), 0)
FROM usage_logs
WHERE user_id = $1
GROUP BY feature;
`, userID)
	if err != nil {
		return nil, fmt.Errorf("usage stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.UsageStat
	for rows.Next() {
		var s domain.UsageStat
		if err := rows.Scan(&s.Feature, &s.Events, &s.TotalCalls); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
