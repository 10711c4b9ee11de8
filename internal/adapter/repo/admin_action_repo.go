package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"brandmind/internal/domain"
)

// AdminActionRepositoryPG implements domain.AdminActionRepository backed by PostgreSQL.
type AdminActionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAdminActionRepository creates a new AdminActionRepositoryPG.
func NewAdminActionRepository(pool *pgxpool.Pool) *AdminActionRepositoryPG {
	return &AdminActionRepositoryPG{pool: pool}
}

// Insert appends an audit record.
func (r *AdminActionRepositoryPG) Insert(ctx context.Context, action *domain.AdminAction) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO admin_actions (id, admin_id, action_type, target_user_id, details, ip_address, country)
VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, NULLIF($6, ''), NULLIF($7, ''));
`,
		action.ID, action.AdminID, action.ActionType, action.TargetUserID,
		action.Details, action.IPAddress, action.Country,
	)
	if err != nil {
		return fmt.Errorf("insert admin action: %w", err)
	}
	return nil
}

const adminActionColumns = `id, admin_id, action_type, COALESCE(target_user_id::text, ''), COALESCE(details, 'null'::jsonb), COALESCE(ip_address, ''), COALESCE(country, ''), created_at`

// ListByTarget returns recent audit records for one user.
func (r *AdminActionRepositoryPG) ListByTarget(ctx context.Context, targetUserID string, limit int) ([]domain.AdminAction, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+adminActionColumns+`
FROM admin_actions
WHERE target_user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`, targetUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list admin actions: %w", err)
	}
	defer rows.Close()
	return collectAdminActions(rows)
}

// List returns a page of the full audit log with the total count.
func (r *AdminActionRepositoryPG) List(ctx context.Context, page, limit int) ([]domain.AdminAction, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_actions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count admin actions: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+adminActionColumns+`
FROM admin_actions
ORDER BY created_at DESC
LIMIT $1 OFFSET $2;
`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list admin actions: %w", err)
	}
	defer rows.Close()

	actions, err := collectAdminActions(rows)
	return actions, total, err
}

func collectAdminActions(rows pgx.Rows) ([]domain.AdminAction, error) {
	var actions []domain.AdminAction
	for rows.Next() {
		var a domain.AdminAction
		if err := rows.Scan(&a.ID, &a.AdminID, &a.ActionType, &a.TargetUserID, &a.Details, &a.IPAddress, &a.Country, &a.CreatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
