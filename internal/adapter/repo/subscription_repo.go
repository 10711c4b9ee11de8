package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"brandmind/internal/domain"
)

// SubscriptionRepositoryPG implements domain.SubscriptionRepository backed by
// PostgreSQL. Features and limits are stored as JSONB alongside the plan so a
// row remains self-describing even after plan tables change.
type SubscriptionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepositoryPG.
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepositoryPG {
	return &SubscriptionRepositoryPG{pool: pool}
}

const subscriptionColumns = `id, user_id, plan, status, features, limits, price, billing_cycle, COALESCE(activated_by::text, ''), COALESCE(activation_method, ''), start_date, end_date, auto_renew, COALESCE(notes, ''), created_at, updated_at`

// Create inserts a new subscription row.
func (r *SubscriptionRepositoryPG) Create(ctx context.Context, sub *domain.Subscription) error {
	features, limits, err := marshalSubFields(sub)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO subscriptions (id, user_id, plan, status, features, limits, price, billing_cycle)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`,
		sub.ID, sub.UserID, sub.Plan, sub.Status, features, limits, sub.Price, sub.BillingCycle,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// GetActiveByUserID returns the user's active subscription. When duplicate
// active rows exist the most recently created one wins; this is a tie-break,
// not a schema guarantee.
func (r *SubscriptionRepositoryPG) GetActiveByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+subscriptionColumns+`
FROM subscriptions
WHERE user_id = $1 AND status = 'active'
ORDER BY created_at DESC
LIMIT 1;
`, userID)
	return scanSubscription(row)
}

// GetByUserID returns the user's most recent subscription regardless of status.
func (r *SubscriptionRepositoryPG) GetByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+subscriptionColumns+`
FROM subscriptions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1;
`, userID)
	return scanSubscription(row)
}

// Replace mutates the user's subscription row in place, creating it when
// absent. Activation re-runs converge to the same end state instead of
// stacking duplicate entitlement rows.
func (r *SubscriptionRepositoryPG) Replace(ctx context.Context, sub *domain.Subscription) error {
	features, limits, err := marshalSubFields(sub)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
UPDATE subscriptions
SET plan = $2, status = $3, features = $4, limits = $5, price = $6,
    activated_by = NULLIF($7, '')::uuid, activation_method = $8,
    start_date = $9, end_date = $10, notes = $11, updated_at = NOW()
WHERE user_id = $1;
`,
		sub.UserID, sub.Plan, sub.Status, features, limits, sub.Price,
		sub.ActivatedBy, sub.ActivationMethod, sub.StartDate, sub.EndDate, sub.Notes,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO subscriptions (id, user_id, plan, status, features, limits, price, billing_cycle, activated_by, activation_method, start_date, end_date, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid, $10, $11, $12, $13);
`,
		sub.ID, sub.UserID, sub.Plan, sub.Status, features, limits, sub.Price, sub.BillingCycle,
		sub.ActivatedBy, sub.ActivationMethod, sub.StartDate, sub.EndDate, sub.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// SetStatus moves every subscription of the user to the given status.
func (r *SubscriptionRepositoryPG) SetStatus(ctx context.Context, userID string, status domain.SubscriptionStatus) error {
	_, err := r.pool.Exec(ctx, `UPDATE subscriptions SET status = $2, updated_at = NOW() WHERE user_id = $1`, userID, status)
	if err != nil {
		return fmt.Errorf("set subscription status: %w", err)
	}
	return nil
}

// CountByStatus returns total and active subscription counts.
func (r *SubscriptionRepositoryPG) CountByStatus(ctx context.Context) (total, active int, err error) {
	row := r.pool.QueryRow(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'active') FROM subscriptions`)
	if err := row.Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return total, active, nil
}

// PlanDistribution returns active subscription counts per plan.
func (r *SubscriptionRepositoryPG) PlanDistribution(ctx context.Context) (map[domain.Plan]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT plan, COUNT(*) FROM subscriptions WHERE status = 'active' GROUP BY plan`)
	if err != nil {
		return nil, fmt.Errorf("plan distribution: %w", err)
	}
	defer rows.Close()

	dist := make(map[domain.Plan]int)
	for rows.Next() {
		var plan domain.Plan
		var count int
		if err := rows.Scan(&plan, &count); err != nil {
			return nil, err
		}
		dist[plan] = count
	}
	return dist, rows.Err()
}

func marshalSubFields(sub *domain.Subscription) ([]byte, []byte, error) {
	features, err := json.Marshal(sub.Features)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal features: %w", err)
	}
	limits, err := json.Marshal(sub.Limits)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal limits: %w", err)
	}
	return features, limits, nil
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	var features, limits []byte
	if err := row.Scan(
		&s.ID, &s.UserID, &s.Plan, &s.Status, &features, &limits, &s.Price, &s.BillingCycle,
		&s.ActivatedBy, &s.ActivationMethod, &s.StartDate, &s.EndDate, &s.AutoRenew, &s.Notes,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(features) > 0 {
		_ = json.Unmarshal(features, &s.Features)
	}
	if len(limits) > 0 {
		_ = json.Unmarshal(limits, &s.Limits)
	}
	return &s, nil
}
