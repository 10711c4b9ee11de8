package domain

import "context"

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByAPIKey(ctx context.Context, key string) (*User, error)
	List(ctx context.Context, filter UserFilter) ([]User, int, error)
	SetActive(ctx context.Context, id string, active, verified bool) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAPIKey(ctx context.Context, id, apiKey string) error
	UpdateUpstreamKey(ctx context.Context, id, upstreamKey string) error
	TouchLastLogin(ctx context.Context, id string) error
	CountByActive(ctx context.Context) (total, active, pending int, err error)
}

// SubscriptionRepository defines persistence for subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetActiveByUserID(ctx context.Context, userID string) (*Subscription, error)
	GetByUserID(ctx context.Context, userID string) (*Subscription, error)
	// Replace mutates the user's existing subscription row in place, creating
	// it when absent. Re-running with the same arguments converges to the same
	// end state.
	Replace(ctx context.Context, sub *Subscription) error
	SetStatus(ctx context.Context, userID string, status SubscriptionStatus) error
	CountByStatus(ctx context.Context) (total, active int, err error)
	PlanDistribution(ctx context.Context) (map[Plan]int, error)
}

// AdminActionRepository records and lists the audit log.
type AdminActionRepository interface {
	Insert(ctx context.Context, action *AdminAction) error
	ListByTarget(ctx context.Context, targetUserID string, limit int) ([]AdminAction, error)
	List(ctx context.Context, page, limit int) ([]AdminAction, int, error)
}

// UsageRepository records metered calls.
type UsageRepository interface {
	Insert(ctx context.Context, event *UsageEvent) error
	StatsByUser(ctx context.Context, userID string) ([]UsageStat, error)
}

// SettingsRepository stores system-wide key/value settings, such as the master
// upstream credential.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}
