package domain

import "time"

// Plan enumerates billing plans. Plans form a total order for "at least this
// tier" checks; see PlanRank.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// planRanks orders plans for entitlement checks. Unknown plan names rank 0 for
// callers and unknownPlanRank for requirements, which makes a requirement on a
// misspelled plan unsatisfiable instead of silently open.
var planRanks = map[Plan]int{
	PlanFree:       1,
	PlanBasic:      2,
	PlanPro:        3,
	PlanEnterprise: 4,
}

const unknownPlanRank = 99

// PlanRank returns the privilege rank of a plan, 0 when unrecognized.
func PlanRank(p Plan) int {
	return planRanks[p]
}

// ParsePlan validates an externally supplied plan name.
func ParsePlan(s string) (Plan, error) {
	switch Plan(s) {
	case PlanFree, PlanBasic, PlanPro, PlanEnterprise:
		return Plan(s), nil
	}
	return "", ErrInvalidPlan
}

// SubscriptionStatus enumerates the subscription lifecycle.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// Unlimited is the sentinel for quota fields without a cap.
const Unlimited = -1

// Limits is the numeric quota bundle attached to a subscription.
type Limits struct {
	MaxPosts            int `json:"max_posts"`
	MaxAccounts         int `json:"max_accounts"`
	APICallsPerDay      int `json:"api_calls_per_day"`
	AIGenerationsPerDay int `json:"ai_generations_per_day"`
	StorageMB           int `json:"storage_mb"`
}

// ActivationMethod records how a subscription was activated.
type ActivationMethod string

const (
	ActivationManual   ActivationMethod = "manual"
	ActivationTelegram ActivationMethod = "telegram"
	ActivationPayment  ActivationMethod = "payment"
)

// Subscription binds an account to a plan, its feature set and quota bundle.
// At most one subscription per user is considered active at evaluation time;
// when duplicates exist the most recently created active row wins.
type Subscription struct {
	ID               string
	UserID           string
	Plan             Plan
	Status           SubscriptionStatus
	Features         []string
	Limits           Limits
	Price            int
	BillingCycle     string
	ActivatedBy      string
	ActivationMethod ActivationMethod
	StartDate        *time.Time
	EndDate          *time.Time
	AutoRenew        bool
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasFeature reports whether the subscription's feature set contains name.
func (s *Subscription) HasFeature(name string) bool {
	if s == nil {
		return false
	}
	for _, f := range s.Features {
		if f == name {
			return true
		}
	}
	return false
}

var planLimits = map[Plan]Limits{
	PlanFree:       {MaxPosts: 10, MaxAccounts: 1, APICallsPerDay: 50, AIGenerationsPerDay: 10, StorageMB: 100},
	PlanBasic:      {MaxPosts: 50, MaxAccounts: 3, APICallsPerDay: 200, AIGenerationsPerDay: 50, StorageMB: 500},
	PlanPro:        {MaxPosts: 500, MaxAccounts: 10, APICallsPerDay: 1000, AIGenerationsPerDay: 200, StorageMB: 2000},
	PlanEnterprise: {MaxPosts: Unlimited, MaxAccounts: Unlimited, APICallsPerDay: 10000, AIGenerationsPerDay: Unlimited, StorageMB: 10000},
}

var planFeatures = map[Plan][]string{
	PlanFree:  {"content_generation", "ai_chat"},
	PlanBasic: {"content_generation", "ai_chat", "social_scheduling", "basic_analytics"},
	PlanPro: {"content_generation", "ai_chat", "social_scheduling", "analytics",
		"smart_replies", "ad_generator", "trend_scanner", "pdf_reports"},
	PlanEnterprise: {"content_generation", "ai_chat", "social_scheduling", "analytics",
		"smart_replies", "ad_generator", "trend_scanner", "pdf_reports",
		"white_label", "api_access", "priority_support", "custom_ai_models"},
}

var planPrices = map[Plan]int{
	PlanFree:       0,
	PlanBasic:      299,
	PlanPro:        599,
	PlanEnterprise: 1499,
}

// PlanLimits returns the quota bundle for a plan, falling back to free.
func PlanLimits(p Plan) Limits {
	if l, ok := planLimits[p]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// PlanFeatureSet returns the feature tags included in a plan, falling back to free.
func PlanFeatureSet(p Plan) []string {
	src, ok := planFeatures[p]
	if !ok {
		src = planFeatures[PlanFree]
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// PlanPrice returns the monthly price for a plan.
func PlanPrice(p Plan) int {
	return planPrices[p]
}
