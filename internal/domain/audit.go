package domain

import (
	"encoding/json"
	"time"
)

// AdminAction is an audit record of a privileged operation.
type AdminAction struct {
	ID           string
	AdminID      string
	ActionType   string
	TargetUserID string
	Details      json.RawMessage
	IPAddress    string
	Country      string
	CreatedAt    time.Time
}

// UsageEvent records a metered call against a user's quota.
type UsageEvent struct {
	ID         string
	UserID     string
	Feature    string
	Action     string
	APICalls   int
	TokensUsed int
	CreatedAt  time.Time
}

// UsageStat aggregates usage per feature for reporting views.
type UsageStat struct {
	Feature    string
	Events     int
	TotalCalls int
}
