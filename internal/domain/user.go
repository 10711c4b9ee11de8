package domain

import "time"

// Role enumerates supported account roles. Roles form a privilege order for
// access checks (superadmin covers admin, admin covers user), but admin access
// is scoped to admin plus user surfaces rather than everything.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// ParseRole validates an externally supplied role name.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return Role(s), nil
	}
	return "", ErrInvalidRole
}

// User represents an account principal within the platform.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	TelegramUser string
	Role         Role
	IsActive     bool
	IsVerified   bool
	APIKey       string
	UpstreamKey  string // per-user key for the completion service, set by admins
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Status string // "active", "inactive" or empty for all
	Search string
	Page   int
	Limit  int
}
