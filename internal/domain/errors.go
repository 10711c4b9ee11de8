package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountInactive     = errors.New("account inactive")
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidPlan         = errors.New("invalid plan")
	ErrNoSubscription      = errors.New("no active subscription")
	ErrPlanTooLow          = errors.New("plan upgrade required")
	ErrFeatureNotAvailable = errors.New("feature not available")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrUpstreamFailure     = errors.New("upstream provider failure")
)
