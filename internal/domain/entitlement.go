package domain

import "fmt"

// AuthorizeRole decides whether role may access a surface restricted to the
// given roles. Superadmin passes every check. Admin passes checks that admit
// admin or user. Any other role must be named literally.
func AuthorizeRole(role Role, required []Role) error {
	if role == RoleSuperadmin {
		return nil
	}
	if role == RoleAdmin {
		for _, r := range required {
			if r == RoleAdmin || r == RoleUser {
				return nil
			}
		}
		return ErrForbidden
	}
	for _, r := range required {
		if r == role {
			return nil
		}
	}
	return ErrForbidden
}

// PlanDenial describes a plan-gate refusal with enough detail for the API
// response (distinguishing "no subscription" from "tier too low").
type PlanDenial struct {
	Err          error
	CurrentPlan  Plan
	RequiredPlan []Plan
}

func (d *PlanDenial) Error() string {
	if d.Err == ErrNoSubscription {
		return ErrNoSubscription.Error()
	}
	return fmt.Sprintf("plan %q does not satisfy requirement %v", d.CurrentPlan, d.RequiredPlan)
}

func (d *PlanDenial) Unwrap() error { return d.Err }

// AuthorizePlan decides whether the caller's active subscription satisfies a
// minimum-tier requirement. The requirement is the lowest rank among the named
// plans; unrecognized names are penalized so they can never be satisfied.
func AuthorizePlan(sub *Subscription, required []Plan) error {
	if sub == nil {
		return &PlanDenial{Err: ErrNoSubscription, RequiredPlan: required}
	}
	minRequired := unknownPlanRank
	for _, p := range required {
		rank := PlanRank(p)
		if rank == 0 {
			rank = unknownPlanRank
		}
		if rank < minRequired {
			minRequired = rank
		}
	}
	if PlanRank(sub.Plan) >= minRequired {
		return nil
	}
	return &PlanDenial{Err: ErrPlanTooLow, CurrentPlan: sub.Plan, RequiredPlan: required}
}

// FeatureDenial describes a feature-gate refusal, carrying the caller's current
// plan for upsell messaging.
type FeatureDenial struct {
	Err         error
	Feature     string
	CurrentPlan Plan
}

func (d *FeatureDenial) Error() string {
	if d.Err == ErrNoSubscription {
		return ErrNoSubscription.Error()
	}
	return fmt.Sprintf("feature %q not included in plan %q", d.Feature, d.CurrentPlan)
}

func (d *FeatureDenial) Unwrap() error { return d.Err }

// AuthorizeFeature decides whether the caller's active subscription includes
// the named capability. Role and entitlement are independent checks; a passing
// role gate never implies feature access.
func AuthorizeFeature(sub *Subscription, feature string) error {
	if sub == nil {
		return &FeatureDenial{Err: ErrNoSubscription, Feature: feature}
	}
	if sub.HasFeature(feature) {
		return nil
	}
	return &FeatureDenial{Err: ErrFeatureNotAvailable, Feature: feature, CurrentPlan: sub.Plan}
}
