package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"brandmind/internal/domain"
)

// SubscriptionSource resolves the caller's active subscription.
type SubscriptionSource interface {
	GetActiveByUserID(ctx context.Context, userID string) (*domain.Subscription, error)
}

// RequireRole gates a route on the caller's role. Must run after Authenticate.
func RequireRole(required ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				deny(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
				return
			}
			if err := domain.AuthorizeRole(user.Role, required); err != nil {
				deny(w, http.StatusForbidden, "forbidden", "insufficient role for this resource", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loadSubscription fetches the caller's active subscription, mapping "none"
// to a nil subscription rather than an error. Unexpected store failures fail
// closed.
func loadSubscription(ctx context.Context, subs SubscriptionSource, userID string) (*domain.Subscription, error) {
	sub, err := subs.GetActiveByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// RequirePlan gates a route on a minimum subscription tier. The subscription
// is loaded fresh per request so a plan change takes effect without reissuing
// tokens. "No subscription" and "tier too low" are reported distinctly.
func RequirePlan(subs SubscriptionSource, required ...domain.Plan) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				deny(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
				return
			}
			sub, err := loadSubscription(r.Context(), subs, user.ID)
			if err != nil {
				deny(w, http.StatusInternalServerError, "internal", "failed to load subscription", nil)
				return
			}
			if err := domain.AuthorizePlan(sub, required); err != nil {
				var denial *domain.PlanDenial
				if errors.As(err, &denial) && errors.Is(denial.Err, domain.ErrPlanTooLow) {
					deny(w, http.StatusForbidden, "upgrade_required",
						fmt.Sprintf("this feature requires the %v plan or higher", required),
						map[string]any{"required_plan": required})
					return
				}
				deny(w, http.StatusForbidden, "no_subscription", "an active subscription is required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireFeature gates a route on a capability tag in the caller's active
// subscription. Denials carry the current plan for upsell messaging.
func RequireFeature(subs SubscriptionSource, feature string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				deny(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
				return
			}
			sub, err := loadSubscription(r.Context(), subs, user.ID)
			if err != nil {
				deny(w, http.StatusInternalServerError, "internal", "failed to load subscription", nil)
				return
			}
			if err := domain.AuthorizeFeature(sub, feature); err != nil {
				var denial *domain.FeatureDenial
				if errors.As(err, &denial) && errors.Is(denial.Err, domain.ErrFeatureNotAvailable) {
					deny(w, http.StatusForbidden, "feature_not_available",
						fmt.Sprintf("feature %q is not included in your current plan", feature),
						map[string]any{"current_plan": denial.CurrentPlan})
					return
				}
				deny(w, http.StatusForbidden, "no_subscription", "an active subscription is required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
