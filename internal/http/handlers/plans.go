package handlers

import (
	"net/http"

	"brandmind/internal/domain"
)

type planDTO struct {
	Name     string        `json:"name"`
	Price    int           `json:"price"`
	Features []string      `json:"features"`
	Limits   domain.Limits `json:"limits"`
}

// ListPlans returns the public plan catalog.
func (a *App) ListPlans(w http.ResponseWriter, r *http.Request) {
	order := []domain.Plan{domain.PlanFree, domain.PlanBasic, domain.PlanPro, domain.PlanEnterprise}
	plans := make([]planDTO, 0, len(order))
	for _, p := range order {
		plans = append(plans, planDTO{
			Name:     string(p),
			Price:    domain.PlanPrice(p),
			Features: domain.PlanFeatureSet(p),
			Limits:   domain.PlanLimits(p),
		})
	}
	a.success(w, http.StatusOK, map[string]any{"plans": plans})
}
