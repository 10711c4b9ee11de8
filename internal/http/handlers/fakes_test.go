package handlers_test

import (
	"context"
	"strings"
	"time"

	"brandmind/internal/domain"
)

type memUsers struct {
	rows map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{rows: make(map[string]*domain.User)}
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	for _, u := range m.rows {
		if u.Email == user.Email {
			return domain.ErrEmailExists
		}
	}
	cp := *user
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.rows[cp.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetByAPIKey(_ context.Context, key string) (*domain.User, error) {
	for _, u := range m.rows {
		if u.APIKey == key {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) List(_ context.Context, filter domain.UserFilter) ([]domain.User, int, error) {
	var out []domain.User
	for _, u := range m.rows {
		if filter.Status == "active" && !u.IsActive {
			continue
		}
		if filter.Status == "inactive" && u.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(u.Email, filter.Search) && !strings.Contains(u.Name, filter.Search) {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *memUsers) SetActive(_ context.Context, id string, active, verified bool) error {
	u, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsActive = active
	u.IsVerified = verified
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	u, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memUsers) UpdateAPIKey(_ context.Context, id, apiKey string) error {
	u, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.APIKey = apiKey
	return nil
}

func (m *memUsers) UpdateUpstreamKey(_ context.Context, id, upstreamKey string) error {
	u, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.UpstreamKey = upstreamKey
	return nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id string) error {
	u, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	u.LastLogin = &now
	return nil
}

func (m *memUsers) CountByActive(_ context.Context) (total, active, pending int, err error) {
	for _, u := range m.rows {
		total++
		if u.IsActive {
			active++
		} else {
			pending++
		}
	}
	return total, active, pending, nil
}

type memSubs struct {
	rows []*domain.Subscription
}

func (m *memSubs) Create(_ context.Context, sub *domain.Subscription) error {
	cp := *sub
	cp.CreatedAt = time.Now()
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memSubs) GetActiveByUserID(_ context.Context, userID string) (*domain.Subscription, error) {
	for i := len(m.rows) - 1; i >= 0; i-- {
		s := m.rows[i]
		if s.UserID == userID && s.Status == domain.SubscriptionActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memSubs) GetByUserID(_ context.Context, userID string) (*domain.Subscription, error) {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UserID == userID {
			cp := *m.rows[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memSubs) Replace(_ context.Context, sub *domain.Subscription) error {
	for _, s := range m.rows {
		if s.UserID == sub.UserID {
			id, created := s.ID, s.CreatedAt
			*s = *sub
			s.ID = id
			s.CreatedAt = created
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	cp := *sub
	cp.CreatedAt = time.Now()
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memSubs) SetStatus(_ context.Context, userID string, status domain.SubscriptionStatus) error {
	found := false
	for _, s := range m.rows {
		if s.UserID == userID {
			s.Status = status
			found = true
		}
	}
	if !found {
		return domain.ErrNotFound
	}
	return nil
}

func (m *memSubs) CountByStatus(_ context.Context) (total, active int, err error) {
	for _, s := range m.rows {
		total++
		if s.Status == domain.SubscriptionActive {
			active++
		}
	}
	return total, active, nil
}

func (m *memSubs) PlanDistribution(_ context.Context) (map[domain.Plan]int, error) {
	dist := make(map[domain.Plan]int)
	for _, s := range m.rows {
		if s.Status == domain.SubscriptionActive {
			dist[s.Plan]++
		}
	}
	return dist, nil
}

type memActions struct {
	rows []domain.AdminAction
}

func (m *memActions) Insert(_ context.Context, action *domain.AdminAction) error {
	cp := *action
	cp.CreatedAt = time.Now()
	m.rows = append(m.rows, cp)
	return nil
}

func (m *memActions) ListByTarget(_ context.Context, targetUserID string, limit int) ([]domain.AdminAction, error) {
	var out []domain.AdminAction
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if m.rows[i].TargetUserID == targetUserID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memActions) List(_ context.Context, page, limit int) ([]domain.AdminAction, int, error) {
	return m.rows, len(m.rows), nil
}

type memUsage struct {
	rows []domain.UsageEvent
}

func (m *memUsage) Insert(_ context.Context, event *domain.UsageEvent) error {
	cp := *event
	cp.CreatedAt = time.Now()
	m.rows = append(m.rows, cp)
	return nil
}

func (m *memUsage) StatsByUser(_ context.Context, userID string) ([]domain.UsageStat, error) {
	byFeature := make(map[string]*domain.UsageStat)
	for _, e := range m.rows {
		if e.UserID != userID {
			continue
		}
		st, ok := byFeature[e.Feature]
		if !ok {
			st = &domain.UsageStat{Feature: e.Feature}
			byFeature[e.Feature] = st
		}
		st.Events++
		st.TotalCalls += e.APICalls
	}
	var out []domain.UsageStat
	for _, st := range byFeature {
		out = append(out, *st)
	}
	return out, nil
}

type memSettings struct {
	rows map[string]string
}

func newMemSettings() *memSettings {
	return &memSettings{rows: make(map[string]string)}
}

func (m *memSettings) Get(_ context.Context, key string) (string, error) {
	v, ok := m.rows[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (m *memSettings) Set(_ context.Context, key, value string) error {
	m.rows[key] = value
	return nil
}

func (m *memSettings) All(_ context.Context) (map[string]string, error) {
	out := make(map[string]string, len(m.rows))
	for k, v := range m.rows {
		out[k] = v
	}
	return out, nil
}
