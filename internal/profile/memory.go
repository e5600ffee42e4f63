package profile

import (
	"context"
	"sync"
	"time"

	"github.com/poibms/next-meal/internal/models"
)

// MemoryRepository is a Repository kept in process memory. It backs tests and
// local runs without Postgres.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile
	// Writes counts successful mutations.
	Writes int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]*models.Profile)}
}

func (m *MemoryRepository) InitializeDatabase(ctx context.Context) error { return nil }

// Put stores a copy of p, replacing any profile with the same user id.
func (m *MemoryRepository) Put(p *models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = clone(p)
}

func (m *MemoryRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return clone(p), nil
}

func (m *MemoryRepository) GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.StripeSubscriptionID != nil && *p.StripeSubscriptionID == subscriptionID {
			return clone(p), nil
		}
	}
	return nil, ErrProfileNotFound
}

func (m *MemoryRepository) GetOrCreate(ctx context.Context, userID, email string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		return clone(p), nil
	}
	now := time.Now()
	p := &models.Profile{UserID: userID, Email: email, CreatedAt: now, UpdatedAt: now}
	m.profiles[userID] = p
	m.Writes++
	return clone(p), nil
}

func (m *MemoryRepository) ActivateSubscription(ctx context.Context, userID, tier, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		p = &models.Profile{UserID: userID, CreatedAt: time.Now()}
		m.profiles[userID] = p
	}
	p.SubscriptionActive = true
	p.SubscriptionTier = &tier
	p.StripeSubscriptionID = &subscriptionID
	p.UpdatedAt = time.Now()
	m.Writes++
	return nil
}

func (m *MemoryRepository) SetSubscriptionActive(ctx context.Context, userID string, active bool) error {
	return m.update(userID, func(p *models.Profile) {
		p.SubscriptionActive = active
	})
}

func (m *MemoryRepository) ClearSubscriptionID(ctx context.Context, userID string) error {
	return m.update(userID, func(p *models.Profile) {
		p.SubscriptionActive = false
		p.StripeSubscriptionID = nil
	})
}

func (m *MemoryRepository) ClearSubscription(ctx context.Context, userID string) error {
	return m.update(userID, func(p *models.Profile) {
		p.SubscriptionActive = false
		p.SubscriptionTier = nil
		p.StripeSubscriptionID = nil
	})
}

func (m *MemoryRepository) update(userID string, fn func(p *models.Profile)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return ErrProfileNotFound
	}
	fn(p)
	p.UpdatedAt = time.Now()
	m.Writes++
	return nil
}

func clone(p *models.Profile) *models.Profile {
	c := *p
	if p.SubscriptionTier != nil {
		tier := *p.SubscriptionTier
		c.SubscriptionTier = &tier
	}
	if p.StripeSubscriptionID != nil {
		id := *p.StripeSubscriptionID
		c.StripeSubscriptionID = &id
	}
	return &c
}
