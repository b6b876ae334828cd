// Package store persists customer profiles. Both variants follow the same
// sentinel error contract as the member store.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"membergate/internal/customer/models"
	id "membergate/pkg/domain"
	"membergate/pkg/email"
	"membergate/pkg/platform/sentinel"
)

// InMemory keeps customers in maps keyed by ID and by normalized email.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.CustomerID]*models.Customer
	byEmail map[string]id.CustomerID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.CustomerID]*models.Customer),
		byEmail: make(map[string]id.CustomerID),
	}
}

func copyCustomer(c *models.Customer) *models.Customer {
	cp := *c
	if c.Address != nil {
		addr := *c.Address
		cp.Address = &addr
	}
	if c.Preferences != nil {
		prefs := *c.Preferences
		prefs.CommunicationChannels = append([]id.CommunicationChannel(nil), c.Preferences.CommunicationChannels...)
		cp.Preferences = &prefs
	}
	cp.Tags = append([]string(nil), c.Tags...)
	return &cp
}

func (s *InMemory) Create(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := email.Normalize(c.Email)
	if _, taken := s.byEmail[key]; taken {
		return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
	}
	s.byID[c.ID] = copyCustomer(c)
	s.byEmail[key] = c.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, customerID id.CustomerID) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[customerID]
	if !ok {
		return nil, fmt.Errorf("customer not found: %w", sentinel.ErrNotFound)
	}
	return copyCustomer(c), nil
}

func (s *InMemory) Update(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byID[c.ID]
	if !ok {
		return fmt.Errorf("customer not found: %w", sentinel.ErrNotFound)
	}

	newKey := email.Normalize(c.Email)
	oldKey := email.Normalize(prev.Email)
	if newKey != oldKey {
		if owner, taken := s.byEmail[newKey]; taken && owner != c.ID {
			return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
		}
		delete(s.byEmail, oldKey)
		s.byEmail[newKey] = c.ID
	}

	s.byID[c.ID] = copyCustomer(c)
	return nil
}

func (s *InMemory) Delete(_ context.Context, customerID id.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[customerID]
	if !ok {
		return fmt.Errorf("customer not found: %w", sentinel.ErrNotFound)
	}
	delete(s.byEmail, email.Normalize(c.Email))
	delete(s.byID, customerID)
	return nil
}

// List returns one page of customers ordered by creation time, newest first,
// together with the total count.
func (s *InMemory) List(_ context.Context, offset, limit int) ([]*models.Customer, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.Customer, 0, len(s.byID))
	for _, c := range s.byID {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() > all[j].ID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]*models.Customer, 0, end-offset)
	for _, c := range all[offset:end] {
		page = append(page, copyCustomer(c))
	}
	return page, total, nil
}
