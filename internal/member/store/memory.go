// Package store persists member records. The in-memory variant backs tests
// and dev mode; Postgres is the production store. Both return sentinel
// errors at the boundary and hand out copies so callers cannot mutate
// stored state without going through Update or Execute.
package store

import (
	"context"
	"fmt"
	"sync"

	"membergate/internal/member/models"
	id "membergate/pkg/domain"
	"membergate/pkg/email"
	"membergate/pkg/platform/sentinel"
)

// InMemory keeps members in maps keyed by ID and by normalized email.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.MemberID]*models.Member
	byEmail map[string]id.MemberID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.MemberID]*models.Member),
		byEmail: make(map[string]id.MemberID),
	}
}

// CreateIfEmailAvailable inserts the member unless the email is already
// registered. Email comparison is case-insensitive.
func (s *InMemory) CreateIfEmailAvailable(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := email.Normalize(m.Email)
	if _, taken := s.byEmail[key]; taken {
		return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
	}
	if _, exists := s.byID[m.ID]; exists {
		return fmt.Errorf("member already exists: %w", sentinel.ErrConflict)
	}

	cp := *m
	s.byID[m.ID] = &cp
	s.byEmail[key] = m.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, memberID id.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[memberID]
	if !ok {
		return nil, fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (s *InMemory) FindByEmail(_ context.Context, addr string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memberID, ok := s.byEmail[email.Normalize(addr)]
	if !ok {
		return nil, fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
	}
	cp := *s.byID[memberID]
	return &cp, nil
}

// Update replaces the stored record. The email index follows the new value.
func (s *InMemory) Update(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(m)
}

func (s *InMemory) updateLocked(m *models.Member) error {
	prev, ok := s.byID[m.ID]
	if !ok {
		return fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
	}

	newKey := email.Normalize(m.Email)
	oldKey := email.Normalize(prev.Email)
	if newKey != oldKey {
		if owner, taken := s.byEmail[newKey]; taken && owner != m.ID {
			return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
		}
		delete(s.byEmail, oldKey)
		s.byEmail[newKey] = m.ID
	}

	cp := *m
	s.byID[m.ID] = &cp
	return nil
}

// Execute loads the member, validates, mutates, and persists under one lock
// so concurrent writers cannot interleave between read and write. The
// returned member reflects the state after mutation; on validation failure
// the current record is returned alongside the error.
func (s *InMemory) Execute(_ context.Context, memberID id.MemberID,
	validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[memberID]
	if !ok {
		return nil, fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
	}

	work := *stored
	if validate != nil {
		if err := validate(&work); err != nil {
			cp := work
			return &cp, err
		}
	}
	mutate(&work)

	if err := s.updateLocked(&work); err != nil {
		return nil, err
	}
	cp := work
	return &cp, nil
}

func (s *InMemory) Delete(_ context.Context, memberID id.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[memberID]
	if !ok {
		return fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
	}
	delete(s.byEmail, email.Normalize(m.Email))
	delete(s.byID, memberID)
	return nil
}
