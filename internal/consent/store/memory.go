package store

import (
	"context"
	"sort"
	"sync"

	"membergate/internal/consent/models"
	id "membergate/pkg/domain"
	"membergate/pkg/platform/sentinel"
)

// InMemory keeps consent records in a map. Used by unit tests and local
// development; behavior mirrors the Postgres store.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[id.ConsentID]*models.Consent
	byMember map[id.MemberID][]id.ConsentID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[id.ConsentID]*models.Consent),
		byMember: make(map[id.MemberID][]id.ConsentID),
	}
}

// Save persists a new consent record.
func (s *InMemory) Save(ctx context.Context, consent *models.Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[consent.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	cp := *consent
	s.byID[consent.ID] = &cp
	s.byMember[consent.MemberID] = append(s.byMember[consent.MemberID], consent.ID)
	return nil
}

// Update overwrites an existing consent record in place.
func (s *InMemory) Update(ctx context.Context, consent *models.Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[consent.ID]; !exists {
		return sentinel.ErrNotFound
	}
	cp := *consent
	s.byID[consent.ID] = &cp
	return nil
}

// FindByID returns the consent with the given id.
func (s *InMemory) FindByID(ctx context.Context, consentID id.ConsentID) (*models.Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[consentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// ListByMember returns the full consent history for a member, most recent
// consent date first.
func (s *InMemory) ListByMember(ctx context.Context, memberID id.MemberID) ([]*models.Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byMember[memberID]
	out := make([]*models.Consent, 0, len(ids))
	for _, cid := range ids {
		cp := *s.byID[cid]
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ConsentDate.After(out[j].ConsentDate)
	})
	return out, nil
}

// DeleteByMember removes all consent rows for a member. Only the hard-delete
// path uses this; anonymization keeps the history.
func (s *InMemory) DeleteByMember(ctx context.Context, memberID id.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cid := range s.byMember[memberID] {
		delete(s.byID, cid)
	}
	delete(s.byMember, memberID)
	return nil
}
