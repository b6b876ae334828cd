package memory

import (
	"context"
	"sync"

	"membergate/internal/audit"
	id "membergate/pkg/domain"
)

// Store keeps audit entries in memory. Entries are copied in and out and
// never mutated, matching the append-only contract.
type Store struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) ListByMember(ctx context.Context, memberID id.MemberID) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Entry
	for _, e := range s.entries {
		if e.MemberID == memberID {
			out = append(out, e)
		}
	}
	return out, nil
}
