package audit

import (
	"context"

	"github.com/google/uuid"

	id "membergate/pkg/domain"
	"membergate/pkg/requestcontext"
)

// Store is the append-only persistence surface for audit entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByMember(ctx context.Context, memberID id.MemberID) ([]Entry, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. An append
// failure propagates to the caller; audit writes are never dropped silently.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit fills in identity, timestamp, and request metadata when absent, then
// appends the entry.
func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if entry.IPAddress == "" {
		entry.IPAddress = requestcontext.ClientIP(ctx)
	}
	if entry.UserAgent == "" {
		entry.UserAgent = requestcontext.UserAgent(ctx)
	}
	return p.store.Append(ctx, entry)
}

// ListByMember returns the audit trail for one member, oldest first.
func (p *Publisher) ListByMember(ctx context.Context, memberID id.MemberID) ([]Entry, error) {
	return p.store.ListByMember(ctx, memberID)
}
