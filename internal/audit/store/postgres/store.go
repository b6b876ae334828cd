package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"membergate/internal/audit"
	id "membergate/pkg/domain"
	txcontext "membergate/pkg/platform/tx"
)

// Store persists audit entries using the transactional outbox pattern: every
// append writes the queryable audit row and an outbox row in the same
// statement set, so both join the caller's transaction. The outbox relay
// publishes rows to Kafka and marks them published.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// audit.Entry for deserialization by downstream consumers.
type outboxPayload struct {
	ID        string `json:"id"`
	MemberID  string `json:"memberId"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Append writes the audit entry and its outbox row.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	exec := s.execer(ctx)

	_, err := exec.ExecContext(ctx, `
		INSERT INTO audit_entries (id, member_id, action, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		entry.ID, uuid.UUID(entry.MemberID), string(entry.Action), entry.Details,
		entry.IPAddress, entry.UserAgent, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	payload, err := json.Marshal(outboxPayload{
		ID:        entry.ID.String(),
		MemberID:  entry.MemberID.String(),
		Action:    string(entry.Action),
		Details:   entry.Details,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		Timestamp: entry.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		uuid.New(), uuid.UUID(entry.MemberID), string(entry.Action), payload, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListByMember returns the audit trail for one member, oldest first.
func (s *Store) ListByMember(ctx context.Context, memberID id.MemberID) ([]audit.Entry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, member_id, action, details, ip_address, user_agent, created_at
		FROM audit_entries WHERE member_id = $1 ORDER BY created_at ASC
	`, uuid.UUID(memberID))
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var (
			entry    audit.Entry
			memberID uuid.UUID
			action   string
		)
		if err := rows.Scan(&entry.ID, &memberID, &action, &entry.Details,
			&entry.IPAddress, &entry.UserAgent, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.MemberID = id.MemberID(memberID)
		entry.Action = audit.Action(action)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return out, nil
}

// NextUnpublished fetches up to limit outbox rows that have not been
// published yet, oldest first. Used by the Kafka relay.
func (s *Store) NextUnpublished(ctx context.Context, limit int) ([]audit.OutboxRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, payload FROM audit_outbox
		WHERE published_at IS NULL ORDER BY created_at ASC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	defer rows.Close()

	var out []audit.OutboxRow
	for rows.Next() {
		var row audit.OutboxRow
		if err := rows.Scan(&row.ID, &row.EventType, &row.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	return out, nil
}

// MarkPublished stamps outbox rows as delivered.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE audit_outbox SET published_at = NOW() WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

var errNoDB = errors.New("audit store has no database handle")

// Ping verifies the database handle, used by health checks.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return errNoDB
	}
	return s.db.PingContext(ctx)
}
