package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"membergate/internal/consent/models"
	id "membergate/pkg/domain"
	"membergate/pkg/platform/sentinel"
	txcontext "membergate/pkg/platform/tx"
)

// Postgres persists consent records. All statements honor a transaction
// carried in the context so orchestration can group them with member writes.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const consentColumns = `id, member_id, consent_type, purpose, is_granted,
	consent_date, withdrawn_date, withdrawn_reason, consent_method, consent_text,
	ip_address, user_agent, expiry_date, legal_basis, data_category, is_active`

// Save inserts a new consent record.
func (s *Postgres) Save(ctx context.Context, consent *models.Consent) error {
	query := `
		INSERT INTO consents (` + consentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(consent.ID), uuid.UUID(consent.MemberID), string(consent.Type),
		consent.Purpose, consent.Granted, consent.ConsentDate,
		consent.WithdrawnDate, nullIfEmpty(consent.WithdrawnReason),
		consent.Method, consent.Text, consent.IPAddress, consent.UserAgent,
		consent.ExpiryDate, string(consent.LegalBasis), string(consent.DataCategory),
		consent.Active,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert consent: %w", err)
	}
	return nil
}

// Update overwrites the mutable lifecycle fields of an existing record.
func (s *Postgres) Update(ctx context.Context, consent *models.Consent) error {
	query := `
		UPDATE consents SET
			purpose = $2, is_granted = $3, consent_date = $4,
			withdrawn_date = $5, withdrawn_reason = $6,
			consent_method = $7, consent_text = $8,
			ip_address = $9, user_agent = $10,
			expiry_date = $11, legal_basis = $12, data_category = $13,
			is_active = $14
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(consent.ID),
		consent.Purpose, consent.Granted, consent.ConsentDate,
		consent.WithdrawnDate, nullIfEmpty(consent.WithdrawnReason),
		consent.Method, consent.Text, consent.IPAddress, consent.UserAgent,
		consent.ExpiryDate, string(consent.LegalBasis), string(consent.DataCategory),
		consent.Active,
	)
	if err != nil {
		return fmt.Errorf("update consent: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update consent rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// FindByID returns the consent with the given id.
func (s *Postgres) FindByID(ctx context.Context, consentID id.ConsentID) (*models.Consent, error) {
	query := `SELECT ` + consentColumns + ` FROM consents WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(consentID))
	consent, err := scanConsent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find consent: %w", err)
	}
	return consent, nil
}

// ListByMember returns the full consent history for a member, most recent
// consent date first.
func (s *Postgres) ListByMember(ctx context.Context, memberID id.MemberID) ([]*models.Consent, error) {
	query := `SELECT ` + consentColumns + ` FROM consents
		WHERE member_id = $1 ORDER BY consent_date DESC`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(memberID))
	if err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	defer rows.Close()

	var out []*models.Consent
	for rows.Next() {
		consent, err := scanConsent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consent: %w", err)
		}
		out = append(out, consent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	return out, nil
}

// DeleteByMember removes all consent rows for a member (hard delete cascade).
func (s *Postgres) DeleteByMember(ctx context.Context, memberID id.MemberID) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM consents WHERE member_id = $1`, uuid.UUID(memberID))
	if err != nil {
		return fmt.Errorf("delete consents: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsent(row rowScanner) (*models.Consent, error) {
	var (
		consent         models.Consent
		consentID       uuid.UUID
		memberID        uuid.UUID
		consentType     string
		withdrawnReason sql.NullString
		legalBasis      string
		dataCategory    string
	)
	err := row.Scan(
		&consentID, &memberID, &consentType, &consent.Purpose, &consent.Granted,
		&consent.ConsentDate, &consent.WithdrawnDate, &withdrawnReason,
		&consent.Method, &consent.Text, &consent.IPAddress, &consent.UserAgent,
		&consent.ExpiryDate, &legalBasis, &dataCategory, &consent.Active,
	)
	if err != nil {
		return nil, err
	}
	consent.ID = id.ConsentID(consentID)
	consent.MemberID = id.MemberID(memberID)
	consent.Type = id.ConsentType(consentType)
	consent.WithdrawnReason = withdrawnReason.String
	consent.LegalBasis = id.LegalBasis(legalBasis)
	consent.DataCategory = id.DataCategory(dataCategory)
	return &consent, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
