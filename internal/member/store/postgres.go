package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"membergate/internal/member/models"
	id "membergate/pkg/domain"
	"membergate/pkg/email"
	"membergate/pkg/platform/sentinel"
	txcontext "membergate/pkg/platform/tx"
)

// Postgres persists members. Email uniqueness is enforced by a unique index
// on lower(email); violations surface as sentinel.ErrConflict.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const memberColumns = `
	id, first_name, last_name, email, phone_number, date_of_birth, gender,
	address, city, postal_code, country,
	is_active, is_email_verified, is_phone_verified, is_minor,
	created_at, updated_at, last_login_at, consent_updated_at, data_retention_expiry,
	has_marketing_consent, has_analytics_consent, has_data_sharing_consent, has_notification_consent,
	created_by, updated_by, data_processing_purpose`

func (s *Postgres) CreateIfEmailAvailable(ctx context.Context, m *models.Member) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`, memberArgs(m)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, uuid.UUID(memberID))
	return scanMember(row)
}

func (s *Postgres) FindByEmail(ctx context.Context, addr string) (*models.Member, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE lower(email) = $1`, email.Normalize(addr))
	return scanMember(row)
}

func (s *Postgres) Update(ctx context.Context, m *models.Member) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE members SET
			first_name = $2, last_name = $3, email = $4, phone_number = $5,
			date_of_birth = $6, gender = $7, address = $8, city = $9,
			postal_code = $10, country = $11,
			is_active = $12, is_email_verified = $13, is_phone_verified = $14, is_minor = $15,
			created_at = $16, updated_at = $17, last_login_at = $18,
			consent_updated_at = $19, data_retention_expiry = $20,
			has_marketing_consent = $21, has_analytics_consent = $22,
			has_data_sharing_consent = $23, has_notification_consent = $24,
			created_by = $25, updated_by = $26, data_processing_purpose = $27
		WHERE id = $1
	`, memberArgs(m)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

// Execute loads the member with a row lock when a transaction is active,
// validates, mutates, and writes back. Outside a transaction the lock
// degrades to a plain read; callers that need atomicity must run inside
// StoreTx.RunInTx.
func (s *Postgres) Execute(ctx context.Context, memberID id.MemberID,
	validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error) {

	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}

	m, err := scanMember(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(memberID)))
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(m); err != nil {
			return m, err
		}
	}
	mutate(m)

	if err := s.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Postgres) Delete(ctx context.Context, memberID id.MemberID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM members WHERE id = $1`, uuid.UUID(memberID))
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func memberArgs(m *models.Member) []any {
	return []any{
		uuid.UUID(m.ID), m.FirstName, m.LastName, m.Email,
		nullIfEmpty(m.PhoneNumber), m.DateOfBirth, nullIfEmpty(m.Gender),
		nullIfEmpty(m.Address), nullIfEmpty(m.City), nullIfEmpty(m.PostalCode), nullIfEmpty(m.Country),
		m.IsActive, m.IsEmailVerified, m.IsPhoneVerified, m.IsMinor,
		m.CreatedAt, m.UpdatedAt, m.LastLoginAt, m.ConsentUpdatedAt, m.DataRetentionExpiry,
		m.HasMarketingConsent, m.HasAnalyticsConsent, m.HasDataSharingConsent, m.HasNotificationConsent,
		m.CreatedBy, m.UpdatedBy, m.DataProcessingPurpose,
	}
}

func scanMember(row *sql.Row) (*models.Member, error) {
	var (
		m        models.Member
		memberID uuid.UUID

		phone, gender, address, city, postal, country sql.NullString
	)
	err := row.Scan(
		&memberID, &m.FirstName, &m.LastName, &m.Email,
		&phone, &m.DateOfBirth, &gender,
		&address, &city, &postal, &country,
		&m.IsActive, &m.IsEmailVerified, &m.IsPhoneVerified, &m.IsMinor,
		&m.CreatedAt, &m.UpdatedAt, &m.LastLoginAt, &m.ConsentUpdatedAt, &m.DataRetentionExpiry,
		&m.HasMarketingConsent, &m.HasAnalyticsConsent, &m.HasDataSharingConsent, &m.HasNotificationConsent,
		&m.CreatedBy, &m.UpdatedBy, &m.DataProcessingPurpose,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan member: %w", err)
	}

	m.ID = id.MemberID(memberID)
	m.PhoneNumber = phone.String
	m.Gender = gender.String
	m.Address = address.String
	m.City = city.String
	m.PostalCode = postal.String
	m.Country = country.String
	return &m, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
