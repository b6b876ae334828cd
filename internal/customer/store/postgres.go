package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"membergate/internal/customer/models"
	id "membergate/pkg/domain"
	"membergate/pkg/email"
	"membergate/pkg/platform/sentinel"
	txcontext "membergate/pkg/platform/tx"
)

// Postgres persists customers. Address and preferences are stored as JSONB,
// tags as a text array.
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

const customerColumns = `
	id, email, first_name, last_name, phone_number, date_of_birth,
	address, preferences, segment, status, tags, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, c *models.Customer) error {
	args, err := customerArgs(c)
	if err != nil {
		return err
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, uuid.UUID(customerID))
	return scanCustomer(row)
}

func (s *Postgres) Update(ctx context.Context, c *models.Customer) error {
	args, err := customerArgs(c)
	if err != nil {
		return err
	}
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE customers SET
			email = $2, first_name = $3, last_name = $4, phone_number = $5,
			date_of_birth = $6, address = $7, preferences = $8,
			segment = $9, status = $10, tags = $11, created_at = $12, updated_at = $13
		WHERE id = $1
	`, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("customer not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, customerID id.CustomerID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM customers WHERE id = $1`, uuid.UUID(customerID))
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("customer not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

// List returns one page ordered by creation time, newest first, plus the
// total count.
func (s *Postgres) List(ctx context.Context, offset, limit int) ([]*models.Customer, int, error) {
	var total int
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+customerColumns+` FROM customers
		ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	return out, total, nil
}

func customerArgs(c *models.Customer) ([]any, error) {
	var addr, prefs []byte
	var err error
	if c.Address != nil {
		if addr, err = json.Marshal(c.Address); err != nil {
			return nil, fmt.Errorf("marshal address: %w", err)
		}
	}
	if c.Preferences != nil {
		if prefs, err = json.Marshal(c.Preferences); err != nil {
			return nil, fmt.Errorf("marshal preferences: %w", err)
		}
	}

	return []any{
		uuid.UUID(c.ID), email.Normalize(c.Email), c.FirstName, c.LastName,
		nullIfEmpty(c.PhoneNumber), c.DateOfBirth,
		nullIfNil(addr), nullIfNil(prefs),
		c.Segment.String(), c.Status.String(), pq.Array(c.Tags),
		c.CreatedAt, c.UpdatedAt,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var (
		c          models.Customer
		customerID uuid.UUID
		phone      sql.NullString
		addr       []byte
		prefs      []byte
		segment    string
		status     string
		tags       pq.StringArray
	)
	err := row.Scan(
		&customerID, &c.Email, &c.FirstName, &c.LastName, &phone, &c.DateOfBirth,
		&addr, &prefs, &segment, &status, &tags, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan customer: %w", err)
	}

	c.ID = id.CustomerID(customerID)
	c.PhoneNumber = phone.String
	c.Segment = id.CustomerSegment(segment)
	c.Status = id.CustomerStatus(status)
	c.Tags = []string(tags)
	if len(addr) > 0 {
		c.Address = &models.Address{}
		if err := json.Unmarshal(addr, c.Address); err != nil {
			return nil, fmt.Errorf("unmarshal address: %w", err)
		}
	}
	if len(prefs) > 0 {
		c.Preferences = &models.Preferences{}
		if err := json.Unmarshal(prefs, c.Preferences); err != nil {
			return nil, fmt.Errorf("unmarshal preferences: %w", err)
		}
	}
	return &c, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfNil(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
