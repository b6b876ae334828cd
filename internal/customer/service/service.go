// Package service owns the customer profile CRUD operations.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"membergate/internal/customer/models"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/email"
	"membergate/pkg/platform/sentinel"
	"membergate/pkg/requestcontext"
)

// Store is the customer persistence surface.
type Store interface {
	Create(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	Update(ctx context.Context, c *models.Customer) error
	Delete(ctx context.Context, customerID id.CustomerID) error
	List(ctx context.Context, offset, limit int) ([]*models.Customer, int, error)
}

// Service is the customer profile service.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateParams carries the fields for a new customer profile.
type CreateParams struct {
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	DateOfBirth *time.Time
	Address     *models.Address
	Preferences *models.Preferences
	Segment     id.CustomerSegment
	Tags        []string
}

// Create validates and persists a new customer profile.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.Customer, error) {
	if err := validateIdentity(p.FirstName, p.LastName, p.Email); err != nil {
		return nil, err
	}
	if p.Segment != "" && !p.Segment.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid customer segment")
	}

	now := requestcontext.Now(ctx)
	customer := models.New(email.Normalize(p.Email), p.FirstName, p.LastName, now)
	customer.PhoneNumber = p.PhoneNumber
	customer.DateOfBirth = p.DateOfBirth
	if p.Address != nil {
		addr := *p.Address
		customer.Address = &addr
	}
	if p.Preferences != nil {
		customer.UpdatePreferences(*p.Preferences, now)
	}
	if p.Segment != "" {
		customer.Segment = p.Segment
	}
	if len(p.Tags) > 0 {
		customer.Tags = append([]string(nil), p.Tags...)
	}

	if err := s.store.Create(ctx, customer); err != nil {
		return nil, wrapCustomerErr(err)
	}
	return customer, nil
}

// GetByID returns the customer profile.
func (s *Service) GetByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	customer, err := s.store.FindByID(ctx, customerID)
	if err != nil {
		return nil, wrapCustomerErr(err)
	}
	return customer, nil
}

// UpdateParams carries the mutable profile fields for an update.
type UpdateParams struct {
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	Address     *models.Address
	Tags        []string
}

// Update overwrites the customer's profile fields.
func (s *Service) Update(ctx context.Context, customerID id.CustomerID, p UpdateParams) (*models.Customer, error) {
	if err := validateIdentity(p.FirstName, p.LastName, p.Email); err != nil {
		return nil, err
	}

	customer, err := s.store.FindByID(ctx, customerID)
	if err != nil {
		return nil, wrapCustomerErr(err)
	}

	customer.Email = email.Normalize(p.Email)
	customer.FirstName = p.FirstName
	customer.LastName = p.LastName
	customer.PhoneNumber = p.PhoneNumber
	if p.Address != nil {
		addr := *p.Address
		customer.Address = &addr
	} else {
		customer.Address = nil
	}
	customer.Tags = append([]string(nil), p.Tags...)
	customer.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, customer); err != nil {
		return nil, wrapCustomerErr(err)
	}
	return customer, nil
}

// UpdateStatus transitions the customer's account status.
func (s *Service) UpdateStatus(ctx context.Context, customerID id.CustomerID, status id.CustomerStatus) (*models.Customer, error) {
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid customer status")
	}

	customer, err := s.store.FindByID(ctx, customerID)
	if err != nil {
		return nil, wrapCustomerErr(err)
	}

	customer.UpdateStatus(status, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, customer); err != nil {
		return nil, wrapCustomerErr(err)
	}
	return customer, nil
}

// UpdatePreferences replaces the customer's communication preferences.
func (s *Service) UpdatePreferences(ctx context.Context, customerID id.CustomerID, p models.Preferences) (*models.Customer, error) {
	for _, ch := range p.CommunicationChannels {
		if !ch.IsValid() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid communication channel")
		}
	}

	customer, err := s.store.FindByID(ctx, customerID)
	if err != nil {
		return nil, wrapCustomerErr(err)
	}

	customer.UpdatePreferences(p, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, customer); err != nil {
		return nil, wrapCustomerErr(err)
	}
	return customer, nil
}

// Delete removes the customer profile.
func (s *Service) Delete(ctx context.Context, customerID id.CustomerID) error {
	if err := s.store.Delete(ctx, customerID); err != nil {
		return wrapCustomerErr(err)
	}
	return nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is one page of customers.
type Page struct {
	Customers []*models.Customer
	Total     int
	Offset    int
	Limit     int
}

// List returns a page of customers, newest first. Limits are clamped to a
// sane range.
func (s *Service) List(ctx context.Context, offset, limit int) (*Page, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	customers, total, err := s.store.List(ctx, offset, limit)
	if err != nil {
		return nil, wrapCustomerErr(err)
	}
	return &Page{Customers: customers, Total: total, Offset: offset, Limit: limit}, nil
}

func validateIdentity(firstName, lastName, addr string) error {
	if strings.TrimSpace(firstName) == "" {
		return dErrors.New(dErrors.CodeValidation, "first name is required")
	}
	if strings.TrimSpace(lastName) == "" {
		return dErrors.New(dErrors.CodeValidation, "last name is required")
	}
	if !email.IsValid(addr) {
		return dErrors.New(dErrors.CodeValidation, "a well-formed email address is required")
	}
	return nil
}

func wrapCustomerErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "customer not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "customer with this email already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "customer store failure")
}
