package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"membergate/internal/consent/models"
	"membergate/internal/platform/metrics"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/platform/sentinel"
	"membergate/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Store is the persistence surface the consent service needs.
type Store interface {
	Save(ctx context.Context, consent *models.Consent) error
	Update(ctx context.Context, consent *models.Consent) error
	FindByID(ctx context.Context, consentID id.ConsentID) (*models.Consent, error)
	ListByMember(ctx context.Context, memberID id.MemberID) ([]*models.Consent, error)
	DeleteByMember(ctx context.Context, memberID id.MemberID) error
}

// Service owns the consent record lifecycle: granting, withdrawal, renewal,
// and explicit expiry. Member-level orchestration (mirror flags, audit)
// lives in the member service; this service keeps the history itself
// consistent.
type Service struct {
	store    Store
	metrics  *metrics.Metrics
	validity time.Duration
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithMetrics wires Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDefaultValidity attaches an expiry to freshly granted consents that
// carry none. Zero keeps grants open-ended.
func WithDefaultValidity(d time.Duration) Option {
	return func(s *Service) { s.validity = d }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GrantParams carries the capture details for a new consent record. Requester
// IP and User-Agent come from the request context, not from the caller.
type GrantParams struct {
	Purpose      string
	Method       string
	Text         string
	LegalBasis   id.LegalBasis
	DataCategory id.DataCategory
	Expiry       *time.Time
}

// Create grants a consent of the given type and persists it as a new history
// record.
func (s *Service) Create(ctx context.Context, memberID id.MemberID, consentType id.ConsentType, p GrantParams) (*models.Consent, error) {
	if memberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "member id is required")
	}
	if !consentType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid consent type")
	}
	if !p.LegalBasis.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid legal basis")
	}
	if !p.DataCategory.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid data category")
	}

	now := requestcontext.Now(ctx)
	consent := models.New(memberID, consentType, now)
	consent.Grant(p.Purpose, p.Method, p.Text,
		requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx),
		p.LegalBasis, p.DataCategory, now)
	if p.Expiry != nil {
		expiry := *p.Expiry
		consent.ExpiryDate = &expiry
	} else if s.validity > 0 {
		expiry := now.Add(s.validity)
		consent.ExpiryDate = &expiry
	}

	if err := s.store.Save(ctx, consent); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save consent")
	}
	s.incrementGranted()
	return consent, nil
}

// Withdraw records a member-initiated withdrawal with the supplied reason.
func (s *Service) Withdraw(ctx context.Context, consentID id.ConsentID, reason string) (*models.Consent, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "withdrawal reason is required")
	}

	consent, err := s.store.FindByID(ctx, consentID)
	if err != nil {
		return nil, wrapConsentErr(err)
	}

	consent.Withdraw(reason, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, consent); err != nil {
		return nil, wrapConsentErr(err)
	}
	s.incrementWithdrawn()
	return consent, nil
}

// Renew extends a consent with a new expiry. Per the recorded semantics the
// grant flag is untouched; callers must confirm the grant separately.
func (s *Service) Renew(ctx context.Context, consentID id.ConsentID, newExpiry time.Time) (*models.Consent, error) {
	if newExpiry.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "new expiry date is required")
	}

	consent, err := s.store.FindByID(ctx, consentID)
	if err != nil {
		return nil, wrapConsentErr(err)
	}

	consent.Renew(newExpiry, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, consent); err != nil {
		return nil, wrapConsentErr(err)
	}
	return consent, nil
}

// ExpireOutdated persists the terminal Expired state for every active record
// of the member whose expiry has passed. The derived status already reports
// Expired lazily; call this when the stored state matters. There is no
// background scheduler - invocation is the caller's responsibility.
func (s *Service) ExpireOutdated(ctx context.Context, memberID id.MemberID) (int, error) {
	consents, err := s.store.ListByMember(ctx, memberID)
	if err != nil {
		return 0, wrapConsentErr(err)
	}

	now := requestcontext.Now(ctx)
	expired := 0
	for _, consent := range consents {
		if !consent.Active || consent.ExpiryDate == nil || consent.ExpiryDate.After(now) {
			continue
		}
		consent.Expire(now)
		if err := s.store.Update(ctx, consent); err != nil {
			return expired, wrapConsentErr(err)
		}
		expired++
	}
	return expired, nil
}

// HistoryByMember returns the append-only consent history, most recent first.
func (s *Service) HistoryByMember(ctx context.Context, memberID id.MemberID) ([]*models.Consent, error) {
	consents, err := s.store.ListByMember(ctx, memberID)
	if err != nil {
		return nil, wrapConsentErr(err)
	}
	return consents, nil
}

// CurrentByType returns the consent record considered current for the given
// type: the most recently granted one that is neither withdrawn nor expired.
func (s *Service) CurrentByType(ctx context.Context, memberID id.MemberID, consentType id.ConsentType) (*models.Consent, error) {
	consents, err := s.store.ListByMember(ctx, memberID)
	if err != nil {
		return nil, wrapConsentErr(err)
	}

	now := requestcontext.Now(ctx)
	for _, consent := range consents {
		if consent.Type == consentType && consent.IsValid(now) {
			return consent, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "no current consent for type")
}

// RemoveAllForMember deletes every consent record of the member. Only the
// hard-delete path calls this; anonymization keeps the history.
func (s *Service) RemoveAllForMember(ctx context.Context, memberID id.MemberID) error {
	if err := s.store.DeleteByMember(ctx, memberID); err != nil {
		return wrapConsentErr(err)
	}
	return nil
}

func (s *Service) incrementGranted() {
	if s.metrics != nil {
		s.metrics.ConsentsGranted.Inc()
	}
}

func (s *Service) incrementWithdrawn() {
	if s.metrics != nil {
		s.metrics.ConsentsWithdrawn.Inc()
	}
}

func wrapConsentErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "consent not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "consent store failure")
}
