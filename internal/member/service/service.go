// Package service orchestrates the member lifecycle: registration, profile
// mutation, consent preference changes, verification, export, and the right
// to be forgotten. Multi-write operations run inside a StoreTx so the member
// row, consent history, and audit trail move together.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"membergate/internal/audit"
	consentmodels "membergate/internal/consent/models"
	consentservice "membergate/internal/consent/service"
	"membergate/internal/member/models"
	"membergate/internal/platform/metrics"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/email"
	"membergate/pkg/platform/sentinel"
	"membergate/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Store is the member persistence surface.
type Store interface {
	CreateIfEmailAvailable(ctx context.Context, m *models.Member) error
	FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	Update(ctx context.Context, m *models.Member) error
	Execute(ctx context.Context, memberID id.MemberID, validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error)
	Delete(ctx context.Context, memberID id.MemberID) error
}

// Consents is the slice of the consent service this orchestrator needs.
type Consents interface {
	Create(ctx context.Context, memberID id.MemberID, consentType id.ConsentType, p consentservice.GrantParams) (*consentmodels.Consent, error)
	Withdraw(ctx context.Context, consentID id.ConsentID, reason string) (*consentmodels.Consent, error)
	CurrentByType(ctx context.Context, memberID id.MemberID, consentType id.ConsentType) (*consentmodels.Consent, error)
	HistoryByMember(ctx context.Context, memberID id.MemberID) ([]*consentmodels.Consent, error)
	RemoveAllForMember(ctx context.Context, memberID id.MemberID) error
}

// Auditor appends to the immutable audit trail.
type Auditor interface {
	Emit(ctx context.Context, entry audit.Entry) error
	ListByMember(ctx context.Context, memberID id.MemberID) ([]audit.Entry, error)
}

// Verifier issues and consumes email verification codes.
type Verifier interface {
	Issue(memberID id.MemberID, email string, now time.Time) (string, error)
	Consume(ctx context.Context, code string, memberID id.MemberID, email string) error
}

// Service is the member orchestrator.
type Service struct {
	members  Store
	consents Consents
	auditor  Auditor
	verifier Verifier
	tx        StoreTx
	metrics   *metrics.Metrics
	retention time.Duration
}

// Option configures optional collaborators.
type Option func(*Service)

// WithMetrics wires Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDefaultRetention stamps a retention period on new registrations. Zero
// leaves retention unset until an operator applies one.
func WithDefaultRetention(d time.Duration) Option {
	return func(s *Service) { s.retention = d }
}

func NewService(members Store, consents Consents, auditor Auditor, verifier Verifier, tx StoreTx, opts ...Option) *Service {
	s := &Service{
		members:  members,
		consents: consents,
		auditor:  auditor,
		verifier: verifier,
		tx:       tx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterParams is the registration input: candidate profile plus the two
// registration-time consent booleans.
type RegisterParams struct {
	Profile               models.Profile
	DataProcessingConsent bool
	MarketingConsent      bool
}

// Register creates a member with their initial consent records and the
// registration audit entry as one unit. The data-processing consent is a
// legal precondition checked before anything is persisted.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*models.Member, error) {
	if err := validateProfile(p.Profile); err != nil {
		return nil, err
	}
	if !p.DataProcessingConsent {
		return nil, dErrors.New(dErrors.CodeCompliance, "data processing consent is required for registration")
	}

	now := requestcontext.Now(ctx)
	member := models.New(p.Profile.FirstName, p.Profile.LastName, p.Profile.Email, now)
	member.UpdateProfile(p.Profile, now)
	member.HasMarketingConsent = p.MarketingConsent
	if s.retention > 0 {
		member.SetRetention(s.retention, now)
	}

	err := s.tx.RunInTx(ctx, member.ID, func(ctx context.Context) error {
		if err := s.members.CreateIfEmailAvailable(ctx, member); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "member with this email already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
		}

		if _, err := s.consents.Create(ctx, member.ID, id.ConsentTypeDataProcessing, consentservice.GrantParams{
			Purpose:      "Service provision and account management",
			Method:       "Web Registration",
			Text:         "I consent to the processing of my personal data for service provision",
			LegalBasis:   id.LegalBasisConsent,
			DataCategory: id.DataCategoryPersonal,
		}); err != nil {
			return err
		}

		if p.MarketingConsent {
			if _, err := s.consents.Create(ctx, member.ID, id.ConsentTypeMarketing, consentservice.GrantParams{
				Purpose:      "Marketing communications and promotional offers",
				Method:       "Web Registration",
				Text:         "I consent to receive marketing communications",
				LegalBasis:   id.LegalBasisConsent,
				DataCategory: id.DataCategoryPersonal,
			}); err != nil {
				return err
			}
		}

		return s.auditor.Emit(ctx, audit.Entry{
			MemberID: member.ID,
			Action:   audit.ActionRegistration,
			Details:  fmt.Sprintf("Member registered with email: %s", member.Email),
		})
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.MembersRegistered.Inc()
	}
	return member, nil
}

// GetByID returns the member and records the access in the audit trail.
func (s *Service) GetByID(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, wrapMemberErr(err)
	}

	if err := s.auditor.Emit(ctx, audit.Entry{
		MemberID: memberID,
		Action:   audit.ActionProfileView,
		Details:  "Member profile accessed",
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record profile access")
	}
	return member, nil
}

// UpdateProfile overwrites the member's personal fields. Validation happens
// before any write; the mutation and its audit entry commit together.
func (s *Service) UpdateProfile(ctx context.Context, memberID id.MemberID, p models.Profile) (*models.Member, error) {
	if err := validateProfile(p); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var updated *models.Member
	err := s.tx.RunInTx(ctx, memberID, func(ctx context.Context) error {
		var changed []string
		m, err := s.members.Execute(ctx, memberID,
			func(current *models.Member) error {
				changed = changedFields(current, p)
				return nil
			},
			func(m *models.Member) { m.UpdateProfile(p, now) },
		)
		if err != nil {
			return wrapMemberErr(err)
		}
		updated = m

		return s.auditor.Emit(ctx, audit.Entry{
			MemberID: memberID,
			Action:   audit.ActionProfileUpdate,
			Details:  fmt.Sprintf("Member profile updated: %s", strings.Join(changed, ", ")),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteOrAnonymize implements the right to be forgotten. A hard delete
// removes the member row and its consent records after the audit entry is
// written, so the trail keeps the member reference. Anonymization strips the
// personal fields and keeps all history.
func (s *Service) DeleteOrAnonymize(ctx context.Context, memberID id.MemberID, hardDelete bool, reason string) error {
	err := s.tx.RunInTx(ctx, memberID, func(ctx context.Context) error {
		if _, err := s.members.FindByID(ctx, memberID); err != nil {
			return wrapMemberErr(err)
		}

		if hardDelete {
			if err := s.auditor.Emit(ctx, audit.Entry{
				MemberID: memberID,
				Action:   audit.ActionAccountDeletion,
				Details:  fmt.Sprintf("Member account permanently deleted. Reason: %s", reason),
			}); err != nil {
				return err
			}
			if err := s.consents.RemoveAllForMember(ctx, memberID); err != nil {
				return err
			}
			if err := s.members.Delete(ctx, memberID); err != nil {
				return wrapMemberErr(err)
			}
			return nil
		}

		now := requestcontext.Now(ctx)
		if _, err := s.members.Execute(ctx, memberID, nil,
			func(m *models.Member) { m.Anonymize(now) },
		); err != nil {
			return wrapMemberErr(err)
		}
		return s.auditor.Emit(ctx, audit.Entry{
			MemberID: memberID,
			Action:   audit.ActionAccountAnonymization,
			Details:  fmt.Sprintf("Member account anonymized. Reason: %s", reason),
		})
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		if hardDelete {
			s.metrics.HardDeletes.Inc()
		} else {
			s.metrics.Anonymizations.Inc()
		}
	}
	return nil
}

// RequestEmailVerification issues a verification code for the member's
// current email address. Delivery is the caller's concern.
func (s *Service) RequestEmailVerification(ctx context.Context, memberID id.MemberID) (string, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return "", wrapMemberErr(err)
	}
	return s.verifier.Issue(member.ID, member.Email, requestcontext.Now(ctx))
}

// VerifyEmail consumes the verification code and marks the email verified.
// A failed attempt is audited but still reported to the caller.
func (s *Service) VerifyEmail(ctx context.Context, memberID id.MemberID, code string) error {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return wrapMemberErr(err)
	}

	if err := s.verifier.Consume(ctx, code, member.ID, member.Email); err != nil {
		auditErr := s.auditor.Emit(ctx, audit.Entry{
			MemberID: memberID,
			Action:   audit.ActionEmailVerificationFailed,
			Details:  "Email verification attempt rejected",
		})
		return errors.Join(err, auditErr)
	}

	now := requestcontext.Now(ctx)
	return s.tx.RunInTx(ctx, memberID, func(ctx context.Context) error {
		if _, err := s.members.Execute(ctx, memberID, nil,
			func(m *models.Member) { m.VerifyEmail(now) },
		); err != nil {
			return wrapMemberErr(err)
		}
		return s.auditor.Emit(ctx, audit.Entry{
			MemberID: memberID,
			Action:   audit.ActionEmailVerification,
			Details:  "Email address verified successfully",
		})
	})
}

// flagConsentTypes maps each mirror flag to its consent record type.
var flagConsentTypes = []struct {
	consentType id.ConsentType
	purpose     string
	value       func(models.ConsentFlags) bool
	current     func(*models.Member) bool
}{
	{
		consentType: id.ConsentTypeMarketing,
		purpose:     "Marketing communications and promotional offers",
		value:       func(f models.ConsentFlags) bool { return f.Marketing },
		current:     func(m *models.Member) bool { return m.HasMarketingConsent },
	},
	{
		consentType: id.ConsentTypeAnalytics,
		purpose:     "Usage analytics and service improvement",
		value:       func(f models.ConsentFlags) bool { return f.Analytics },
		current:     func(m *models.Member) bool { return m.HasAnalyticsConsent },
	},
	{
		consentType: id.ConsentTypeDataSharing,
		purpose:     "Sharing data with selected partners",
		value:       func(f models.ConsentFlags) bool { return f.DataSharing },
		current:     func(m *models.Member) bool { return m.HasDataSharingConsent },
	},
	{
		consentType: id.ConsentTypeNotifications,
		purpose:     "Service and account notifications",
		value:       func(f models.ConsentFlags) bool { return f.Notifications },
		current:     func(m *models.Member) bool { return m.HasNotificationConsent },
	},
}

// UpdateConsentPreferences overwrites the mirror flags and keeps the consent
// history in step: a flag turning on grants a new record, a flag turning off
// withdraws the current one. Mirror and history commit together.
func (s *Service) UpdateConsentPreferences(ctx context.Context, memberID id.MemberID, flags models.ConsentFlags) error {
	return s.tx.RunInTx(ctx, memberID, func(ctx context.Context) error {
		before, err := s.members.FindByID(ctx, memberID)
		if err != nil {
			return wrapMemberErr(err)
		}

		now := requestcontext.Now(ctx)
		if _, err := s.members.Execute(ctx, memberID, nil,
			func(m *models.Member) { m.UpdateConsentFlags(flags, now) },
		); err != nil {
			return wrapMemberErr(err)
		}

		for _, fc := range flagConsentTypes {
			want := fc.value(flags)
			if want == fc.current(before) {
				continue
			}
			if want {
				if _, err := s.consents.Create(ctx, memberID, fc.consentType, consentservice.GrantParams{
					Purpose:      fc.purpose,
					Method:       "Preference Update",
					Text:         fmt.Sprintf("I consent to %s", fc.purpose),
					LegalBasis:   id.LegalBasisConsent,
					DataCategory: id.DataCategoryPersonal,
				}); err != nil {
					return err
				}
				continue
			}
			current, err := s.consents.CurrentByType(ctx, memberID, fc.consentType)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeNotFound) {
					continue
				}
				return err
			}
			if _, err := s.consents.Withdraw(ctx, current.ID, "Preference disabled by member"); err != nil {
				return err
			}
		}

		return s.auditor.Emit(ctx, audit.Entry{
			MemberID: memberID,
			Action:   audit.ActionConsentUpdate,
			Details: fmt.Sprintf("Consent preferences updated: Marketing=%t, Analytics=%t",
				flags.Marketing, flags.Analytics),
		})
	})
}

// GetConsentHistory returns the member's full consent history.
func (s *Service) GetConsentHistory(ctx context.Context, memberID id.MemberID) ([]*consentmodels.Consent, error) {
	if _, err := s.members.FindByID(ctx, memberID); err != nil {
		return nil, wrapMemberErr(err)
	}
	return s.consents.HistoryByMember(ctx, memberID)
}

// ExportPersonalData assembles the data access package. It mutates nothing
// except the audit trail, which records exactly one export entry.
func (s *Service) ExportPersonalData(ctx context.Context, memberID id.MemberID) (*models.ExportBundle, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, wrapMemberErr(err)
	}
	history, err := s.consents.HistoryByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	consents := make([]consentmodels.Consent, 0, len(history))
	for _, c := range history {
		consents = append(consents, *c)
	}

	bundle := &models.ExportBundle{
		GeneratedAt: requestcontext.Now(ctx),
		Member:      member.ExportPersonalData(),
		Consents:    consents,
	}

	if err := s.auditor.Emit(ctx, audit.Entry{
		MemberID: memberID,
		Action:   audit.ActionDataExport,
		Details:  "Personal data exported",
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record data export")
	}

	if s.metrics != nil {
		s.metrics.DataExports.Inc()
	}
	return bundle, nil
}

// SetRetention sets the member's retention expiry to now plus the period.
// Any duration is accepted; a negative period expires retention immediately.
func (s *Service) SetRetention(ctx context.Context, memberID id.MemberID, period time.Duration) (*models.Member, error) {
	now := requestcontext.Now(ctx)
	var updated *models.Member
	err := s.tx.RunInTx(ctx, memberID, func(ctx context.Context) error {
		m, err := s.members.Execute(ctx, memberID, nil,
			func(m *models.Member) { m.SetRetention(period, now) },
		)
		if err != nil {
			return wrapMemberErr(err)
		}
		updated = m
		return s.auditor.Emit(ctx, audit.Entry{
			MemberID: memberID,
			Action:   audit.ActionDataRetentionSet,
			Details:  fmt.Sprintf("Data retention period set to %s", period),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// IsGDPRCompliant reports whether the member has a recorded consent decision
// and a currently granted data-processing consent.
func (s *Service) IsGDPRCompliant(ctx context.Context, memberID id.MemberID) (bool, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return false, wrapMemberErr(err)
	}
	if member.ConsentUpdatedAt == nil {
		return false, nil
	}

	current, err := s.consents.CurrentByType(ctx, memberID, id.ConsentTypeDataProcessing)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return current.Granted, nil
}

// GetAuditTrail returns the member's audit entries, oldest first.
func (s *Service) GetAuditTrail(ctx context.Context, memberID id.MemberID) ([]audit.Entry, error) {
	if _, err := s.members.FindByID(ctx, memberID); err != nil {
		return nil, wrapMemberErr(err)
	}
	return s.auditor.ListByMember(ctx, memberID)
}

// RecordLogin stamps the member's last login time.
func (s *Service) RecordLogin(ctx context.Context, memberID id.MemberID) error {
	now := requestcontext.Now(ctx)
	_, err := s.members.Execute(ctx, memberID, nil,
		func(m *models.Member) { m.RecordLogin(now) },
	)
	if err != nil {
		return wrapMemberErr(err)
	}
	return nil
}

func validateProfile(p models.Profile) error {
	if strings.TrimSpace(p.FirstName) == "" {
		return dErrors.New(dErrors.CodeValidation, "first name is required")
	}
	if strings.TrimSpace(p.LastName) == "" {
		return dErrors.New(dErrors.CodeValidation, "last name is required")
	}
	if !email.IsValid(p.Email) {
		return dErrors.New(dErrors.CodeValidation, "a well-formed email address is required")
	}
	return nil
}

// changedFields names the personal fields the update touches, for the audit
// detail line.
func changedFields(current *models.Member, p models.Profile) []string {
	var changed []string
	add := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}
	add("FirstName", current.FirstName != p.FirstName)
	add("LastName", current.LastName != p.LastName)
	add("Email", current.Email != email.Normalize(p.Email))
	add("PhoneNumber", current.PhoneNumber != p.PhoneNumber)
	add("DateOfBirth", !equalTimePtr(current.DateOfBirth, p.DateOfBirth))
	add("Gender", current.Gender != p.Gender)
	add("Address", current.Address != p.Address)
	add("City", current.City != p.City)
	add("PostalCode", current.PostalCode != p.PostalCode)
	add("Country", current.Country != p.Country)
	if len(changed) == 0 {
		changed = append(changed, "no field changes")
	}
	return changed
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func wrapMemberErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "member with this email already exists")
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "member store failure")
}
