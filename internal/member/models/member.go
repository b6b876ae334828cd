// Package models holds the member aggregate. All mutations go through
// methods that stamp UpdatedAt from the supplied clock so callers control
// time in tests and request handling.
package models

import (
	"fmt"
	"time"

	"membergate/pkg/email"

	id "membergate/pkg/domain"
)

// GDPR age of digital consent.
const minorAgeThreshold = 16

const (
	purposeServiceProvision = "Service Provision"
	purposeAnonymized       = "Data Anonymized"
)

// Member is a registered user together with the privacy state GDPR requires
// us to track: verification flags, consent mirrors, and retention expiry.
type Member struct {
	ID id.MemberID `json:"id"`

	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	Address     string     `json:"address,omitempty"`
	City        string     `json:"city,omitempty"`
	PostalCode  string     `json:"postalCode,omitempty"`
	Country     string     `json:"country,omitempty"`

	IsActive        bool `json:"isActive"`
	IsEmailVerified bool `json:"isEmailVerified"`
	IsPhoneVerified bool `json:"isPhoneVerified"`
	IsMinor         bool `json:"isMinor"`

	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
	ConsentUpdatedAt    *time.Time `json:"consentUpdatedAt,omitempty"`
	DataRetentionExpiry *time.Time `json:"dataRetentionExpiry,omitempty"`

	// Consent flags mirror the current state of the consent records for
	// fast reads. The consent history remains the source of truth.
	HasMarketingConsent    bool `json:"hasMarketingConsent"`
	HasAnalyticsConsent    bool `json:"hasAnalyticsConsent"`
	HasDataSharingConsent  bool `json:"hasDataSharingConsent"`
	HasNotificationConsent bool `json:"hasNotificationConsent"`

	CreatedBy             string `json:"createdBy"`
	UpdatedBy             string `json:"updatedBy"`
	DataProcessingPurpose string `json:"dataProcessingPurpose"`
}

// New returns a fresh member with defaults applied. Email is stored
// normalized; the uniqueness check at the store compares the same form.
func New(firstName, lastName, emailAddr string, now time.Time) *Member {
	return &Member{
		ID:                     id.NewMemberID(),
		FirstName:              firstName,
		LastName:               lastName,
		Email:                  email.Normalize(emailAddr),
		IsActive:               true,
		HasNotificationConsent: true,
		CreatedAt:              now,
		UpdatedAt:              now,
		CreatedBy:              "System",
		UpdatedBy:              "System",
		DataProcessingPurpose:  purposeServiceProvision,
	}
}

// Profile carries the mutable personal fields for UpdateProfile.
type Profile struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	DateOfBirth *time.Time
	Gender      string
	Address     string
	City        string
	PostalCode  string
	Country     string
}

// UpdateProfile replaces the personal fields wholesale and recomputes the
// minor flag from the new date of birth.
func (m *Member) UpdateProfile(p Profile, now time.Time) {
	m.FirstName = p.FirstName
	m.LastName = p.LastName
	m.Email = email.Normalize(p.Email)
	m.PhoneNumber = p.PhoneNumber
	m.DateOfBirth = p.DateOfBirth
	m.Gender = p.Gender
	m.Address = p.Address
	m.City = p.City
	m.PostalCode = p.PostalCode
	m.Country = p.Country
	m.UpdatedAt = now
	// An unknown birth date means age cannot be established; the member is
	// not flagged as a minor in that case.
	m.IsMinor = m.DateOfBirth != nil && m.Age(now) < minorAgeThreshold
}

// ConsentFlags carries the four consent mirror booleans.
type ConsentFlags struct {
	Marketing     bool
	Analytics     bool
	DataSharing   bool
	Notifications bool
}

// UpdateConsentFlags sets the mirror flags and stamps ConsentUpdatedAt.
func (m *Member) UpdateConsentFlags(f ConsentFlags, now time.Time) {
	m.HasMarketingConsent = f.Marketing
	m.HasAnalyticsConsent = f.Analytics
	m.HasDataSharingConsent = f.DataSharing
	m.HasNotificationConsent = f.Notifications
	t := now
	m.ConsentUpdatedAt = &t
	m.UpdatedAt = now
}

// SetRetention sets the retention expiry to now plus the given period.
func (m *Member) SetRetention(period time.Duration, now time.Time) {
	expiry := now.Add(period)
	m.DataRetentionExpiry = &expiry
	m.UpdatedAt = now
}

// VerifyEmail marks the email address as verified.
func (m *Member) VerifyEmail(now time.Time) {
	m.IsEmailVerified = true
	m.UpdatedAt = now
}

// VerifyPhone marks the phone number as verified.
func (m *Member) VerifyPhone(now time.Time) {
	m.IsPhoneVerified = true
	m.UpdatedAt = now
}

// Deactivate disables the account and records the reason in the processing
// purpose field.
func (m *Member) Deactivate(reason string, now time.Time) {
	m.IsActive = false
	m.UpdatedAt = now
	m.DataProcessingPurpose = fmt.Sprintf("Deactivated: %s", reason)
}

// RecordLogin stamps the last login time. It does not touch UpdatedAt;
// logins are not profile changes.
func (m *Member) RecordLogin(now time.Time) {
	t := now
	m.LastLoginAt = &t
}

// Anonymize strips all personal fields, replacing identity with placeholder
// values. The email is derived from the member ID so repeated calls produce
// the same result. Audit history and consent records stay untouched.
func (m *Member) Anonymize(now time.Time) {
	m.FirstName = "Anonymous"
	m.LastName = "User"
	m.Email = email.AnonymizedAddress(m.ID.String())
	m.PhoneNumber = ""
	m.DateOfBirth = nil
	m.Gender = ""
	m.Address = ""
	m.City = ""
	m.PostalCode = ""
	m.Country = ""
	m.IsActive = false
	m.UpdatedAt = now
	m.DataProcessingPurpose = purposeAnonymized
}

// IsAnonymized reports whether the member has been through Anonymize.
func (m *Member) IsAnonymized() bool {
	return m.DataProcessingPurpose == purposeAnonymized
}

// FullName joins first and last name.
func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// Age returns whole years at the given time, zero when the date of birth is
// unknown.
func (m *Member) Age(now time.Time) int {
	if m.DateOfBirth == nil {
		return 0
	}
	dob := *m.DateOfBirth
	years := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// IsRetentionValid reports whether the member's data may still be retained.
// No expiry means retention is unbounded.
func (m *Member) IsRetentionValid(now time.Time) bool {
	return m.DataRetentionExpiry == nil || m.DataRetentionExpiry.After(now)
}
