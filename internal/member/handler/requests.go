package handler

import (
	"strings"
	"time"

	"membergate/internal/member/models"
	"membergate/internal/member/service"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/email"
)

// RegisterRequest is the registration payload: candidate profile plus the
// two registration-time consent booleans.
type RegisterRequest struct {
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

	HasDataProcessingConsent bool `json:"hasDataProcessingConsent"`
	HasMarketingConsent      bool `json:"hasMarketingConsent"`
}

func (r *RegisterRequest) Validate() error {
	return validateNameAndEmail(r.FirstName, r.LastName, r.Email)
}

func (r *RegisterRequest) ToParams() service.RegisterParams {
	return service.RegisterParams{
		Profile:               r.profile(),
		DataProcessingConsent: r.HasDataProcessingConsent,
		MarketingConsent:      r.HasMarketingConsent,
	}
}

func (r *RegisterRequest) profile() models.Profile {
	return models.Profile{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		DateOfBirth: r.DateOfBirth,
		Gender:      r.Gender,
		Address:     r.Address,
		City:        r.City,
		PostalCode:  r.PostalCode,
		Country:     r.Country,
	}
}

// UpdateProfileRequest overwrites the member's personal fields wholesale.
type UpdateProfileRequest struct {
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
}

func (r *UpdateProfileRequest) Validate() error {
	return validateNameAndEmail(r.FirstName, r.LastName, r.Email)
}

func (r *UpdateProfileRequest) ToProfile() models.Profile {
	return models.Profile{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		DateOfBirth: r.DateOfBirth,
		Gender:      r.Gender,
		Address:     r.Address,
		City:        r.City,
		PostalCode:  r.PostalCode,
		Country:     r.Country,
	}
}

// DeleteRequest selects hard deletion or anonymization.
type DeleteRequest struct {
	IsHardDelete bool   `json:"isHardDelete"`
	Reason       string `json:"reason"`
}

func (r *DeleteRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "a reason is required")
	}
	return nil
}

// VerifyEmailRequest carries the verification code.
type VerifyEmailRequest struct {
	VerificationCode string `json:"verificationCode"`
}

func (r *VerifyEmailRequest) Validate() error {
	if strings.TrimSpace(r.VerificationCode) == "" {
		return dErrors.New(dErrors.CodeValidation, "verification code is required")
	}
	return nil
}

// UpdateConsentRequest overwrites the four consent preference flags.
type UpdateConsentRequest struct {
	HasMarketingConsent    bool `json:"hasMarketingConsent"`
	HasAnalyticsConsent    bool `json:"hasAnalyticsConsent"`
	HasDataSharingConsent  bool `json:"hasDataSharingConsent"`
	HasNotificationConsent bool `json:"hasNotificationConsent"`
}

func (r *UpdateConsentRequest) ToFlags() models.ConsentFlags {
	return models.ConsentFlags{
		Marketing:     r.HasMarketingConsent,
		Analytics:     r.HasAnalyticsConsent,
		DataSharing:   r.HasDataSharingConsent,
		Notifications: r.HasNotificationConsent,
	}
}

// SetRetentionRequest sets the retention period in days. Negative values are
// accepted and expire retention immediately.
type SetRetentionRequest struct {
	RetentionDays int `json:"retentionDays"`
}

func (r *SetRetentionRequest) Period() time.Duration {
	return time.Duration(r.RetentionDays) * 24 * time.Hour
}

func validateNameAndEmail(firstName, lastName, addr string) error {
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
