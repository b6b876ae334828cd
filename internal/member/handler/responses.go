package handler

import (
	"time"

	"membergate/internal/audit"
	consentmodels "membergate/internal/consent/models"
	"membergate/internal/member/models"
)

// MemberResponse is the member as returned over HTTP.
type MemberResponse struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	FullName    string     `json:"fullName"`
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

	HasMarketingConsent    bool `json:"hasMarketingConsent"`
	HasAnalyticsConsent    bool `json:"hasAnalyticsConsent"`
	HasDataSharingConsent  bool `json:"hasDataSharingConsent"`
	HasNotificationConsent bool `json:"hasNotificationConsent"`
}

func FromMember(m *models.Member) MemberResponse {
	return MemberResponse{
		ID:                     m.ID.String(),
		FirstName:              m.FirstName,
		LastName:               m.LastName,
		FullName:               m.FullName(),
		Email:                  m.Email,
		PhoneNumber:            m.PhoneNumber,
		DateOfBirth:            m.DateOfBirth,
		Gender:                 m.Gender,
		Address:                m.Address,
		City:                   m.City,
		PostalCode:             m.PostalCode,
		Country:                m.Country,
		IsActive:               m.IsActive,
		IsEmailVerified:        m.IsEmailVerified,
		IsPhoneVerified:        m.IsPhoneVerified,
		IsMinor:                m.IsMinor,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
		LastLoginAt:            m.LastLoginAt,
		ConsentUpdatedAt:       m.ConsentUpdatedAt,
		DataRetentionExpiry:    m.DataRetentionExpiry,
		HasMarketingConsent:    m.HasMarketingConsent,
		HasAnalyticsConsent:    m.HasAnalyticsConsent,
		HasDataSharingConsent:  m.HasDataSharingConsent,
		HasNotificationConsent: m.HasNotificationConsent,
	}
}

// ConsentResponse is one consent history record with its derived status.
type ConsentResponse struct {
	ID              string     `json:"id"`
	Type            string     `json:"consentType"`
	Purpose         string     `json:"purpose"`
	Status          string     `json:"status"`
	Granted         bool       `json:"isGranted"`
	ConsentDate     time.Time  `json:"consentDate"`
	WithdrawnDate   *time.Time `json:"withdrawnDate,omitempty"`
	WithdrawnReason string     `json:"withdrawnReason,omitempty"`
	ExpiryDate      *time.Time `json:"expiryDate,omitempty"`
	Method          string     `json:"consentMethod,omitempty"`
	LegalBasis      string     `json:"legalBasis"`
	DataCategory    string     `json:"dataCategory"`
}

func FromConsent(c *consentmodels.Consent, now time.Time) ConsentResponse {
	return ConsentResponse{
		ID:              c.ID.String(),
		Type:            c.Type.String(),
		Purpose:         c.Purpose,
		Status:          c.Status(now).String(),
		Granted:         c.Granted,
		ConsentDate:     c.ConsentDate,
		WithdrawnDate:   c.WithdrawnDate,
		WithdrawnReason: c.WithdrawnReason,
		ExpiryDate:      c.ExpiryDate,
		Method:          c.Method,
		LegalBasis:      c.LegalBasis.String(),
		DataCategory:    c.DataCategory.String(),
	}
}

func FromConsents(consents []*consentmodels.Consent, now time.Time) []ConsentResponse {
	out := make([]ConsentResponse, 0, len(consents))
	for _, c := range consents {
		out = append(out, FromConsent(c, now))
	}
	return out
}

// AuditEntryResponse is one audit trail record.
type AuditEntryResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func FromAuditEntries(entries []audit.Entry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:        e.ID.String(),
			Action:    string(e.Action),
			Details:   e.Details,
			IPAddress: e.IPAddress,
			UserAgent: e.UserAgent,
			Timestamp: e.Timestamp,
		})
	}
	return out
}

// MessageResponse acknowledges an operation with no entity payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// VerificationCodeResponse returns a freshly issued verification code.
// Delivery over email is not part of this service.
type VerificationCodeResponse struct {
	VerificationCode string `json:"verificationCode"`
}
