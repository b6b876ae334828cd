package models

import (
	"time"

	consent "membergate/internal/consent/models"
)

// PersonalData is the member's own data as returned by a data access
// request. It is a flat snapshot; omitted fields were never collected.
type PersonalData struct {
	ID                     string     `json:"id"`
	FirstName              string     `json:"firstName"`
	LastName               string     `json:"lastName"`
	Email                  string     `json:"email"`
	PhoneNumber            string     `json:"phoneNumber,omitempty"`
	DateOfBirth            *time.Time `json:"dateOfBirth,omitempty"`
	Gender                 string     `json:"gender,omitempty"`
	Address                string     `json:"address,omitempty"`
	City                   string     `json:"city,omitempty"`
	PostalCode             string     `json:"postalCode,omitempty"`
	Country                string     `json:"country,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
	LastLoginAt            *time.Time `json:"lastLoginAt,omitempty"`
	HasMarketingConsent    bool       `json:"hasMarketingConsent"`
	HasAnalyticsConsent    bool       `json:"hasAnalyticsConsent"`
	HasDataSharingConsent  bool       `json:"hasDataSharingConsent"`
	HasNotificationConsent bool       `json:"hasNotificationConsent"`
	ConsentUpdatedAt       *time.Time `json:"consentUpdatedAt,omitempty"`
	DataRetentionExpiry    *time.Time `json:"dataRetentionExpiry,omitempty"`
}

// ExportBundle is the full data access package: the member's personal data
// plus their complete consent history.
type ExportBundle struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Member      PersonalData      `json:"member"`
	Consents    []consent.Consent `json:"consents"`
}

// ExportPersonalData snapshots the member's personal fields.
func (m *Member) ExportPersonalData() PersonalData {
	return PersonalData{
		ID:                     m.ID.String(),
		FirstName:              m.FirstName,
		LastName:               m.LastName,
		Email:                  m.Email,
		PhoneNumber:            m.PhoneNumber,
		DateOfBirth:            m.DateOfBirth,
		Gender:                 m.Gender,
		Address:                m.Address,
		City:                   m.City,
		PostalCode:             m.PostalCode,
		Country:                m.Country,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
		LastLoginAt:            m.LastLoginAt,
		HasMarketingConsent:    m.HasMarketingConsent,
		HasAnalyticsConsent:    m.HasAnalyticsConsent,
		HasDataSharingConsent:  m.HasDataSharingConsent,
		HasNotificationConsent: m.HasNotificationConsent,
		ConsentUpdatedAt:       m.ConsentUpdatedAt,
		DataRetentionExpiry:    m.DataRetentionExpiry,
	}
}
