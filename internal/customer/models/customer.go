// Package models holds the customer profile aggregate. Customers are the
// CRM-facing view of a person, separate from the member account and its
// GDPR lifecycle.
package models

import (
	"time"

	id "membergate/pkg/domain"
)

// Customer is one customer profile.
type Customer struct {
	ID          id.CustomerID `json:"customerId"`
	Email       string        `json:"email"`
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	PhoneNumber string        `json:"phoneNumber,omitempty"`
	DateOfBirth *time.Time    `json:"dateOfBirth,omitempty"`

	Address     *Address     `json:"address,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`

	Segment id.CustomerSegment `json:"segment"`
	Status  id.CustomerStatus  `json:"status"`
	Tags    []string           `json:"tags"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Address is the customer's postal address.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Preferences holds communication preferences.
type Preferences struct {
	CommunicationChannels   []id.CommunicationChannel `json:"communicationChannels"`
	Language                string                    `json:"language"`
	Timezone                string                    `json:"timezone"`
	MarketingOptIn          bool                      `json:"marketingOptIn"`
	NotificationPreferences NotificationPreferences   `json:"notificationPreferences"`
}

// NotificationPreferences selects notification delivery channels.
type NotificationPreferences struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

// DefaultPreferences mirrors the defaults applied when a customer is created
// without explicit preferences.
func DefaultPreferences() *Preferences {
	return &Preferences{
		CommunicationChannels: []id.CommunicationChannel{},
		Language:              "en-US",
		Timezone:              "UTC",
		NotificationPreferences: NotificationPreferences{
			Email: true,
			Push:  true,
		},
	}
}

// New returns a customer with defaults applied.
func New(email, firstName, lastName string, now time.Time) *Customer {
	return &Customer{
		ID:          id.NewCustomerID(),
		Email:       email,
		FirstName:   firstName,
		LastName:    lastName,
		Segment:     id.SegmentStandard,
		Status:      id.CustomerStatusActive,
		Tags:        []string{},
		Preferences: DefaultPreferences(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FullName joins first and last name.
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Age returns whole years at the given time, or nil when the birth date is
// unknown.
func (c *Customer) Age(now time.Time) *int {
	if c.DateOfBirth == nil {
		return nil
	}
	dob := *c.DateOfBirth
	years := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		years--
	}
	return &years
}

// UpdateStatus transitions the account status.
func (c *Customer) UpdateStatus(status id.CustomerStatus, now time.Time) {
	c.Status = status
	c.UpdatedAt = now
}

// UpdatePreferences replaces the communication preferences wholesale.
func (c *Customer) UpdatePreferences(p Preferences, now time.Time) {
	cp := p
	c.Preferences = &cp
	c.UpdatedAt = now
}
