package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestNew_Defaults(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	m := New("John", "Doe", "John.Doe@Example.com", now)

	assert.False(t, m.ID.IsNil())
	assert.Equal(t, "john.doe@example.com", m.Email, "email is stored normalized")
	assert.True(t, m.IsActive)
	assert.True(t, m.HasNotificationConsent)
	assert.False(t, m.HasMarketingConsent)
	assert.Equal(t, "System", m.CreatedBy)
	assert.Equal(t, "Service Provision", m.DataProcessingPurpose)
	assert.Equal(t, now, m.CreatedAt)
}

func TestUpdateProfile_RecomputesMinorFlag(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	m := New("A", "B", "a@b.com", now)

	m.UpdateProfile(Profile{
		FirstName:   "A",
		LastName:    "B",
		Email:       "a@b.com",
		DateOfBirth: date(2012, 6, 2),
	}, now)
	assert.True(t, m.IsMinor, "13 years old is a minor")

	m.UpdateProfile(Profile{
		FirstName:   "A",
		LastName:    "B",
		Email:       "a@b.com",
		DateOfBirth: date(2010, 5, 31),
	}, now)
	assert.False(t, m.IsMinor, "16 years old is not a minor")
}

func TestAge_BirthdayBoundary(t *testing.T) {
	m := &Member{DateOfBirth: date(2000, 6, 15)}

	dayBefore := time.Date(2026, 6, 14, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 25, m.Age(dayBefore))

	onBirthday := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 26, m.Age(onBirthday))
}

func TestAge_UnknownDateOfBirth(t *testing.T) {
	m := &Member{}
	assert.Equal(t, 0, m.Age(time.Now()))
}

func TestUpdateConsentFlags(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	m := New("A", "B", "a@b.com", now.Add(-time.Hour))

	m.UpdateConsentFlags(ConsentFlags{Marketing: true, Analytics: true}, now)

	assert.True(t, m.HasMarketingConsent)
	assert.True(t, m.HasAnalyticsConsent)
	assert.False(t, m.HasDataSharingConsent)
	assert.False(t, m.HasNotificationConsent)
	require.NotNil(t, m.ConsentUpdatedAt)
	assert.Equal(t, now, *m.ConsentUpdatedAt)
	assert.Equal(t, now, m.UpdatedAt)
}

func TestAnonymize_IsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	m := New("John", "Doe", "john@example.com", now)
	m.PhoneNumber = "+4512345678"
	m.Address = "Main St 1"
	m.DateOfBirth = date(1990, 1, 1)

	m.Anonymize(now)
	first := *m
	m.Anonymize(now.Add(time.Hour))

	assert.Equal(t, "Anonymous", m.FirstName)
	assert.Equal(t, "User", m.LastName)
	assert.Equal(t, "anonymous_"+m.ID.String()+"@deleted.com", m.Email)
	assert.Equal(t, first.Email, m.Email, "repeated anonymization yields the same email")
	assert.Empty(t, m.PhoneNumber)
	assert.Nil(t, m.DateOfBirth)
	assert.False(t, m.IsActive)
	assert.True(t, m.IsAnonymized())
}

func TestSetRetention(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := New("A", "B", "a@b.com", now)

	assert.True(t, m.IsRetentionValid(now), "no expiry means unbounded retention")

	m.SetRetention(30*24*time.Hour, now)
	require.NotNil(t, m.DataRetentionExpiry)
	assert.Equal(t, now.Add(30*24*time.Hour), *m.DataRetentionExpiry)
	assert.True(t, m.IsRetentionValid(now))
	assert.False(t, m.IsRetentionValid(now.Add(31*24*time.Hour)))
}

func TestDeactivate_RecordsReason(t *testing.T) {
	now := time.Now().UTC()
	m := New("A", "B", "a@b.com", now)

	m.Deactivate("User requested deletion", now)

	assert.False(t, m.IsActive)
	assert.Equal(t, "Deactivated: User requested deletion", m.DataProcessingPurpose)
}

func TestRecordLogin_DoesNotTouchUpdatedAt(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := New("A", "B", "a@b.com", created)

	login := created.Add(48 * time.Hour)
	m.RecordLogin(login)

	require.NotNil(t, m.LastLoginAt)
	assert.Equal(t, login, *m.LastLoginAt)
	assert.Equal(t, created, m.UpdatedAt)
}

func TestExportPersonalData_Snapshot(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	m := New("John", "Doe", "john@example.com", now)
	m.City = "Copenhagen"
	m.HasMarketingConsent = true

	data := m.ExportPersonalData()

	assert.Equal(t, m.ID.String(), data.ID)
	assert.Equal(t, "John", data.FirstName)
	assert.Equal(t, "Copenhagen", data.City)
	assert.True(t, data.HasMarketingConsent)
	assert.Equal(t, "john@example.com", data.Email)
}
