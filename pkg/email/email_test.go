package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	valid := []string{
		"john@x.com",
		"john.doe@example.co.uk",
		"a+tag@domain.io",
	}
	for _, addr := range valid {
		assert.True(t, IsValid(addr), addr)
	}

	invalid := []string{
		"",
		"plainaddress",
		"@no-local.com",
		"trailing@",
		"two@@ats.com",
		"no-dot@domain",
		"dot-at-end@domain.",
		"spaces in@local.com",
	}
	for _, addr := range invalid {
		assert.False(t, IsValid(addr), addr)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "john@x.com", Normalize("  John@X.COM "))
}

func TestAnonymizedAddress_Deterministic(t *testing.T) {
	a := AnonymizedAddress("abc-123")
	b := AnonymizedAddress("abc-123")
	assert.Equal(t, a, b)
	assert.Equal(t, "anonymous_abc-123@deleted.com", a)
}

func TestDeriveNameFromEmail(t *testing.T) {
	first, last := DeriveNameFromEmail("jane.smith@example.com")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Smith", last)

	first, last = DeriveNameFromEmail("admin@example.com")
	assert.Equal(t, "Admin", first)
	assert.Equal(t, "User", last)
}
