package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "membergate/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the trust boundary rule: IDs must be
// valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseMemberID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseMemberID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseMemberID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseMemberID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, MemberID(validUUID), id)
	})
}

// TestParseID_SecurityInvariants validates that parsing rejects attack
// vectors at API entry points.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE members;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400\u200B-e29b-41d4-a716-446655440000", true},

		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},

		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMemberID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures all ID types share identical
// parsing behavior.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errMember := ParseMemberID(validUUID)
		_, errConsent := ParseConsentID(validUUID)
		_, errCustomer := ParseCustomerID(validUUID)

		require.NoError(t, errMember)
		require.NoError(t, errConsent)
		require.NoError(t, errCustomer)
	})

	for _, input := range invalidInputs {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errMember := ParseMemberID(input)
			_, errConsent := ParseConsentID(input)
			_, errCustomer := ParseCustomerID(input)

			require.Error(t, errMember)
			require.Error(t, errConsent)
			require.Error(t, errCustomer)
		})
	}
}

// TestTypeDistinction verifies the compiler enforces type safety between
// entity identifiers. If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	memberID := MemberID(uuid.New())
	customerID := CustomerID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ MemberID = customerID   // compile error
	// var _ CustomerID = memberID   // compile error

	assert.NotEqual(t, uuid.UUID(memberID), uuid.UUID(customerID))
}
