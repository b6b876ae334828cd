package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "membergate/pkg/domain-errors"
)

// The enum parsers share one contract: empty and unknown values are rejected
// with CodeInvalidInput, known values round-trip through String.
func TestEnumParsers(t *testing.T) {
	tests := []struct {
		name    string
		parse   func(string) (string, error)
		valid   string
		invalid string
	}{
		{
			name: "consent type",
			parse: func(s string) (string, error) {
				v, err := ParseConsentType(s)
				return v.String(), err
			},
			valid:   "Marketing",
			invalid: "Telepathy",
		},
		{
			name: "legal basis",
			parse: func(s string) (string, error) {
				v, err := ParseLegalBasis(s)
				return v.String(), err
			},
			valid:   "LegitimateInterests",
			invalid: "Vibes",
		},
		{
			name: "data category",
			parse: func(s string) (string, error) {
				v, err := ParseDataCategory(s)
				return v.String(), err
			},
			valid:   "Biometric",
			invalid: "Astrological",
		},
		{
			name: "customer segment",
			parse: func(s string) (string, error) {
				v, err := ParseCustomerSegment(s)
				return v.String(), err
			},
			valid:   "Premium",
			invalid: "Platinum",
		},
		{
			name: "customer status",
			parse: func(s string) (string, error) {
				v, err := ParseCustomerStatus(s)
				return v.String(), err
			},
			valid:   "Suspended",
			invalid: "Frozen",
		},
		{
			name: "communication channel",
			parse: func(s string) (string, error) {
				v, err := ParseCommunicationChannel(s)
				return v.String(), err
			},
			valid:   "Sms",
			invalid: "Fax",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.valid)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, got)

			_, err = tt.parse(tt.invalid)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

			_, err = tt.parse("")
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

// Case sensitivity is deliberate: values are stored verbatim, so the parser
// must not silently accept a different casing.
func TestEnumParsersAreCaseSensitive(t *testing.T) {
	_, err := ParseConsentType("marketing")
	require.Error(t, err)

	_, err = ParseCustomerStatus("ACTIVE")
	require.Error(t, err)
}
