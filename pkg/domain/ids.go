// Package domain holds the typed identifiers and closed enumerations shared by
// every layer. Constructing values via the Parse* helpers at trust boundaries
// enforces the allowlists; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "membergate/pkg/domain-errors"
)

// Typed UUID wrappers. The compiler prevents cross-assignment between entity
// identifiers (a MemberID can never be handed to a customer lookup).
type (
	MemberID   uuid.UUID
	ConsentID  uuid.UUID
	CustomerID uuid.UUID
)

func NewMemberID() MemberID     { return MemberID(uuid.New()) }
func NewConsentID() ConsentID   { return ConsentID(uuid.New()) }
func NewCustomerID() CustomerID { return CustomerID(uuid.New()) }

func (id MemberID) String() string   { return uuid.UUID(id).String() }
func (id ConsentID) String() string  { return uuid.UUID(id).String() }
func (id CustomerID) String() string { return uuid.UUID(id).String() }

func (id MemberID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ConsentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CustomerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseMemberID constructs a MemberID from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return MemberID{}, err
	}
	return MemberID(u), nil
}

// ParseConsentID constructs a ConsentID from external input.
func ParseConsentID(s string) (ConsentID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ConsentID{}, err
	}
	return ConsentID(u), nil
}

// ParseCustomerID constructs a CustomerID from external input.
func ParseCustomerID(s string) (CustomerID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return CustomerID{}, err
	}
	return CustomerID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
