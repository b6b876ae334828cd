package audit

import (
	"time"

	"github.com/google/uuid"

	id "membergate/pkg/domain"
)

// Action labels an audit entry. Effectively enumerated by call site; the
// strings are part of the legal record and must not change.
type Action string

const (
	ActionRegistration            Action = "Member Registration"
	ActionRegistrationFailed      Action = "Member Registration Failed"
	ActionProfileView             Action = "Profile View"
	ActionProfileUpdate           Action = "Profile Update"
	ActionAccountDeletion         Action = "Account Deletion"
	ActionAccountAnonymization    Action = "Account Anonymization"
	ActionEmailVerification       Action = "Email Verification"
	ActionEmailVerificationFailed Action = "Email Verification Failed"
	ActionConsentUpdate           Action = "Consent Update"
	ActionDataExport              Action = "Data Export"
	ActionDataRetentionSet        Action = "Data Retention Set"
)

// OutboxRow is one pending outbox record awaiting publication to Kafka.
type OutboxRow struct {
	ID        uuid.UUID
	EventType string
	Payload   []byte
}

// Entry is one immutable audit record. Entries are never updated or deleted;
// they survive member anonymization and are written before hard deletion so
// the member reference is preserved in the log.
type Entry struct {
	ID        uuid.UUID   `json:"id"`
	MemberID  id.MemberID `json:"memberId"`
	Action    Action      `json:"action"`
	Details   string      `json:"details"`
	IPAddress string      `json:"ipAddress"`
	UserAgent string      `json:"userAgent"`
	Timestamp time.Time   `json:"timestamp"`
}
