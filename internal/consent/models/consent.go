package models

import (
	"time"

	id "membergate/pkg/domain"
)

// WithdrawnReasonExpired is the fixed reason recorded by Expire. It is how an
// expiry is told apart from a member-initiated withdrawal in the history.
const WithdrawnReasonExpired = "Consent Expired"

// Consent captures one grant/withdrawal/expiry decision for a (member, type)
// pair, together with the capture metadata GDPR audits require.
//
// Records are append-only history: they are mutated in place on withdrawal,
// expiry, or renewal but never deleted. A member may hold several records per
// type over time; the "current" one is the most recently granted record that
// is neither withdrawn nor expired.
type Consent struct {
	ID       id.ConsentID  `json:"id"`
	MemberID id.MemberID   `json:"memberId"`
	Type     id.ConsentType `json:"consentType"`
	Purpose  string        `json:"purpose"`
	Granted  bool          `json:"isGranted"`

	ConsentDate     time.Time  `json:"consentDate"`
	WithdrawnDate   *time.Time `json:"withdrawnDate,omitempty"`
	WithdrawnReason string     `json:"withdrawnReason,omitempty"`
	ExpiryDate      *time.Time `json:"expiryDate,omitempty"`

	// Capture metadata: how the decision was collected and the exact text
	// the member saw.
	Method    string `json:"consentMethod"`
	Text      string `json:"consentText"`
	IPAddress string `json:"ipAddress"`
	UserAgent string `json:"userAgent"`

	LegalBasis   id.LegalBasis   `json:"legalBasis"`
	DataCategory id.DataCategory `json:"dataCategory"`

	// Active distinguishes live records from terminally expired ones. A
	// withdrawn consent stays active as a historical record.
	Active bool `json:"isActive"`
}

// New returns an ungranted, active consent shell for the given member and
// type. Call Grant to record the actual decision.
func New(memberID id.MemberID, consentType id.ConsentType, now time.Time) *Consent {
	return &Consent{
		ID:          id.NewConsentID(),
		MemberID:    memberID,
		Type:        consentType,
		ConsentDate: now,
		Active:      true,
	}
}

// Grant records a positive decision, overwriting any prior capture metadata
// and clearing withdrawal state. Re-granting is idempotent in effect.
func (c *Consent) Grant(purpose, method, text, ipAddress, userAgent string,
	legalBasis id.LegalBasis, dataCategory id.DataCategory, now time.Time) {
	c.Granted = true
	c.Purpose = purpose
	c.Method = method
	c.Text = text
	c.IPAddress = ipAddress
	c.UserAgent = userAgent
	c.LegalBasis = legalBasis
	c.DataCategory = dataCategory
	c.ConsentDate = now
	c.WithdrawnDate = nil
	c.WithdrawnReason = ""
	c.Active = true
}

// Withdraw records a member-initiated withdrawal. The record stays active as
// history; only Expire clears the active flag.
func (c *Consent) Withdraw(reason string, now time.Time) {
	c.Granted = false
	withdrawnAt := now
	c.WithdrawnDate = &withdrawnAt
	c.WithdrawnReason = reason
}

// Expire terminally deactivates the record with the fixed expiry reason.
// Distinct from Withdraw: status becomes Inactive, not Withdrawn.
func (c *Consent) Expire(now time.Time) {
	c.Active = false
	withdrawnAt := now
	c.WithdrawnDate = &withdrawnAt
	c.WithdrawnReason = WithdrawnReasonExpired
}

// Renew extends the record with a new expiry and reactivates it. It does not
// re-set the granted flag; the caller must confirm the grant separately.
func (c *Consent) Renew(newExpiry time.Time, now time.Time) {
	expiry := newExpiry
	c.ExpiryDate = &expiry
	c.Active = true
	c.ConsentDate = now
}

// IsWithdrawn reports whether a withdrawal timestamp is set (including the
// one written by Expire).
func (c *Consent) IsWithdrawn() bool {
	return c.WithdrawnDate != nil
}

// IsValid is the predicate callers use to gate data processing:
// granted AND active AND (no expiry OR expiry in the future).
//
// Note this is deliberately distinct from Status: a record whose expiry has
// silently passed still reports StatusGranted until Expire is called, but
// IsValid already returns false.
func (c *Consent) IsValid(now time.Time) bool {
	if !c.Granted || !c.Active {
		return false
	}
	return c.ExpiryDate == nil || c.ExpiryDate.After(now)
}

// Status derives the lifecycle state on read; it is never stored.
func (c *Consent) Status(now time.Time) id.ConsentStatus {
	if !c.Active {
		return id.ConsentStatusInactive
	}
	if c.IsWithdrawn() {
		return id.ConsentStatusWithdrawn
	}
	if c.ExpiryDate != nil && !c.ExpiryDate.After(now) {
		return id.ConsentStatusExpired
	}
	if c.Granted {
		return id.ConsentStatusGranted
	}
	return id.ConsentStatusPending
}

// Duration reports how long the consent has been (or was) in force.
func (c *Consent) Duration(now time.Time) time.Duration {
	end := now
	if c.WithdrawnDate != nil {
		end = *c.WithdrawnDate
	}
	return end.Sub(c.ConsentDate)
}
