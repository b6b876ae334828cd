package email

import (
	"fmt"
	"strings"
	"unicode"
)

// IsValid performs the structural email check used by registration and
// profile updates: one '@' with a non-empty local part and a dotted domain.
// Full RFC 5322 parsing is deliberately out of scope; the mail provider is
// the final authority.
func IsValid(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if strings.IndexByte(email[at+1:], '@') != -1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.IndexByte(domain, '.')
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n")
}

// Normalize lowercases and trims an address for case-insensitive uniqueness
// comparisons. Stored addresses keep their original casing.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AnonymizedAddress returns the deterministic per-id replacement address used
// when a record is anonymized. Deterministic so Anonymize stays idempotent.
func AnonymizedAddress(id string) string {
	return fmt.Sprintf("anonymous_%s@deleted.com", id)
}

// DeriveNameFromEmail splits an address's local part into a first/last name
// guess for pre-filling profile fields.
func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
