// Package domainerrors defines code-tagged errors shared between services and
// the transport layer. Services attach a Code describing the category of
// failure; the HTTP layer maps codes to status codes without inspecting
// messages. Store-level facts use pkg/platform/sentinel instead and are
// translated into these errors by services.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code categorizes a domain failure.
type Code string

const (
	// CodeValidation marks malformed or missing required input. The caller
	// must fix the request; retrying unchanged will fail again.
	CodeValidation Code = "validation"
	// CodeCompliance marks an unmet legal precondition (e.g. missing
	// mandatory data-processing consent). Never auto-retried.
	CodeCompliance Code = "compliance"
	// CodeConflict marks a duplicate unique key.
	CodeConflict Code = "conflict"
	// CodeNotFound marks an unknown entity id.
	CodeNotFound Code = "not_found"

	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal"
)

// Error is the concrete code-tagged error type. Use New/Wrap to construct.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a code-tagged error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		de = nil
	}
	return false
}

// Is is a convenience alias for HasCode used at call sites that read better
// as a predicate.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries none. Unexpected collaborator failures therefore surface
// distinctly from the domain taxonomy.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Message returns the outermost tagged message, or the raw error text.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ToHTTPStatus maps a domain error code to an HTTP status code. The transport
// layer owns status semantics; services never import net/http for this.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeCompliance:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
