// Package errs defines the error taxonomy shared across Linebid
// components. Callers match these with errors.As.
package errs

import (
	"fmt"
	"time"

	"github.com/linebid/linebid/internal/models"
)

// ValidationError reports malformed input: a bad template length, an
// out-of-range cycle count, an unparseable date.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "validation: " + e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown bid line, user, or schedule.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ConflictError reports a lost race: a claim on a line that is no
// longer AVAILABLE, or a rank-ledger transaction that could not be
// serialized after retries. For claims it carries the line's current
// authoritative state so the caller can reconcile without a second
// round-trip.
type ConflictError struct {
	BidLineID uint
	Status    models.LineStatus
	TakenBy   string
	TakenAt   time.Time
	Msg       string
}

func (e *ConflictError) Error() string {
	if e.Msg != "" {
		return "conflict: " + e.Msg
	}
	if e.TakenBy != "" {
		return fmt.Sprintf("conflict: line %d is %s by %s", e.BidLineID, e.Status, e.TakenBy)
	}
	return fmt.Sprintf("conflict: line %d is %s", e.BidLineID, e.Status)
}

// PolicyError reports an operation disabled by organization policy,
// e.g. self-claiming when can_claim_lines is off.
type PolicyError struct {
	Msg string
}

func (e *PolicyError) Error() string { return "policy: " + e.Msg }

// ExternalServiceError reports a failure in a consumed collaborator
// (holiday resolver, event broadcaster).
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
