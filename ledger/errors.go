/*
errors.go - Centralized error types for the reconciliation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers classify errors with the IsValidation/IsNotFound/IsConflict
  helpers; anything unclassified is a persistence failure.

ERROR CATEGORIES:
  1. Validation errors - malformed input, non-positive amounts, bad terms
  2. Not-found errors  - student/statement/term/class-fee absent
  3. Conflict errors   - duplicate statement, deletion blocked by receipts

USAGE:
  if ledger.IsNotFound(err) {
      // 404
  }

SEE ALSO:
  - recompute.go, waterfall.go: Producers of these errors
  - api/handlers.go: Maps categories to HTTP statuses
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when a payment amount is not strictly positive.
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")

	// ErrInvalidInterval is returned when a sweep interval is outside [1, 1440] minutes.
	ErrInvalidInterval = errors.New("sweep interval must be between 1 and 1440 minutes")

	// ErrStudentNotFound is returned when a referenced student doesn't exist.
	ErrStudentNotFound = errors.New("student not found")

	// ErrStatementNotFound is returned when a referenced fee statement doesn't exist.
	ErrStatementNotFound = errors.New("fee statement not found")

	// ErrPaymentNotFound is returned when a referenced payment doesn't exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrTermNotFound is returned when an (academicYear, term) period is unknown.
	ErrTermNotFound = errors.New("academic term not found")

	// ErrClassFeeNotFound is returned when no fee is configured for a (class, term).
	ErrClassFeeNotFound = errors.New("class fee not found")

	// ErrNoStatement is returned when payment target resolution exhausts every
	// strategy: no explicit statement, no (year, term), no class fee, and no
	// pending statement to fall back to.
	ErrNoStatement = errors.New("no fee statement found for student")

	// ErrDuplicateStatement is returned when creating a statement for a
	// (student, academicYear, term) that already has one.
	ErrDuplicateStatement = errors.New("fee statement already exists for this period")

	// ErrPaymentHasReceipts is returned when deleting a payment that has
	// receipts issued against it. Receipts must be removed first.
	ErrPaymentHasReceipts = errors.New("cannot delete payment with receipts")

	// ErrStatementOwnership is returned when a statement does not belong to
	// the student named in the request.
	ErrStatementOwnership = errors.New("fee statement does not belong to this student")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidTermError reports a term value outside the term1..term3 enum.
type InvalidTermError struct {
	Value string
}

func (e *InvalidTermError) Error() string {
	return fmt.Sprintf("invalid term %q: must be one of term1, term2, term3", e.Value)
}

// NotFoundError wraps a not-found sentinel with the offending identifier.
type NotFoundError struct {
	Sentinel error
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Sentinel.Error(), e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Sentinel }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid caller input.
// Never retried.
func IsValidation(err error) bool {
	var termErr *InvalidTermError
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrStatementOwnership) ||
		errors.As(err, &termErr)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrStatementNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrTermNotFound) ||
		errors.Is(err, ErrClassFeeNotFound) ||
		errors.Is(err, ErrNoStatement)
}

// IsConflict returns true if the error indicates a state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateStatement) ||
		errors.Is(err, ErrPaymentHasReceipts)
}
