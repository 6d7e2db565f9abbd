/*
errors.go - Centralized error types for the cash-flow engine

PURPOSE:
  All engine error kinds in one place. Callers match categories with
  errors.Is() against the sentinels; the structured types carry the
  payee/month/bill context a failure report needs.

ERROR CATEGORIES:
  1. Validation errors - malformed input records (boundary-time)
  2. Recurrence errors - invalid recurrence descriptors
  3. Allocation errors - percentages or income that cannot be reconciled
  4. Range errors     - projection parameters outside supported bounds

PROPAGATION:
  Validation runs once at the input boundary and aborts the whole run on
  first failure. Allocation failures are month-scoped and identify the
  payee, funding month, and (when known) bill that triggered them.

SEE ALSO:
  - project.go: where allocation errors originate
  - recurrence.go: where recurrence errors originate
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the category for malformed input records:
	// unparsable dates, negative amounts, unknown payee references,
	// percentages outside [0, 100].
	ErrValidation = errors.New("invalid input")

	// ErrRecurrence is the category for invalid recurrence descriptors.
	ErrRecurrence = errors.New("invalid recurrence")

	// ErrAllocation is the category for unreconcilable share percentages
	// and for income insufficient to cover a proportional requirement.
	ErrAllocation = errors.New("allocation failed")

	// ErrRange is the category for projection parameters outside their
	// supported bounds (projection length, cutoff day).
	ErrRange = errors.New("out of range")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a malformed input record.
type ValidationError struct {
	Field  string // e.g. "bill[Rent].price_history"
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RecurrenceError reports an invalid recurrence descriptor.
type RecurrenceError struct {
	Reason string
}

func (e *RecurrenceError) Error() string { return "recurrence: " + e.Reason }

func (e *RecurrenceError) Unwrap() error { return ErrRecurrence }

// AllocationError reports which payee/month/bill could not be reconciled.
// Bill is empty for funding-month income failures, which span all bills
// funded by that month.
type AllocationError struct {
	Payee  string
	Month  Month
	Bill   string
	Reason string
}

func (e *AllocationError) Error() string {
	msg := fmt.Sprintf("allocation for payee %q in %s", e.Payee, e.Month)
	if e.Bill != "" {
		msg += fmt.Sprintf(" (bill %q)", e.Bill)
	}
	return msg + ": " + e.Reason
}

func (e *AllocationError) Unwrap() error { return ErrAllocation }

// RangeError reports a projection parameter outside its supported bounds.
type RangeError struct {
	What     string
	Value    int
	Min, Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d outside [%d, %d]", e.What, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrRange }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid configuration
// rather than an internal failure. Every engine error category qualifies:
// the engine has no I/O, so nothing else can fail.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrRecurrence) ||
		errors.Is(err, ErrAllocation) ||
		errors.Is(err, ErrRange)
}

// =============================================================================
// WARNINGS - Non-fatal configuration findings
// =============================================================================

// Warning flags a configuration that is accepted deterministically but
// likely signals a mistake, such as two price-history entries sharing an
// effective date.
type Warning struct {
	Code    string
	Message string
}

func (w Warning) String() string { return w.Code + ": " + w.Message }
