/*
errors.go - Error types for the contract packages

PURPOSE:
  The engine itself is total and never returns errors. Errors exist only at
  the edges: parsing contract definitions, draft persistence and the HTTP
  surface. Callers test them with errors.Is.

ERROR CATEGORIES:
  1. Input errors - Malformed contract definitions or dates
  2. Store errors - Missing drafts or schedules, double confirmation

SEE ALSO:
  - factory/contract.go: Wraps ErrInvalidConfiguration
  - api/handlers.go: Maps errors to HTTP status codes
*/
package contract

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrInvalidConfiguration is returned when a contract definition cannot
	// be turned into a Configuration at all (bad JSON, duplicate block ids).
	ErrInvalidConfiguration = errors.New("invalid contract configuration")

	// ErrInvalidDate is returned when a date does not parse as YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrDraftNotFound is returned when a draft id is unknown.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrScheduleNotFound is returned when a confirmed schedule is unknown.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrAlreadyConfirmed is returned when a draft is confirmed twice.
	ErrAlreadyConfirmed = errors.New("schedule already confirmed")

	// ErrUnknownEvent is returned when an override targets an event id that
	// is not on the draft's timeline.
	ErrUnknownEvent = errors.New("event not on timeline")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// FieldError pinpoints the offending field of a contract definition.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrInvalidConfiguration }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDraftNotFound) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrUnknownEvent)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrInvalidDate)
}

// IsConflict returns true if the request conflicts with stored state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyConfirmed)
}
