/*
errors.go - Centralized error types for the engine core

PURPOSE:
  All shared error types in one place for consistency and discoverability.
  Domain packages (rank, vacancy, merit) define their own typed errors and
  wrap or sit beside these.

ERROR CATEGORIES:
  1. Data-integrity errors - Persisted data disagrees with the statute or
     cannot be parsed. Never retried; reported per record.
  2. Ledger errors - Merit entry persistence failures
  3. Lookup errors - Missing members

USAGE:
  if errors.Is(err, generic.ErrInvalidDate) {
      // skip the member, show it in the report
  }

SEE ALSO:
  - rank/errors.go: UnknownRankError
  - vacancy/errors.go: MissingSeatConfigError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a stored date is missing or malformed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrDuplicateIdempotencyKey is returned when an entry with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrMemberNotFound is returned when a referenced member doesn't exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrEntryNotFound is returned when a referenced ledger entry doesn't exist.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrAlreadyReversed is returned when reversing an entry twice.
	ErrAlreadyReversed = errors.New("entry already reversed")

	// ErrUnknownEventKind is returned for a career event kind with no point value.
	ErrUnknownEventKind = errors.New("unknown career event kind")

	// ErrInvalidBloodType is returned for a blood type outside ABO/Rh.
	ErrInvalidBloodType = errors.New("invalid blood type")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidDateError names the field and the raw value that failed to parse.
type InvalidDateError struct {
	Field string
	Value string
}

func (e *InvalidDateError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid date: %s is missing", e.Field)
	}
	return fmt.Sprintf("invalid date: %s %q (use YYYY-MM-DD)", e.Field, e.Value)
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// integrityErrors is extended by domain packages at init so that IsDataIntegrity
// recognises their sentinels without generic importing them.
var integrityErrors = []error{ErrInvalidDate}

// RegisterIntegrityError marks a sentinel as a data-integrity error.
// Call this from domain package init() functions.
func RegisterIntegrityError(sentinel error) {
	integrityErrors = append(integrityErrors, sentinel)
}

// IsDataIntegrity returns true if the error means persisted data disagrees
// with the statute (skip the record, do not retry).
func IsDataIntegrity(err error) bool {
	for _, target := range integrityErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrUnknownEventKind) ||
		errors.Is(err, ErrInvalidBloodType)
}

// IsConflict returns true if the write collided with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey) ||
		errors.Is(err, ErrAlreadyReversed)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}
