/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR MODEL:
  Two kinds of failure exist in this system and they never mix:

  1. Rule violations (daily cap reached, already checked in, grant
     already issued) are NOT errors. They are reported as result values
     by the rewards package so callers branch on ok, never on err.

  2. Invalid input and persistence failures ARE errors. Invalid amounts
     get a structured InvalidAmountError (use errors.Is/errors.As);
     persistence failures are logged and swallowed by the account layer
     so in-memory state stays correct for the session.

USAGE:
  if errors.Is(err, ledger.ErrInvalidAmount) {
      // reject the request as 400
  }

SEE ALSO:
  - store.go: Uses ErrDuplicateIdempotencyKey
  - rewards/account.go: Result values for rule violations
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
	// ErrDuplicateIdempotencyKey is returned when an entry with the same
	// idempotency key already exists. Expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInvalidAmount is returned when a non-positive amount is passed
	// to an earn operation.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrEntryNotFound is returned when a referenced entry doesn't exist.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrAlreadyReversed is returned when trying to reverse an entry that
	// already has a compensating entry.
	ErrAlreadyReversed = errors.New("entry already reversed")

	// ErrNotReversible is returned when trying to reverse a non-positive
	// entry. Only earns can be compensated.
	ErrNotReversible = errors.New("entry is not reversible")

	// ErrPersistFailed is returned by stores when an entry cannot be
	// written. The account layer logs and swallows it.
	ErrPersistFailed = errors.New("persist failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidAmountError reports a non-positive amount passed to an earn.
// The source app treated this as a silent no-op; surfacing it as an
// explicit error kind aids debuggability while still never panicking.
type InvalidAmountError struct {
	Amount int64
	Reason Reason
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %d for %q: must be positive", e.Amount, e.Reason)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrDuplicateIdempotencyKey) ||
		errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrAlreadyReversed) ||
		errors.Is(err, ErrNotReversible)
}
