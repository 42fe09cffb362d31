/*
store.go - Persistence interface for ledger entries

PURPOSE:
  Defines the interface between domain logic and the database. The
  store handles persistence while maintaining append-only semantics.
  Implementations exist for SQLite and in-memory storage.

APPEND-ONLY CONTRACT:
  - Append(): the ONLY write operation
  - NO Update() or Delete() methods exist
  - Corrections are made via compensating entries

STATE IS DERIVED:
  Only entries are persisted. Balance, one-time-grant flags, daily
  counters, and referral counts are projections rebuilt by replaying
  the entry log on load. Nothing to reconcile, nothing to drift.

IDEMPOTENCY:
  An entry may carry an idempotency key. If the key already exists the
  write is rejected with ErrDuplicateIdempotencyKey. One-time grants
  use this as a second line of defense beneath the in-memory flag.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - ledger/store/memory.go: In-memory for testing

SEE ALSO:
  - rewards/account.go: Replays entries into live state
*/
package ledger

import "context"

// Store handles persistence of ledger entries.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete. Ever.
type Store interface {
	// Append persists an entry. Returns ErrDuplicateIdempotencyKey if
	// the entry's idempotency key already exists.
	Append(ctx context.Context, e Entry) error

	// Load returns all entries for a user, ordered by creation time.
	Load(ctx context.Context, userID UserID) ([]Entry, error)

	// Exists checks if an idempotency key already exists.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}
