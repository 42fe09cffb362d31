/*
Package ledger provides the core append-only points ledger.

PURPOSE:
  This package contains domain-agnostic types for recording balance
  changes as immutable entries. The rewards domain package layers
  business rules (caps, one-time grants, streaks) on top of it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Entry: An immutable record of a single balance change
  - Reason: A closed tag identifying the triggering action
  - Meta: Optional key-value annotations (informational only)
  - UserID/EntryID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: Entries are never modified, only reversed
  2. Auditability: Every entry carries reason, timestamp, and metadata
  3. Single source of truth: Balance, grants, and counters are all
     derived by replaying entries - nothing can drift out of sync

USAGE:
  e := ledger.Entry{
      ID:     ledger.NewEntryID(),
      UserID: "user-123",
      Delta:  5,
      Reason: "first_post",
      At:     time.Now().UTC(),
  }

SEE ALSO:
  - errors.go: Sentinel and structured error types
  - store.go: Persistence interface
  - day.go: Calendar-date keys for daily gates
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type EntryID string

// Reason is a closed tag identifying the action that produced an entry.
// The rewards package defines the full set of reasons.
type Reason string

// Reversed returns the reason tag used for a compensating entry.
func (r Reason) Reversed() Reason { return r + "_reversed" }

// NewEntryID generates a unique entry identifier.
func NewEntryID() EntryID { return EntryID(uuid.NewString()) }

// =============================================================================
// META - Optional annotations
// =============================================================================

// Meta holds unordered key-value annotations attached to an entry
// (e.g., taskId, postId, amountUSD). Informational only - never used
// for invariant checks except where a domain rule says so explicitly.
type Meta map[string]string

// Clone returns a copy so callers cannot mutate a stored entry's metadata.
func (m Meta) Clone() Meta {
	if m == nil {
		return nil
	}
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// =============================================================================
// ENTRY - Atomic change to a user's balance
// =============================================================================

// Entry is an immutable record of a single balance change.
//
// INVARIANT: entries are never mutated or deleted after creation.
// A correction creates a new entry with negated delta referencing the
// original via ReversalOf (compensating-entry pattern).
type Entry struct {
	ID     EntryID
	UserID UserID
	Delta  int64 // positive for earn, negative for reversal/redemption
	Reason Reason
	At     time.Time // creation time, UTC
	Meta   Meta

	// ReversalOf links a compensating entry back to the entry it undoes.
	// Empty for ordinary entries.
	ReversalOf EntryID

	// IdempotencyKey, when set, makes the store reject duplicates.
	// Used for one-time grants.
	IdempotencyKey string
}

// IsReversal reports whether this entry compensates another entry.
func (e Entry) IsReversal() bool { return e.ReversalOf != "" }

// Day returns the calendar date the entry was created on.
func (e Entry) Day() Day { return DayOf(e.At) }

// Sum returns the sum of all deltas. The balance of a ledger is by
// definition Sum of its entries.
func Sum(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Delta
	}
	return total
}
