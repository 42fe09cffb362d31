/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TIMESTAMPS:
  Entry timestamps travel as epoch milliseconds, matching the mobile
  client's persisted ledger representation.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/fleur/rewards-engine/ledger"
	"github.com/fleur/rewards-engine/rewards"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// EngagementRequest reports NEW engagement on a post since the caller's
// last report. Cumulative totals double-award; see rewards.Actions.
type EngagementRequest struct {
	PostID   string `json:"post_id"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
}

// PurchaseRequest reports a confirmed order.
type PurchaseRequest struct {
	AmountUSD string            `json:"amount_usd"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// ReviewRequest reports a written product review.
type ReviewRequest struct {
	Meta map[string]string `json:"meta,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// EntryDTO represents a ledger entry in API responses.
type EntryDTO struct {
	ID         string            `json:"id"`
	Delta      int64             `json:"delta"`
	Reason     string            `json:"reason"`
	Timestamp  int64             `json:"timestamp"` // epoch milliseconds
	Meta       map[string]string `json:"meta,omitempty"`
	ReversalOf string            `json:"reversal_of,omitempty"`
}

func toEntryDTO(e ledger.Entry) EntryDTO {
	return EntryDTO{
		ID:         string(e.ID),
		Delta:      e.Delta,
		Reason:     string(e.Reason),
		Timestamp:  e.At.UnixMilli(),
		Meta:       e.Meta,
		ReversalOf: string(e.ReversalOf),
	}
}

func toEntryDTOs(entries []ledger.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

// BalanceDTO is the read model for the points header and profile screen.
type BalanceDTO struct {
	UserID        string        `json:"user_id"`
	Balance       int64         `json:"balance"`
	Tier          rewards.Tier  `json:"tier"`
	NextTier      *rewards.Tier `json:"next_tier,omitempty"`
	TierProgress  float64       `json:"tier_progress"`
	Streak        int           `json:"streak"`
	CheckedIn     bool          `json:"checked_in_today"`
	ReferralCount int           `json:"referral_count"`
}

// LedgerDTO is the activity feed response.
type LedgerDTO struct {
	UserID  string     `json:"user_id"`
	Balance int64      `json:"balance"`
	Entries []EntryDTO `json:"entries"` // newest first
}

// ClawbackDTO reports a routine-step deletion clawback.
type ClawbackDTO struct {
	OK              bool  `json:"ok"`
	ReversedEntries int   `json:"reversed_entries"`
	Points          int64 `json:"points"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
