/*
Package rewards implements the Fleur points & rewards domain.

PURPOSE:
  Users earn points for hair-care routine activity, community
  participation, referrals, reviews, and purchases. This package owns
  all mutation logic and invariants:

  - Account:  the points ledger store for one user (account.go)
  - Actions:  the facade translating domain events into account calls (actions.go)
  - Rules:    the single lookup table of point values and caps (this file)
  - Tiers:    pure balance-to-tier computation (tier.go)

KEY INVARIANTS:
  1. Balance always equals the sum of ledger entry deltas
  2. One-time grants are issued at most once per user lifetime
  3. Routine-task points are capped at 5 per calendar day (gross)
  4. Referrals are capped at 20 per user lifetime
  5. Reversals append compensating entries; history is never rewritten

ERROR MODEL:
  Rule violations (cap reached, already checked in, already granted)
  are values: Result{OK: false, Message: ...}. Callers branch on OK.
  Only invalid input produces an error, and nothing ever panics.

SEE ALSO:
  - ledger/: The underlying append-only entry log
  - api/: HTTP surface exposing Actions per user
*/
package rewards

import "github.com/fleur/rewards-engine/ledger"

// =============================================================================
// REASONS - Closed tag set for ledger entries
// =============================================================================

const (
	ReasonDailyCheckIn     ledger.Reason = "daily_check_in"
	ReasonStreakBonus      ledger.Reason = "seven_day_streak_bonus"
	ReasonRoutineTask      ledger.Reason = "daily_routine_task"
	ReasonStartRoutine     ledger.Reason = "start_routine"
	ReasonFirstRoutineStep ledger.Reason = "first_routine_step"
	ReasonFirstPost        ledger.Reason = "first_post"
	ReasonFirstComment     ledger.Reason = "first_comment"
	ReasonFirstLike        ledger.Reason = "first_like"
	ReasonEngagementLikes  ledger.Reason = "post_engagement_likes"
	ReasonEngagementComs   ledger.Reason = "post_engagement_comments"
	ReasonReferFriend      ledger.Reason = "refer_friend"
	ReasonWriteReview      ledger.Reason = "write_review"
	ReasonPurchase         ledger.Reason = "purchase"
	ReasonSignupBonus      ledger.Reason = "signup_bonus"
)

// Meta keys attached to entries.
const (
	MetaTaskID    = "taskId"
	MetaPostID    = "postId"
	MetaAmountUSD = "amountUSD"
)

// =============================================================================
// GRANT FLAGS - One-time grant registry
// =============================================================================

// GrantFlag names a reward that may be issued at most once per user
// lifetime. Each flag transitions unset -> set exactly once.
type GrantFlag string

const (
	GrantStartedRoutine   GrantFlag = "startedRoutine"
	GrantFirstRoutineStep GrantFlag = "firstRoutineStep"
	GrantFirstPost        GrantFlag = "firstPost"
	GrantFirstComment     GrantFlag = "firstComment"
	GrantFirstLike        GrantFlag = "firstLike"
	GrantSignupBonus      GrantFlag = "signupBonus"
)

// grantReasons maps each one-time grant flag to the reason its entry
// carries. Replay uses the inverse mapping to rebuild the flag set
// from the entry log.
var grantReasons = map[GrantFlag]ledger.Reason{
	GrantStartedRoutine:   ReasonStartRoutine,
	GrantFirstRoutineStep: ReasonFirstRoutineStep,
	GrantFirstPost:        ReasonFirstPost,
	GrantFirstComment:     ReasonFirstComment,
	GrantFirstLike:        ReasonFirstLike,
	GrantSignupBonus:      ReasonSignupBonus,
}

var reasonGrants = func() map[ledger.Reason]GrantFlag {
	m := make(map[ledger.Reason]GrantFlag, len(grantReasons))
	for flag, reason := range grantReasons {
		m[reason] = flag
	}
	return m
}()

// =============================================================================
// RULES - Single lookup table of point values, thresholds, and caps
// =============================================================================

// Rules holds every action-specific constant in one place.
type Rules struct {
	StartRoutine     int64 // one-time: first routine created
	FirstRoutineStep int64 // one-time: first routine step completed
	SignupBonus      int64 // one-time: account created
	FirstPost        int64 // one-time: first community post
	FirstComment     int64 // one-time: first comment
	FirstLike        int64 // one-time: first like given

	DailyCheckIn int64 // per calendar day
	StreakLength int   // consecutive days per streak bonus
	StreakBonus  int64 // extra points when streak hits a multiple of StreakLength

	RoutineTask         int64 // per completed routine task
	RoutineTaskDailyCap int64 // max routine-task points per day, all tasks combined

	LikesPerPoint      int   // cumulative likes needed per engagement point
	CommentsPerBlock   int   // comments per engagement block
	CommentBlockPoints int64 // points per comment block

	Referral    int64 // per confirmed referral
	ReferralCap int   // lifetime referral limit

	WriteReview  int64 // per review, no once-guard
	PointsPerUSD int64 // purchase points per whole dollar
}

// DefaultRules returns the production point values.
func DefaultRules() Rules {
	return Rules{
		StartRoutine:     5,
		FirstRoutineStep: 5,
		SignupBonus:      250,
		FirstPost:        5,
		FirstComment:     5,
		FirstLike:        1,

		DailyCheckIn: 1,
		StreakLength: 7,
		StreakBonus:  2,

		RoutineTask:         1,
		RoutineTaskDailyCap: 5,

		LikesPerPoint:      100,
		CommentsPerBlock:   10,
		CommentBlockPoints: 5,

		Referral:    20,
		ReferralCap: 20,

		WriteReview:  5,
		PointsPerUSD: 1,
	}
}

// =============================================================================
// RESULTS - Rule outcomes are values, not errors
// =============================================================================

// Result reports the outcome of an account operation. Rule violations
// set OK to false with a human-readable Message; they are never
// returned as errors.
type Result struct {
	OK             bool   `json:"ok"`
	Message        string `json:"message,omitempty"`
	Points         int64  `json:"points"`
	AlreadyGranted bool   `json:"already_granted,omitempty"`
}

// EngagementResult breaks down points awarded for post engagement.
type EngagementResult struct {
	LikePoints    int64 `json:"like_points"`
	CommentPoints int64 `json:"comment_points"`
	Total         int64 `json:"total"`
}

// ClawbackResult reports points reversed when a routine step is deleted.
type ClawbackResult struct {
	Reversed int   `json:"reversed_entries"`
	Points   int64 `json:"points"`
}
