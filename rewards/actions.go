/*
actions.go - Domain-event facade over Account

PURPOSE:
  Translates named domain events ("user completed a routine step",
  "friend's first order confirmed") into Account calls, applying the
  action-specific constants from the Rules table. Each method is a
  thin, single-purpose wrapper; the Account owns all state.

CALLERS:
  - Routine subsystem:   OnRoutineStarted, OnFirstRoutineStep,
                         OnRoutineTaskCompleted/Undone, OnRoutineStepDeleted
  - Community subsystem: OnFirstPost/Comment/Like, OnPostEngagement
  - Checkout subsystem:  OnPurchaseConfirmed
  - Referral subsystem:  OnReferralConfirmed
  - Onboarding:          OnSignupBonus

ENGAGEMENT CONTRACT:
  OnPostEngagement is NOT idempotent. It awards points for whatever
  likes/comments counts it is handed, so callers must pass only NEW
  engagement since their last call, never cumulative totals. The
  facade cannot de-duplicate; repeated calls with the same numbers
  double-award.

SEE ALSO:
  - account.go: The operations these wrappers delegate to
  - types.go: Rules table with every point value
*/
package rewards

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fleur/rewards-engine/ledger"
)

// Actions is the facade consumed by the rest of the app. Construct one
// per user via NewActions or Service.Actions.
type Actions struct {
	account *Account
}

// NewActions wraps an account.
func NewActions(account *Account) *Actions {
	return &Actions{account: account}
}

// Account exposes the underlying account for read selectors.
func (x *Actions) Account() *Account { return x.account }

func (x *Actions) rules() Rules { return x.account.Rules() }

// =============================================================================
// ROUTINE EVENTS
// =============================================================================

// OnRoutineStarted rewards creating the first routine. Once per lifetime.
func (x *Actions) OnRoutineStarted(ctx context.Context) (Result, error) {
	return x.account.GrantOnce(ctx, GrantStartedRoutine, x.rules().StartRoutine, ReasonStartRoutine)
}

// OnFirstRoutineStep rewards completing the first routine step ever.
// Once per lifetime.
func (x *Actions) OnFirstRoutineStep(ctx context.Context) (Result, error) {
	return x.account.GrantOnce(ctx, GrantFirstRoutineStep, x.rules().FirstRoutineStep, ReasonFirstRoutineStep)
}

// OnRoutineTaskCompleted rewards a completed routine task, subject to
// the daily cap.
func (x *Actions) OnRoutineTaskCompleted(ctx context.Context, taskID string) Result {
	return x.account.CompleteRoutineTask(ctx, taskID)
}

// OnRoutineTaskUndone reverses today's credit for a task.
func (x *Actions) OnRoutineTaskUndone(ctx context.Context, taskID string) Result {
	return x.account.UndoRoutineTask(ctx, taskID)
}

// OnRoutineStepDeleted claws back every point this step ever earned,
// regardless of date.
func (x *Actions) OnRoutineStepDeleted(ctx context.Context, taskID string) ClawbackResult {
	return x.account.ClawbackTask(ctx, taskID)
}

// =============================================================================
// CHECK-IN EVENTS
// =============================================================================

// OnDailyCheckIn records the daily check-in.
func (x *Actions) OnDailyCheckIn(ctx context.Context) Result {
	return x.account.CheckIn(ctx)
}

// OnDailyCheckInUndone reverses today's check-in.
func (x *Actions) OnDailyCheckInUndone(ctx context.Context) Result {
	return x.account.UndoCheckIn(ctx)
}

// =============================================================================
// COMMUNITY EVENTS
// =============================================================================

// OnFirstPost rewards the first community post. Once per lifetime.
func (x *Actions) OnFirstPost(ctx context.Context) (Result, error) {
	return x.account.GrantOnce(ctx, GrantFirstPost, x.rules().FirstPost, ReasonFirstPost)
}

// OnFirstComment rewards the first comment. Once per lifetime.
func (x *Actions) OnFirstComment(ctx context.Context) (Result, error) {
	return x.account.GrantOnce(ctx, GrantFirstComment, x.rules().FirstComment, ReasonFirstComment)
}

// OnFirstLike rewards the first like given. Once per lifetime.
func (x *Actions) OnFirstLike(ctx context.Context) (Result, error) {
	return x.account.GrantOnce(ctx, GrantFirstLike, x.rules().FirstLike, ReasonFirstLike)
}

// OnPostEngagement awards floor(likes/LikesPerPoint) points for likes
// and floor(comments/CommentsPerBlock)*CommentBlockPoints for
// comments, as separate entries. Pass engagement DELTAS, not
// cumulative totals - see the package note above.
func (x *Actions) OnPostEngagement(ctx context.Context, postID string, likes, comments int) (EngagementResult, error) {
	r := x.rules()
	var res EngagementResult

	if likes > 0 && r.LikesPerPoint > 0 {
		res.LikePoints = int64(likes / r.LikesPerPoint)
	}
	if comments > 0 && r.CommentsPerBlock > 0 {
		res.CommentPoints = int64(comments/r.CommentsPerBlock) * r.CommentBlockPoints
	}

	meta := ledger.Meta{MetaPostID: postID}
	if res.LikePoints > 0 {
		if _, err := x.account.Earn(ctx, res.LikePoints, ReasonEngagementLikes, meta); err != nil {
			return EngagementResult{}, err
		}
	}
	if res.CommentPoints > 0 {
		if _, err := x.account.Earn(ctx, res.CommentPoints, ReasonEngagementComs, meta); err != nil {
			return EngagementResult{}, err
		}
	}

	res.Total = res.LikePoints + res.CommentPoints
	return res, nil
}

// =============================================================================
// REFERRAL, REVIEW, PURCHASE, SIGNUP
// =============================================================================

// OnReferralConfirmed awards referral points after a friend's first
// confirmed order. Bounded by the lifetime referral cap.
func (x *Actions) OnReferralConfirmed(ctx context.Context) Result {
	return x.account.AddReferral(ctx)
}

// OnWriteReview rewards writing a product review. Intentionally no
// once-guard: a user may be rewarded for multiple reviews.
func (x *Actions) OnWriteReview(ctx context.Context, meta ledger.Meta) (ledger.Entry, error) {
	return x.account.Earn(ctx, x.rules().WriteReview, ReasonWriteReview, meta)
}

// OnPurchaseConfirmed awards floor(amountUSD) * PointsPerUSD points
// for a confirmed order. Amounts that floor to zero produce no entry
// and no error.
func (x *Actions) OnPurchaseConfirmed(ctx context.Context, amountUSD decimal.Decimal, meta ledger.Meta) (Result, error) {
	points := amountUSD.Floor().IntPart() * x.rules().PointsPerUSD
	if points <= 0 {
		return Result{OK: true, Points: 0, Message: "Purchase below minimum for points"}, nil
	}

	m := meta.Clone()
	if m == nil {
		m = ledger.Meta{}
	}
	m[MetaAmountUSD] = amountUSD.String()

	if _, err := x.account.Earn(ctx, points, ReasonPurchase, m); err != nil {
		return Result{}, err
	}
	return Result{OK: true, Points: points, Message: fmt.Sprintf("Purchase confirmed! +%d points", points)}, nil
}

// OnSignupBonus grants the account-creation bonus. Once per lifetime.
func (x *Actions) OnSignupBonus(ctx context.Context) (Result, error) {
	return x.account.GrantOnce(ctx, GrantSignupBonus, x.rules().SignupBonus, ReasonSignupBonus)
}
