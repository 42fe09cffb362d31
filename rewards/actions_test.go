package rewards_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fleur/rewards-engine/ledger"
	"github.com/fleur/rewards-engine/rewards"
)

func newTestActions(t *testing.T) (*rewards.Actions, *clock) {
	t.Helper()
	a, c := newTestAccount(t)
	return rewards.NewActions(a), c
}

// =============================================================================
// ONE-TIME EVENT WRAPPERS
// =============================================================================

func TestActions_OneTimeGrantValues(t *testing.T) {
	// Each first-time event awards its Rules value exactly once.

	x, _ := newTestActions(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		call   func() (rewards.Result, error)
		points int64
	}{
		{"routine started", func() (rewards.Result, error) { return x.OnRoutineStarted(ctx) }, 5},
		{"first routine step", func() (rewards.Result, error) { return x.OnFirstRoutineStep(ctx) }, 5},
		{"first post", func() (rewards.Result, error) { return x.OnFirstPost(ctx) }, 5},
		{"first comment", func() (rewards.Result, error) { return x.OnFirstComment(ctx) }, 5},
		{"first like", func() (rewards.Result, error) { return x.OnFirstLike(ctx) }, 1},
		{"signup bonus", func() (rewards.Result, error) { return x.OnSignupBonus(ctx) }, 250},
	}

	var want int64
	for _, tc := range cases {
		res, err := tc.call()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !res.OK || res.Points != tc.points {
			t.Errorf("%s: got %+v, want %d points", tc.name, res, tc.points)
		}
		want += tc.points

		// Repeat is a no-op
		again, err := tc.call()
		if err != nil {
			t.Fatalf("%s repeat: %v", tc.name, err)
		}
		if again.OK || !again.AlreadyGranted {
			t.Errorf("%s repeat: expected AlreadyGranted, got %+v", tc.name, again)
		}
	}

	if got := x.Account().Balance(); got != want {
		t.Errorf("balance = %d, want %d", got, want)
	}
}

// =============================================================================
// POST ENGAGEMENT
// =============================================================================

func TestActions_PostEngagementMath(t *testing.T) {
	x, _ := newTestActions(t)
	ctx := context.Background()

	res, err := x.OnPostEngagement(ctx, "post-1", 250, 25)
	if err != nil {
		t.Fatalf("engagement: %v", err)
	}
	// floor(250/100)=2 like points, floor(25/10)*5=10 comment points
	if res.LikePoints != 2 || res.CommentPoints != 10 || res.Total != 12 {
		t.Errorf("engagement = %+v, want 2/10/12", res)
	}

	entries := x.Account().Entries()
	if len(entries) != 2 {
		t.Fatalf("ledger has %d entries, want 2 (likes + comments separate)", len(entries))
	}
	for _, e := range entries {
		if e.Meta[rewards.MetaPostID] != "post-1" {
			t.Errorf("entry %s missing post id meta: %v", e.Reason, e.Meta)
		}
	}
}

func TestActions_PostEngagementBelowThreshold(t *testing.T) {
	x, _ := newTestActions(t)

	res, err := x.OnPostEngagement(context.Background(), "post-1", 99, 9)
	if err != nil {
		t.Fatalf("engagement: %v", err)
	}
	if res.Total != 0 {
		t.Errorf("total = %d, want 0", res.Total)
	}
	if n := len(x.Account().Entries()); n != 0 {
		t.Errorf("ledger has %d entries, want 0", n)
	}
}

func TestActions_PostEngagementNotIdempotent(t *testing.T) {
	// Documented contract: callers pass deltas. Repeating the same
	// numbers double-awards, by design of the interface.

	x, _ := newTestActions(t)
	ctx := context.Background()

	x.OnPostEngagement(ctx, "post-1", 100, 0)
	x.OnPostEngagement(ctx, "post-1", 100, 0)

	if got := x.Account().Balance(); got != 2 {
		t.Errorf("balance = %d, want 2 (two separate awards)", got)
	}
}

// =============================================================================
// STEP DELETION CLAWBACK
// =============================================================================

func TestActions_StepDeletionClawsBackAcrossDays(t *testing.T) {
	// Scenario: a task credited on three different days, then the
	// step is deleted. All three credits are reversed and the task's
	// net contribution drops to zero.

	x, c := newTestActions(t)
	ctx := context.Background()

	for day := 0; day < 3; day++ {
		res := x.OnRoutineTaskCompleted(ctx, "task-1")
		if !res.OK {
			t.Fatalf("day %d completion failed: %+v", day, res)
		}
		c.advanceDays(1)
	}

	cb := x.OnRoutineStepDeleted(ctx, "task-1")
	if cb.Reversed != 3 || cb.Points != 3 {
		t.Fatalf("clawback = %+v, want 3 entries / 3 points", cb)
	}
	if got := x.Account().Balance(); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
	if n := len(x.Account().Entries()); n != 6 {
		t.Errorf("ledger has %d entries, want 6 (3 credits + 3 reversals)", n)
	}

	// Deleting again finds nothing left
	cb2 := x.OnRoutineStepDeleted(ctx, "task-1")
	if cb2.Reversed != 0 {
		t.Errorf("second deletion reversed %d entries, want 0", cb2.Reversed)
	}
}

func TestActions_StepDeletionLeavesOtherTasksAlone(t *testing.T) {
	x, _ := newTestActions(t)
	ctx := context.Background()

	x.OnRoutineTaskCompleted(ctx, "task-1")
	x.OnRoutineTaskCompleted(ctx, "task-2")

	x.OnRoutineStepDeleted(ctx, "task-1")
	if got := x.Account().Balance(); got != 1 {
		t.Errorf("balance = %d, want 1 (task-2 untouched)", got)
	}
}

// =============================================================================
// REVIEWS & PURCHASES
// =============================================================================

func TestActions_WriteReviewHasNoOnceGuard(t *testing.T) {
	x, _ := newTestActions(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := x.OnWriteReview(ctx, ledger.Meta{"productId": "p-1"}); err != nil {
			t.Fatalf("review %d: %v", i, err)
		}
	}
	if got := x.Account().Balance(); got != 10 {
		t.Errorf("balance = %d, want 10 (5 per review)", got)
	}
}

func TestActions_PurchasePointsFloorDollars(t *testing.T) {
	x, _ := newTestActions(t)
	ctx := context.Background()

	res, err := x.OnPurchaseConfirmed(ctx, decimal.RequireFromString("19.99"), nil)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if !res.OK || res.Points != 19 {
		t.Errorf("19.99 USD awarded %d points, want 19", res.Points)
	}

	entries := x.Account().Entries()
	if len(entries) != 1 {
		t.Fatalf("ledger has %d entries, want 1", len(entries))
	}
	if got := entries[0].Meta[rewards.MetaAmountUSD]; got != "19.99" {
		t.Errorf("amount meta = %q, want 19.99", got)
	}
}

func TestActions_PurchaseBelowOneDollar(t *testing.T) {
	// Sub-dollar purchases floor to zero: no entry, no error.

	x, _ := newTestActions(t)

	res, err := x.OnPurchaseConfirmed(context.Background(), decimal.RequireFromString("0.50"), nil)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if !res.OK || res.Points != 0 {
		t.Errorf("0.50 USD result = %+v, want OK with 0 points", res)
	}
	if n := len(x.Account().Entries()); n != 0 {
		t.Errorf("ledger has %d entries, want 0", n)
	}
}

// =============================================================================
// CHECK-IN & REFERRAL PASSTHROUGH
// =============================================================================

func TestActions_CheckInRoundTrip(t *testing.T) {
	x, _ := newTestActions(t)
	ctx := context.Background()

	if res := x.OnDailyCheckIn(ctx); !res.OK {
		t.Fatalf("check-in: %+v", res)
	}
	if res := x.OnDailyCheckInUndone(ctx); !res.OK {
		t.Fatalf("undo: %+v", res)
	}
	if got := x.Account().Balance(); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}

func TestActions_ReferralConfirmed(t *testing.T) {
	x, _ := newTestActions(t)

	res := x.OnReferralConfirmed(context.Background())
	if !res.OK || res.Points != 20 {
		t.Errorf("referral = %+v, want 20 points", res)
	}
}
