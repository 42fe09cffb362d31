package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/fleur/rewards-engine/ledger"
)

func TestDay_Arithmetic(t *testing.T) {
	d := ledger.DayOf(time.Date(2025, time.March, 1, 23, 59, 0, 0, time.UTC))
	if d != "2025-03-01" {
		t.Fatalf("DayOf = %q", d)
	}

	if got := d.Prev(); got != "2025-02-28" {
		t.Errorf("Prev = %q, want 2025-02-28 (month boundary)", got)
	}
	if got := d.AddDays(31); got != "2025-04-01" {
		t.Errorf("AddDays(31) = %q, want 2025-04-01", got)
	}
	if !d.Prev().Before(d) || d.Before(d) {
		t.Error("Before ordering broken")
	}
}

func TestDay_TimezoneNormalizedToUTC(t *testing.T) {
	// 23:00 in UTC-5 is already the next day in UTC. Daily gates key on
	// the UTC date so every client agrees on "today".
	est := time.FixedZone("EST", -5*3600)
	d := ledger.DayOf(time.Date(2025, time.March, 1, 23, 0, 0, 0, est))
	if d != "2025-03-02" {
		t.Errorf("DayOf = %q, want 2025-03-02", d)
	}
}

func TestSum(t *testing.T) {
	entries := []ledger.Entry{
		{Delta: 5},
		{Delta: 1},
		{Delta: -1},
	}
	if got := ledger.Sum(entries); got != 5 {
		t.Errorf("Sum = %d, want 5", got)
	}
	if got := ledger.Sum(nil); got != 0 {
		t.Errorf("Sum(nil) = %d, want 0", got)
	}
}

func TestMeta_CloneIsIndependent(t *testing.T) {
	m := ledger.Meta{"taskId": "t1"}
	c := m.Clone()
	c["taskId"] = "t2"
	if m["taskId"] != "t1" {
		t.Error("clone shares storage with original")
	}

	if ledger.Meta(nil).Clone() != nil {
		t.Error("nil meta should clone to nil")
	}
}

func TestReason_Reversed(t *testing.T) {
	if got := ledger.Reason("daily_check_in").Reversed(); got != "daily_check_in_reversed" {
		t.Errorf("Reversed = %q", got)
	}
}

func TestInvalidAmountError(t *testing.T) {
	err := &ledger.InvalidAmountError{Amount: -3, Reason: "purchase"}

	if !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Error("should unwrap to ErrInvalidAmount")
	}

	var detail *ledger.InvalidAmountError
	if !errors.As(errors.Join(err), &detail) || detail.Amount != -3 {
		t.Errorf("errors.As failed: %v", detail)
	}
}
