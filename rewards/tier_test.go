package rewards_test

import (
	"testing"

	"github.com/fleur/rewards-engine/rewards"
)

func TestTierFor_Boundaries(t *testing.T) {
	cases := []struct {
		balance int64
		want    string
	}{
		{0, "Seedling"},
		{249, "Seedling"},
		{250, "Sprout"},
		{749, "Sprout"},
		{750, "Bloom"},
		{1999, "Bloom"},
		{2000, "Flourish"},
		{100000, "Flourish"},
	}

	for _, tc := range cases {
		if got := rewards.TierFor(tc.balance); got.Name != tc.want {
			t.Errorf("TierFor(%d) = %s, want %s", tc.balance, got.Name, tc.want)
		}
	}
}

func TestTierProgress(t *testing.T) {
	// Halfway from Seedling (0) to Sprout (250)
	current, next, progress := rewards.TierProgress(125)
	if current.Name != "Seedling" {
		t.Errorf("current = %s, want Seedling", current.Name)
	}
	if next == nil || next.Name != "Sprout" {
		t.Fatalf("next = %v, want Sprout", next)
	}
	if progress != 0.5 {
		t.Errorf("progress = %v, want 0.5", progress)
	}

	// At the top there is no next tier
	current, next, progress = rewards.TierProgress(5000)
	if current.Name != "Flourish" || next != nil || progress != 1 {
		t.Errorf("top tier: current=%s next=%v progress=%v", current.Name, next, progress)
	}
}
