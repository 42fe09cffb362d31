/*
tier.go - Loyalty tier computation

Tiers are a pure function over the balance: no state, no persistence.
The UI reads these alongside the balance to render progress bars.
*/
package rewards

// Tier is a loyalty level reached at a balance threshold.
type Tier struct {
	Name      string `json:"name"`
	Threshold int64  `json:"threshold"`
}

// Tiers in ascending threshold order.
var Tiers = []Tier{
	{Name: "Seedling", Threshold: 0},
	{Name: "Sprout", Threshold: 250},
	{Name: "Bloom", Threshold: 750},
	{Name: "Flourish", Threshold: 2000},
}

// TierFor returns the highest tier whose threshold the balance meets.
func TierFor(balance int64) Tier {
	current := Tiers[0]
	for _, t := range Tiers {
		if balance >= t.Threshold {
			current = t
		}
	}
	return current
}

// TierProgress returns the current tier, the next one (nil at the top),
// and the fraction [0,1] of the way from current to next.
func TierProgress(balance int64) (current Tier, next *Tier, progress float64) {
	current = TierFor(balance)
	for i, t := range Tiers {
		if t.Name == current.Name && i+1 < len(Tiers) {
			n := Tiers[i+1]
			next = &n
			span := n.Threshold - current.Threshold
			progress = float64(balance-current.Threshold) / float64(span)
			if progress > 1 {
				progress = 1
			}
			return current, next, progress
		}
	}
	return current, nil, 1
}
