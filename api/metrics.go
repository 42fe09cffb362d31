/*
metrics.go - Prometheus metrics for the rewards API

Counters are labeled by reason/operation so dashboards can break down
point flow per action. Registered once via promauto; the /metrics
endpoint is served by promhttp in server.go.
*/
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pointsEarned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleur_points_earned_total",
		Help: "Points awarded, by ledger reason.",
	}, []string{"reason"})

	pointsReversed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleur_points_reversed_total",
		Help: "Points clawed back via compensating entries, by ledger reason.",
	}, []string{"reason"})

	ruleViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleur_rule_violations_total",
		Help: "Operations rejected by a business rule (caps, gates, once-guards).",
	}, []string{"op"})
)

// observeResult records metric deltas for an operation outcome.
func observeResult(op, reason string, points int64, ok bool) {
	if !ok {
		ruleViolations.WithLabelValues(op).Inc()
		return
	}
	if points > 0 {
		pointsEarned.WithLabelValues(reason).Add(float64(points))
	} else if points < 0 {
		pointsReversed.WithLabelValues(reason).Add(float64(-points))
	}
}
