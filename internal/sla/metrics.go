package sla

import (
	"time"

	"github.com/bissquit/asset-desk/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "sla",
			Name:      "verdicts_total",
			Help:      "SLA leg verdicts produced by batch evaluations",
		},
		[]string{"leg", "verdict"},
	)

	skippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "sla",
			Name:      "skipped_total",
			Help:      "Incidents excluded from SLA evaluation",
		},
		[]string{"reason"},
	)

	evaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "sla",
			Name:      "evaluation_duration_seconds",
			Help:      "Time to evaluate a full set of incidents",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)
)

func recordResult(r *Result) {
	for _, l := range r.Legs() {
		verdictsTotal.WithLabelValues(string(l.Leg), string(l.Verdict)).Inc()
	}
}

func recordSkipped(reason SkipReason) {
	skippedTotal.WithLabelValues(string(reason)).Inc()
}

func recordEvaluationDuration(d time.Duration) {
	evaluationDuration.Observe(d.Seconds())
}
