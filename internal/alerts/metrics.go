package alerts

import (
	"time"

	"github.com/bissquit/asset-desk/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	alertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "alerts",
			Name:      "sent_total",
			Help:      "Total SLA alerts processed by outcome",
		},
		[]string{"status"},
	)

	alertSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "alerts",
			Name:      "send_duration_seconds",
			Help:      "Time to send an alert",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	alertsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "alerts",
			Name:      "detected_total",
			Help:      "Breached or overdue legs found by the alert worker, including already alerted ones",
		},
	)
)

func recordAlertSent(status string) {
	alertsSent.WithLabelValues(status).Inc()
}

func recordAlertDuration(d time.Duration) {
	alertSendDuration.Observe(d.Seconds())
}

func recordDetected(n int) {
	alertsDetected.Add(float64(n))
}
