// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tat_runs_total",
			Help: "Total number of TAT delay runs by outcome",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "tat_run_duration_seconds",
			Help: "Duration of a TAT delay run in seconds",
		},
	)

	DelayedApplications = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tat_delayed_applications",
			Help: "Delayed applications found by the most recent run",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tat_notifications_sent_total",
			Help: "Total number of delay notifications sent by channel",
		},
		[]string{"channel"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tat_notifications_failed_total",
			Help: "Total number of delay notifications that failed by channel",
		},
		[]string{"channel"},
	)
)
