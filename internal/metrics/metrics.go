package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
	OutcomeIgnored = "duplicate"
)

var (
	// Delivery attempts partitioned by channel and outcome
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification delivery attempts",
		},
		[]string{"channel", "outcome"},
	)

	// Remaining-balance charges partitioned by outcome
	BalanceChargesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_charges_total",
			Help: "Remaining-balance charge attempts",
		},
		[]string{"outcome"},
	)

	// Provider webhook events partitioned by provider, type and outcome
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook events received",
		},
		[]string{"provider", "type", "outcome"},
	)

	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaner_assignments_total",
			Help: "Cleaner assignment attempts",
		},
		[]string{"outcome"},
	)

	// Outbox backlog observed at the last drain
	OutboxPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outbox_pending_messages",
			Help: "Pending outbox messages picked up by the last drain",
		},
	)

	ScheduledTaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduled_task_duration_seconds",
			Help:    "Scheduled task run time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task", "outcome"},
	)
)
