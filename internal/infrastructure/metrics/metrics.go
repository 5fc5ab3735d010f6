package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook ingestion
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomsync_webhook_events_total",
			Help: "Webhook events received, by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: applied, ignored, stale, error
	)

	WebhookVerificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomsync_webhook_verification_failures_total",
			Help: "Webhook requests rejected for missing or invalid signatures",
		},
	)

	// Sweeper
	SweepRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomsync_sweep_runs_total",
			Help: "Completed sweep runs",
		},
	)

	RoomsReapedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomsync_rooms_reaped_total",
			Help: "Rooms deleted by the sweeper, by reason",
		},
		[]string{"reason"},
	)

	SweepFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomsync_sweep_failures_total",
			Help: "Per-record delete failures during sweeps",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roomsync_sweep_duration_seconds",
			Help:    "Sweep run duration",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// Token issuance
	TokensIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomsync_tokens_issued_total",
			Help: "Access tokens issued",
		},
	)

	TokenFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomsync_token_failures_total",
			Help: "Token requests rejected, by reason",
		},
		[]string{"reason"}, // unauthenticated, invalid_argument, internal
	)
)
