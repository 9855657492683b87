package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts handled RPCs and HTTP requests by method and
	// outcome code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barbershop_requests_total",
			Help: "Handled requests by method and status code",
		},
		[]string{"method", "code"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barbershop_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// BookingsTotal counts submissions by outcome: created, honeypot,
	// cooldown, invalid, taken, error.
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barbershop_bookings_total",
			Help: "Booking submissions by outcome",
		},
		[]string{"outcome"},
	)

	AdminActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barbershop_admin_actions_total",
			Help: "Admin mutations by action and result",
		},
		[]string{"action", "result"},
	)

	ChangeSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "barbershop_change_subscribers",
			Help: "Live appointment change subscribers",
		},
	)

	ChangesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "barbershop_changes_dropped_total",
			Help: "Change events dropped for slow subscribers",
		},
	)
)

// Booking outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeHoneypot = "honeypot"
	OutcomeCooldown = "cooldown"
	OutcomeInvalid  = "invalid"
	OutcomeTaken    = "taken"
	OutcomeError    = "error"
)
