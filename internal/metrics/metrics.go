package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal tracks engine decisions per failure kind and outcome
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrypolicy_decisions_total",
			Help: "Total number of retry decisions",
		},
		[]string{"kind", "outcome"},
	)

	// RetryDelay tracks the delay applied before each retry
	RetryDelay = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retrypolicy_retry_delay_seconds",
			Help:    "Delay applied before a retry in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"kind"},
	)

	// Attempts tracks how many attempts each logical operation needed
	Attempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retrypolicy_attempts",
			Help:    "Attempts per logical operation",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
		[]string{"op", "outcome"},
	)

	// FailedOperationsRecorded tracks terminal failures written to the journal
	FailedOperationsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrypolicy_failed_operations_recorded_total",
			Help: "Total number of failed operations written to the journal",
		},
		[]string{"driver"},
	)

	// JournalErrorsTotal tracks journal write failures
	JournalErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrypolicy_journal_errors_total",
			Help: "Total number of failed journal writes",
		},
		[]string{"driver"},
	)

	// DBConnectionPoolUsage tracks the percentage of open journal DB connections
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retrypolicy_db_connection_pool_usage_percent",
			Help: "Journal database connection pool usage percentage",
		},
	)
)
