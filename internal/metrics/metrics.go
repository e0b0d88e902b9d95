// Package metrics provides Prometheus metrics for the key pool and
// the task scheduler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "llmpool"

var (
	// CallsTotal counts provider calls by outcome.
	// Outcome is one of success, rate_limited, server_error, rejected.
	CallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Total provider calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// CallDuration tracks provider call latency.
	CallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Provider call latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	// CooldownsTotal counts cooldowns applied to keys by reason.
	CooldownsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldowns_total",
			Help:      "Total key cooldowns by provider and reason",
		},
		[]string{"provider", "reason"},
	)

	// ExhaustionWaitsTotal counts global exhaustion waits.
	ExhaustionWaitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exhaustion_waits_total",
			Help:      "Times the pool had no usable key and waited for a global reset",
		},
	)

	// ExhaustedTotal counts dispatches that failed after the retry pass.
	ExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exhausted_total",
			Help:      "Dispatches that failed with pool exhausted",
		},
	)

	// UsableKeys tracks the number of currently usable keys per provider.
	UsableKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "usable_keys",
			Help:      "Keys currently usable (not cooling down) per provider",
		},
		[]string{"provider"},
	)

	// TasksTotal counts scheduled task runs by outcome.
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Scheduled task runs by task and outcome",
		},
		[]string{"task", "outcome"},
	)

	// TaskDuration tracks scheduled task run time.
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Scheduled task run time in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"task"},
	)

	// StateSavesTotal counts state persistence attempts by backend and outcome.
	StateSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_saves_total",
			Help:      "State persistence attempts by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)
)

// RecordCall records one provider call outcome with its latency.
func RecordCall(provider, outcome string, duration time.Duration) {
	CallsTotal.WithLabelValues(provider, outcome).Inc()
	CallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCooldown records a cooldown applied to a key.
func RecordCooldown(provider, reason string) {
	CooldownsTotal.WithLabelValues(provider, reason).Inc()
}

// RecordTask records one scheduled task run.
func RecordTask(task string, err error, duration time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	TasksTotal.WithLabelValues(task, outcome).Inc()
	TaskDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// RecordStateSave records one state persistence attempt.
func RecordStateSave(backend string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	StateSavesTotal.WithLabelValues(backend, outcome).Inc()
}
