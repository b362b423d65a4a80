package incidents

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "oncall"

var (
	incidentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "incidents",
			Name:      "transitions_total",
			Help:      "Successful incident transitions by target status",
		},
		[]string{"status"},
	)

	incidentCreates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "incidents",
			Name:      "trigger_total",
			Help:      "Trigger requests by outcome (created, deduplicated)",
		},
		[]string{"outcome"},
	)

	sweepRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "escalation",
			Name:      "sweeps_total",
			Help:      "Total escalation sweeps started",
		},
	)

	sweepResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "escalation",
			Name:      "sweep_incidents_total",
			Help:      "Incidents handled by escalation sweeps by result",
		},
		[]string{"result"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "escalation",
			Name:      "sweep_duration_seconds",
			Help:      "Time to run one escalation sweep",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

func recordTransition(status string) {
	incidentTransitions.WithLabelValues(status).Inc()
}

func recordCreate(outcome string) {
	incidentCreates.WithLabelValues(outcome).Inc()
}

func recordSweep(result SweepResult, duration time.Duration) {
	sweepRuns.Inc()
	sweepResults.WithLabelValues("escalated").Add(float64(result.Escalated))
	sweepResults.WithLabelValues("failed").Add(float64(result.Failed))
	sweepDuration.Observe(duration.Seconds())
}
