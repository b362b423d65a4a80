package notifications

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "oncall"

var (
	notificationsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "enqueued_total",
			Help:      "Total notifications enqueued by severity",
		},
		[]string{"severity"},
	)

	notificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "dropped_total",
			Help:      "Notifications dropped because the queue was full",
		},
	)

	notificationsDrained = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "drained_total",
			Help:      "Notifications delivered to feed readers",
		},
	)
)

func recordEnqueued(severity string) {
	notificationsEnqueued.WithLabelValues(severity).Inc()
}

func recordDropped(count int) {
	notificationsDropped.Add(float64(count))
}

// RecordDropped counts notifications evicted by an external queue backend.
func RecordDropped(count int) {
	if count > 0 {
		recordDropped(count)
	}
}

func recordDrained(count int) {
	notificationsDrained.Add(float64(count))
}
