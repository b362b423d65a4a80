package notifications

import (
	"context"
	"log/slog"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/clock"
)

// QueueNotifier publishes lifecycle notifications to a Queue.
// Enqueue failures are logged and never returned.
type QueueNotifier struct {
	queue Queue
	clock clock.Clock
}

// NewQueueNotifier creates a notifier writing to queue.
func NewQueueNotifier(queue Queue, clk clock.Clock) *QueueNotifier {
	return &QueueNotifier{queue: queue, clock: clk}
}

// Notify enqueues a notification.
func (n *QueueNotifier) Notify(ctx context.Context, title, message string, severity domain.Severity) {
	if !severity.IsValid() {
		slog.Warn("unknown notification severity, using info", "severity", severity, "title", title)
		severity = domain.SeverityInfo
	}

	notification := &domain.Notification{
		Title:       title,
		Message:     message,
		Severity:    severity,
		Timestamp:   n.clock.Now(),
		AutoDismiss: severity.AutoDismiss().Milliseconds(),
	}

	if err := n.queue.Enqueue(ctx, notification); err != nil {
		slog.Error("failed to enqueue notification",
			"title", title,
			"severity", severity,
			"error", err,
		)
		return
	}
	recordEnqueued(string(severity))
}
