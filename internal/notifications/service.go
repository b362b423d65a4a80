package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
)

// Service serves the notification feed.
type Service struct {
	queue Queue
}

// NewService creates a new notifications service.
func NewService(queue Queue) *Service {
	return &Service{queue: queue}
}

// Drain returns pending notifications and clears them so a reload does not repeat them.
func (s *Service) Drain(ctx context.Context) ([]domain.Notification, error) {
	list, err := s.queue.Drain(ctx)
	if err != nil {
		return nil, fmt.Errorf("drain notifications: %w", err)
	}
	recordDrained(len(list))
	return list, nil
}

// Clear discards pending notifications.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.queue.Clear(ctx); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	slog.Info("notifications cleared")
	return nil
}
