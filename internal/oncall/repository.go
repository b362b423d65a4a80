// Package oncall provides on-call schedule storage and responder lookup.
package oncall

import (
	"context"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
)

// Repository defines the interface for schedule storage.
type Repository interface {
	CreateSchedule(ctx context.Context, schedule *domain.OnCallSchedule) error
	GetSchedule(ctx context.Context, id string) (*domain.OnCallSchedule, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]domain.OnCallSchedule, error)
	UpdateSchedule(ctx context.Context, schedule *domain.OnCallSchedule) error
	DeleteSchedule(ctx context.Context, id string) error

	// FindActive returns schedules of the service whose interval contains at,
	// both bounds inclusive. Order is not guaranteed.
	FindActive(ctx context.Context, serviceName string, at time.Time) ([]domain.OnCallSchedule, error)
}

// ScheduleFilter holds filter options for listing schedules.
type ScheduleFilter struct {
	ServiceName string
	ResponderID string
}
