package oncall

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/clock"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/ctxlog"
	"github.com/google/uuid"
)

// Service implements schedule management.
type Service struct {
	repo     Repository
	resolver *Resolver
	clock    clock.Clock
}

// NewService creates a new schedule service.
func NewService(repo Repository, resolver *Resolver, clk clock.Clock) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		clock:    clk,
	}
}

// ScheduleInput holds data for creating or replacing a schedule.
type ScheduleInput struct {
	ResponderID string
	ServiceName string
	StartTime   time.Time
	EndTime     time.Time
	IsOverride  bool
}

func (in ScheduleInput) validate() error {
	if strings.TrimSpace(in.ResponderID) == "" || strings.TrimSpace(in.ServiceName) == "" {
		return ErrInvalidSchedule
	}
	if in.StartTime.After(in.EndTime) {
		return ErrInvalidInterval
	}
	return nil
}

// CreateSchedule validates and stores a new schedule.
func (s *Service) CreateSchedule(ctx context.Context, input ScheduleInput) (*domain.OnCallSchedule, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	schedule := &domain.OnCallSchedule{
		ID:          uuid.NewString(),
		ResponderID: input.ResponderID,
		ServiceName: input.ServiceName,
		StartTime:   input.StartTime.UTC(),
		EndTime:     input.EndTime.UTC(),
		IsOverride:  input.IsOverride,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.repo.CreateSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	ctxlog.FromContext(ctx).Info("on-call schedule created",
		"schedule_id", schedule.ID,
		"service_name", schedule.ServiceName,
		"responder_id", schedule.ResponderID,
		"start_time", schedule.StartTime,
		"end_time", schedule.EndTime,
		"is_override", schedule.IsOverride,
	)
	return schedule, nil
}

// GetSchedule retrieves a schedule by ID.
func (s *Service) GetSchedule(ctx context.Context, id string) (*domain.OnCallSchedule, error) {
	return s.repo.GetSchedule(ctx, id)
}

// ListSchedules retrieves schedules with optional filters.
func (s *Service) ListSchedules(ctx context.Context, filter ScheduleFilter) ([]domain.OnCallSchedule, error) {
	return s.repo.ListSchedules(ctx, filter)
}

// UpdateSchedule replaces the mutable fields of a schedule.
// CreatedAt is kept so the tie-break order does not change.
func (s *Service) UpdateSchedule(ctx context.Context, id string, input ScheduleInput) (*domain.OnCallSchedule, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	schedule, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	schedule.ResponderID = input.ResponderID
	schedule.ServiceName = input.ServiceName
	schedule.StartTime = input.StartTime.UTC()
	schedule.EndTime = input.EndTime.UTC()
	schedule.IsOverride = input.IsOverride

	if err := s.repo.UpdateSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	return schedule, nil
}

// DeleteSchedule deletes a schedule by ID.
func (s *Service) DeleteSchedule(ctx context.Context, id string) error {
	return s.repo.DeleteSchedule(ctx, id)
}

// CurrentOnCall returns the schedule that is on call for the service right now.
func (s *Service) CurrentOnCall(ctx context.Context, serviceName string) (*domain.OnCallSchedule, error) {
	schedule, err := s.resolver.ResolveSchedule(ctx, serviceName, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoOnCall, serviceName)
	}
	return schedule, nil
}
