package escalation

import (
	"context"
	"strings"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/clock"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/ctxlog"
	"github.com/google/uuid"
)

// Service implements escalation path management.
type Service struct {
	repo  Repository
	clock clock.Clock
}

// NewService creates a new escalation service.
func NewService(repo Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

// LevelInput holds data for creating or replacing a level.
type LevelInput struct {
	ServiceName         string
	Level               int
	NotificationChannel string
}

func (in *LevelInput) normalize() error {
	in.ServiceName = strings.TrimSpace(in.ServiceName)
	if in.ServiceName == "" || in.Level < 1 {
		return ErrInvalidLevel
	}
	if strings.TrimSpace(in.NotificationChannel) == "" {
		in.NotificationChannel = domain.DefaultNotificationChannel
	}
	return nil
}

// CreateLevel adds a level to a service's escalation path.
func (s *Service) CreateLevel(ctx context.Context, input LevelInput) (*domain.EscalationLevel, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}

	level := &domain.EscalationLevel{
		ID:                  uuid.NewString(),
		ServiceName:         input.ServiceName,
		Level:               input.Level,
		NotificationChannel: input.NotificationChannel,
		CreatedAt:           s.clock.Now(),
	}
	if err := s.repo.CreateLevel(ctx, level); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("escalation level created",
		"level_id", level.ID,
		"service_name", level.ServiceName,
		"level", level.Level,
		"notification_channel", level.NotificationChannel,
	)
	return level, nil
}

// GetLevel retrieves a level by ID.
func (s *Service) GetLevel(ctx context.Context, id string) (*domain.EscalationLevel, error) {
	return s.repo.GetLevel(ctx, id)
}

// ListLevels lists levels, optionally restricted to one service.
func (s *Service) ListLevels(ctx context.Context, serviceName string) ([]domain.EscalationLevel, error) {
	return s.repo.ListLevels(ctx, serviceName)
}

// UpdateLevel replaces the fields of an existing level.
func (s *Service) UpdateLevel(ctx context.Context, id string, input LevelInput) (*domain.EscalationLevel, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}

	level, err := s.repo.GetLevel(ctx, id)
	if err != nil {
		return nil, err
	}
	level.ServiceName = input.ServiceName
	level.Level = input.Level
	level.NotificationChannel = input.NotificationChannel

	if err := s.repo.UpdateLevel(ctx, level); err != nil {
		return nil, err
	}
	return level, nil
}

// DeleteLevel removes a level by ID.
func (s *Service) DeleteLevel(ctx context.Context, id string) error {
	return s.repo.DeleteLevel(ctx, id)
}

// LevelsFor returns the escalation path of one service, lowest level first.
func (s *Service) LevelsFor(ctx context.Context, serviceName string) ([]domain.EscalationLevel, error) {
	if serviceName == "" {
		return nil, nil
	}
	return s.repo.ListLevels(ctx, serviceName)
}
