// Package escalation manages ordered escalation paths per service.
package escalation

import (
	"context"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
)

// Repository defines the interface for escalation level storage.
// Create must return ErrLevelExists when (service_name, level) is taken.
type Repository interface {
	CreateLevel(ctx context.Context, level *domain.EscalationLevel) error
	GetLevel(ctx context.Context, id string) (*domain.EscalationLevel, error)
	UpdateLevel(ctx context.Context, level *domain.EscalationLevel) error
	DeleteLevel(ctx context.Context, id string) error

	// ListLevels returns levels ordered by service name and then level.
	// An empty serviceName returns every service.
	ListLevels(ctx context.Context, serviceName string) ([]domain.EscalationLevel, error)
}
