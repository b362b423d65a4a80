// Package incidents implements the incident lifecycle engine.
package incidents

import (
	"context"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
)

// Repository defines the interface for incident storage.
type Repository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Incident, error)

	// Transition moves the incident from one status to another and stamps
	// the target's timestamp in a single conditional write. It returns
	// ErrIncidentNotFound for an unknown id and *StateError when the
	// current status is not from.
	Transition(ctx context.Context, id string, from, to domain.IncidentStatus, at time.Time) (*domain.Incident, error)

	AssignResponder(ctx context.Context, id, responderID string) (*domain.Incident, error)

	// FindDuplicateTriggered returns the most recent TRIGGERED incident with
	// exactly this service and title created at or after since, or nil.
	FindDuplicateTriggered(ctx context.Context, serviceName, title string, since time.Time) (*domain.Incident, error)

	// FindStaleTriggered returns TRIGGERED incidents created strictly before cutoff, oldest first.
	FindStaleTriggered(ctx context.Context, cutoff time.Time) ([]domain.Incident, error)

	ListResolved(ctx context.Context, filter StatsFilter) ([]domain.Incident, error)
}

// ListFilter holds filter options for listing incidents.
type ListFilter struct {
	Status      *domain.IncidentStatus
	ServiceName string
	Limit       int
	Offset      int
}

// StatsFilter restricts the incidents that feed Stats.
// From and To bound created_at and are inclusive.
type StatsFilter struct {
	ServiceName string
	From        *time.Time
	To          *time.Time
}
