package oncall

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
)

// ActiveScheduleFinder finds schedules covering an instant.
type ActiveScheduleFinder interface {
	FindActive(ctx context.Context, serviceName string, at time.Time) ([]domain.OnCallSchedule, error)
}

// Resolver answers "who is on-call for service S at time T".
type Resolver struct {
	finder ActiveScheduleFinder
}

// NewResolver creates a new on-call resolver.
func NewResolver(finder ActiveScheduleFinder) *Resolver {
	return &Resolver{finder: finder}
}

// Resolve returns the responder on call for the service at the given time.
// The boolean is false when no schedule covers that instant.
func (r *Resolver) Resolve(ctx context.Context, serviceName string, at time.Time) (string, bool, error) {
	schedule, err := r.ResolveSchedule(ctx, serviceName, at)
	if err != nil {
		return "", false, err
	}
	if schedule == nil {
		return "", false, nil
	}
	return schedule.ResponderID, true, nil
}

// ResolveSchedule returns the winning schedule, or nil if none matches.
func (r *Resolver) ResolveSchedule(ctx context.Context, serviceName string, at time.Time) (*domain.OnCallSchedule, error) {
	schedules, err := r.finder.FindActive(ctx, serviceName, at)
	if err != nil {
		return nil, fmt.Errorf("find active schedules: %w", err)
	}

	candidates := make([]domain.OnCallSchedule, 0, len(schedules))
	for _, s := range schedules {
		if s.ServiceName == serviceName && s.IsActiveAt(at) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	SortByPriority(candidates)
	winner := candidates[0]
	return &winner, nil
}

// SortByPriority orders schedules so that the first element wins:
// overrides before regular schedules, then earliest created, then lowest ID.
func SortByPriority(schedules []domain.OnCallSchedule) {
	sort.SliceStable(schedules, func(i, j int) bool {
		a, b := schedules[i], schedules[j]
		if a.IsOverride != b.IsOverride {
			return a.IsOverride
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
