// Package memory provides an in-process implementation of oncall.Repository.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall"
)

// Repository implements oncall.Repository on a map guarded by a RWMutex.
type Repository struct {
	mu        sync.RWMutex
	schedules map[string]domain.OnCallSchedule
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{schedules: make(map[string]domain.OnCallSchedule)}
}

// CreateSchedule stores a new schedule.
func (r *Repository) CreateSchedule(_ context.Context, schedule *domain.OnCallSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[schedule.ID] = *schedule
	return nil
}

// GetSchedule retrieves a schedule by ID.
func (r *Repository) GetSchedule(_ context.Context, id string) (*domain.OnCallSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schedules[id]
	if !ok {
		return nil, oncall.ErrScheduleNotFound
	}
	return &s, nil
}

// ListSchedules returns schedules ordered by start time.
func (r *Repository) ListSchedules(_ context.Context, filter oncall.ScheduleFilter) ([]domain.OnCallSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.OnCallSchedule, 0, len(r.schedules))
	for _, s := range r.schedules {
		if filter.ServiceName != "" && s.ServiceName != filter.ServiceName {
			continue
		}
		if filter.ResponderID != "" && s.ResponderID != filter.ResponderID {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// UpdateSchedule replaces an existing schedule.
func (r *Repository) UpdateSchedule(_ context.Context, schedule *domain.OnCallSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[schedule.ID]; !ok {
		return oncall.ErrScheduleNotFound
	}
	r.schedules[schedule.ID] = *schedule
	return nil
}

// DeleteSchedule removes a schedule by ID.
func (r *Repository) DeleteSchedule(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[id]; !ok {
		return oncall.ErrScheduleNotFound
	}
	delete(r.schedules, id)
	return nil
}

// FindActive returns schedules of the service covering at.
func (r *Repository) FindActive(_ context.Context, serviceName string, at time.Time) ([]domain.OnCallSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.OnCallSchedule
	for _, s := range r.schedules {
		if s.ServiceName == serviceName && s.IsActiveAt(at) {
			result = append(result, s)
		}
	}
	return result, nil
}
