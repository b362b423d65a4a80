// Package memory provides an in-process implementation of escalation.Repository.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/escalation"
)

// Repository implements escalation.Repository on a map guarded by a RWMutex.
type Repository struct {
	mu     sync.RWMutex
	levels map[string]domain.EscalationLevel
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{levels: make(map[string]domain.EscalationLevel)}
}

func (r *Repository) taken(serviceName string, level int, exceptID string) bool {
	for id, l := range r.levels {
		if id != exceptID && l.ServiceName == serviceName && l.Level == level {
			return true
		}
	}
	return false
}

// CreateLevel stores a new level.
func (r *Repository) CreateLevel(_ context.Context, level *domain.EscalationLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(level.ServiceName, level.Level, "") {
		return escalation.ErrLevelExists
	}
	r.levels[level.ID] = *level
	return nil
}

// GetLevel retrieves a level by ID.
func (r *Repository) GetLevel(_ context.Context, id string) (*domain.EscalationLevel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.levels[id]
	if !ok {
		return nil, escalation.ErrLevelNotFound
	}
	return &l, nil
}

// UpdateLevel replaces an existing level.
func (r *Repository) UpdateLevel(_ context.Context, level *domain.EscalationLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.levels[level.ID]; !ok {
		return escalation.ErrLevelNotFound
	}
	if r.taken(level.ServiceName, level.Level, level.ID) {
		return escalation.ErrLevelExists
	}
	r.levels[level.ID] = *level
	return nil
}

// DeleteLevel removes a level by ID.
func (r *Repository) DeleteLevel(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.levels[id]; !ok {
		return escalation.ErrLevelNotFound
	}
	delete(r.levels, id)
	return nil
}

// ListLevels returns levels ordered by service name and level.
func (r *Repository) ListLevels(_ context.Context, serviceName string) ([]domain.EscalationLevel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.EscalationLevel, 0, len(r.levels))
	for _, l := range r.levels {
		if serviceName == "" || l.ServiceName == serviceName {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ServiceName != result[j].ServiceName {
			return result[i].ServiceName < result[j].ServiceName
		}
		return result[i].Level < result[j].Level
	})
	return result, nil
}
