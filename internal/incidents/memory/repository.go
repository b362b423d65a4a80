// Package memory provides an in-process implementation of incidents.Repository.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/incidents"
)

// record guards one incident. Transitions lock only the record they touch.
type record struct {
	mu       sync.Mutex
	incident domain.Incident
}

func (r *record) snapshot() domain.Incident {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneIncident(r.incident)
}

// Repository implements incidents.Repository in memory.
type Repository struct {
	mu      sync.RWMutex
	records map[string]*record
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{records: make(map[string]*record)}
}

func (r *Repository) get(id string) (*record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok
}

func (r *Repository) all() []domain.Incident {
	r.mu.RLock()
	recs := make([]*record, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	out := make([]domain.Incident, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.snapshot())
	}
	return out
}

// Create stores a new incident.
func (r *Repository) Create(_ context.Context, incident *domain.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[incident.ID] = &record{incident: cloneIncident(*incident)}
	return nil
}

// GetByID retrieves an incident by ID.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Incident, error) {
	rec, ok := r.get(id)
	if !ok {
		return nil, incidents.ErrIncidentNotFound
	}
	inc := rec.snapshot()
	return &inc, nil
}

// List returns incidents newest first.
func (r *Repository) List(_ context.Context, filter incidents.ListFilter) ([]domain.Incident, error) {
	matched := make([]domain.Incident, 0)
	for _, inc := range r.all() {
		if filter.Status != nil && inc.Status != *filter.Status {
			continue
		}
		if filter.ServiceName != "" && inc.ServiceName != filter.ServiceName {
			continue
		}
		matched = append(matched, inc)
	}
	sortNewestFirst(matched)

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []domain.Incident{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Transition performs a compare-and-set on the incident status.
func (r *Repository) Transition(_ context.Context, id string, from, to domain.IncidentStatus, at time.Time) (*domain.Incident, error) {
	rec, ok := r.get(id)
	if !ok {
		return nil, incidents.ErrIncidentNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.incident.Status != from {
		return nil, &incidents.StateError{ID: id, Current: rec.incident.Status, Expected: from}
	}
	rec.incident.ApplyTransition(to, at)

	inc := cloneIncident(rec.incident)
	return &inc, nil
}

// AssignResponder sets the assignee of an incident.
func (r *Repository) AssignResponder(_ context.Context, id, responderID string) (*domain.Incident, error) {
	rec, ok := r.get(id)
	if !ok {
		return nil, incidents.ErrIncidentNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	assignee := responderID
	rec.incident.AssignedTo = &assignee
	inc := cloneIncident(rec.incident)
	return &inc, nil
}

// FindDuplicateTriggered returns the newest matching TRIGGERED incident, or nil.
func (r *Repository) FindDuplicateTriggered(_ context.Context, serviceName, title string, since time.Time) (*domain.Incident, error) {
	var found *domain.Incident
	for _, inc := range r.all() {
		if inc.Status != domain.IncidentStatusTriggered ||
			inc.ServiceName != serviceName ||
			inc.Title != title ||
			inc.CreatedAt.Before(since) {
			continue
		}
		if found == nil || inc.CreatedAt.After(found.CreatedAt) {
			match := inc
			found = &match
		}
	}
	return found, nil
}

// FindStaleTriggered returns TRIGGERED incidents created before cutoff, oldest first.
func (r *Repository) FindStaleTriggered(_ context.Context, cutoff time.Time) ([]domain.Incident, error) {
	stale := make([]domain.Incident, 0)
	for _, inc := range r.all() {
		if inc.Status == domain.IncidentStatusTriggered && inc.CreatedAt.Before(cutoff) {
			stale = append(stale, inc)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		if !stale[i].CreatedAt.Equal(stale[j].CreatedAt) {
			return stale[i].CreatedAt.Before(stale[j].CreatedAt)
		}
		return stale[i].ID < stale[j].ID
	})
	return stale, nil
}

// ListResolved returns RESOLVED incidents matching filter.
func (r *Repository) ListResolved(_ context.Context, filter incidents.StatsFilter) ([]domain.Incident, error) {
	resolved := make([]domain.Incident, 0)
	for _, inc := range r.all() {
		if inc.Status != domain.IncidentStatusResolved {
			continue
		}
		if filter.ServiceName != "" && inc.ServiceName != filter.ServiceName {
			continue
		}
		if filter.From != nil && inc.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && inc.CreatedAt.After(*filter.To) {
			continue
		}
		resolved = append(resolved, inc)
	}
	sortNewestFirst(resolved)
	return resolved, nil
}

func sortNewestFirst(list []domain.Incident) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

// cloneIncident copies pointer fields so callers never share state with the store.
func cloneIncident(in domain.Incident) domain.Incident {
	out := in
	if in.AssignedTo != nil {
		v := *in.AssignedTo
		out.AssignedTo = &v
	}
	out.AcknowledgedAt = cloneTime(in.AcknowledgedAt)
	out.ResolvedAt = cloneTime(in.ResolvedAt)
	out.EscalatedAt = cloneTime(in.EscalatedAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
