package domain

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// IncidentStatus represents the lifecycle state of an incident.
type IncidentStatus string

// Incident statuses.
const (
	IncidentStatusTriggered    IncidentStatus = "TRIGGERED"
	IncidentStatusAcknowledged IncidentStatus = "ACKNOWLEDGED"
	IncidentStatusResolved     IncidentStatus = "RESOLVED"
	IncidentStatusEscalated    IncidentStatus = "ESCALATED"
)

// IsValid checks if the status is one of the known statuses.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusTriggered, IncidentStatusAcknowledged, IncidentStatusResolved, IncidentStatusEscalated:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leads out of the status.
func (s IncidentStatus) IsTerminal() bool {
	return s == IncidentStatusResolved || s == IncidentStatusEscalated
}

// Incident represents an alert tracked through the on-call lifecycle.
type Incident struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	ServiceName      string         `json:"service_name"`
	Status           IncidentStatus `json:"status"`
	AssignedTo       *string        `json:"assigned_to"`
	DeduplicationKey string         `json:"deduplication_key"`
	CreatedAt        time.Time      `json:"created_at"`
	AcknowledgedAt   *time.Time     `json:"acknowledged_at"`
	ResolvedAt       *time.Time     `json:"resolved_at"`
	EscalatedAt      *time.Time     `json:"escalated_at"`
}

// DeduplicationKey returns the index hint for service and title.
// It is a 64-bit non-cryptographic hash, so equal keys do not imply equal fields.
func DeduplicationKey(serviceName, title string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(serviceName+":"+title))
}

// EnsureDeduplicationKey computes the key once if it is not already set.
func (i *Incident) EnsureDeduplicationKey() {
	if i.DeduplicationKey == "" {
		i.DeduplicationKey = DeduplicationKey(i.ServiceName, i.Title)
	}
}

// ApplyTransition sets the status together with the timestamp it owns.
// TRIGGERED has no dedicated timestamp.
func (i *Incident) ApplyTransition(to IncidentStatus, at time.Time) {
	i.Status = to
	switch to {
	case IncidentStatusAcknowledged:
		i.AcknowledgedAt = &at
	case IncidentStatusResolved:
		i.ResolvedAt = &at
	case IncidentStatusEscalated:
		i.EscalatedAt = &at
	}
}
