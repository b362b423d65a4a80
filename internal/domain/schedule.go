package domain

import "time"

// OnCallSchedule assigns a responder to a service for a time interval.
// The interval is inclusive at both ends.
type OnCallSchedule struct {
	ID          string    `json:"id"`
	ResponderID string    `json:"responder_id"`
	ServiceName string    `json:"service_name"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsOverride  bool      `json:"is_override"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsActiveAt checks if the schedule covers the given instant.
func (s *OnCallSchedule) IsActiveAt(at time.Time) bool {
	return !at.Before(s.StartTime) && !at.After(s.EndTime)
}
