package domain

import "time"

// Severity classifies a notification.
type Severity string

// Notification severities.
const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IsValid checks if the severity is valid.
func (s Severity) IsValid() bool {
	return s == SeveritySuccess || s == SeverityInfo || s == SeverityWarning || s == SeverityError
}

// AutoDismiss returns how long a client should keep the notification visible.
// Zero means manual dismissal.
func (s Severity) AutoDismiss() time.Duration {
	switch s {
	case SeveritySuccess, SeverityInfo:
		return 5 * time.Second
	case SeverityWarning:
		return 6 * time.Second
	case SeverityError:
		return 7 * time.Second
	}
	return 0
}

// Notification is a single entry of the in-app notification feed.
type Notification struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Severity    Severity  `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AutoDismiss int64     `json:"auto_dismiss"`
}
