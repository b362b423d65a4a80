package domain

import "time"

// DefaultNotificationChannel is used when a level is created without a channel.
const DefaultNotificationChannel = "admin"

// EscalationLevel is one ordered tier in a service's escalation path.
// Level 1 is notified first.
type EscalationLevel struct {
	ID                  string    `json:"id"`
	ServiceName         string    `json:"service_name"`
	Level               int       `json:"level"`
	NotificationChannel string    `json:"notification_channel"`
	CreatedAt           time.Time `json:"created_at"`
}
