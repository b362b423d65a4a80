package escalation

import "errors"

// Escalation level errors.
var (
	ErrLevelNotFound = errors.New("escalation level not found")
	ErrLevelExists   = errors.New("escalation level already exists for service")
	ErrInvalidLevel  = errors.New("level must be >= 1 and service_name is required")
)
