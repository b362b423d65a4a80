package oncall

import "errors"

// Schedule errors.
var (
	ErrScheduleNotFound = errors.New("on-call schedule not found")
	ErrInvalidInterval  = errors.New("schedule start_time must not be after end_time")
	ErrInvalidSchedule  = errors.New("responder_id and service_name are required")
	ErrNoOnCall         = errors.New("no on-call responder")
)
