package incidents

import (
	"errors"
	"fmt"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
)

// Incident errors.
var (
	ErrIncidentNotFound = errors.New("incident not found")
	ErrInvalidState     = errors.New("invalid incident state")
	ErrNoEscalationPath = fmt.Errorf("%w: no escalation path defined", ErrInvalidState)
	ErrValidation       = errors.New("validation failed")
)

// StateError reports a transition attempted from the wrong status.
// It matches ErrInvalidState with errors.Is.
type StateError struct {
	ID       string
	Current  domain.IncidentStatus
	Expected domain.IncidentStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("incident %s is in %s state, expected %s", e.ID, e.Current, e.Expected)
}

// Is makes errors.Is(err, ErrInvalidState) true for any StateError.
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}
