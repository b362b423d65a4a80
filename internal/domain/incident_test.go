package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicationKey(t *testing.T) {
	a := DeduplicationKey("payments", "DB connection failed")
	b := DeduplicationKey("payments", "DB connection failed")
	c := DeduplicationKey("payments", "DB connection slow")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestIncident_EnsureDeduplicationKey_KeepsExisting(t *testing.T) {
	inc := &Incident{ServiceName: "payments", Title: "x", DeduplicationKey: "preset"}
	inc.EnsureDeduplicationKey()
	assert.Equal(t, "preset", inc.DeduplicationKey)

	inc = &Incident{ServiceName: "payments", Title: "x"}
	inc.EnsureDeduplicationKey()
	assert.Equal(t, DeduplicationKey("payments", "x"), inc.DeduplicationKey)
}

func TestIncidentStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   IncidentStatus
		terminal bool
	}{
		{IncidentStatusTriggered, false},
		{IncidentStatusAcknowledged, false},
		{IncidentStatusResolved, true},
		{IncidentStatusEscalated, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestOnCallSchedule_IsActiveAt_InclusiveBounds(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)
	s := &OnCallSchedule{StartTime: start, EndTime: end}

	assert.True(t, s.IsActiveAt(start))
	assert.True(t, s.IsActiveAt(end))
	assert.True(t, s.IsActiveAt(start.Add(time.Hour)))
	assert.False(t, s.IsActiveAt(start.Add(-time.Nanosecond)))
	assert.False(t, s.IsActiveAt(end.Add(time.Nanosecond)))
}

func TestSeverity_AutoDismiss(t *testing.T) {
	assert.Equal(t, 5*time.Second, SeveritySuccess.AutoDismiss())
	assert.Equal(t, 5*time.Second, SeverityInfo.AutoDismiss())
	assert.Equal(t, 6*time.Second, SeverityWarning.AutoDismiss())
	assert.Equal(t, 7*time.Second, SeverityError.AutoDismiss())
	assert.Equal(t, time.Duration(0), Severity("other").AutoDismiss())
}

func TestIncident_ApplyTransition(t *testing.T) {
	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	inc := &Incident{Status: IncidentStatusTriggered}

	inc.ApplyTransition(IncidentStatusAcknowledged, at)
	assert.Equal(t, IncidentStatusAcknowledged, inc.Status)
	if assert.NotNil(t, inc.AcknowledgedAt) {
		assert.Equal(t, at, *inc.AcknowledgedAt)
	}
	assert.Nil(t, inc.ResolvedAt)
	assert.Nil(t, inc.EscalatedAt)
}
