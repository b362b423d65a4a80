//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnCall_CurrentPrefersOverride(t *testing.T) {
	c := newTestClient()
	service := uniqueService(t)
	now := time.Now().UTC()

	createSchedule(t, c, service, "regular", now.Add(-2*time.Hour), now.Add(2*time.Hour), false)
	createSchedule(t, c, service, "override", now.Add(-time.Hour), now.Add(time.Hour), true)
	createSchedule(t, c, service, "future", now.Add(time.Hour), now.Add(3*time.Hour), true)

	resp := c.GET(t, testutil.Path("/oncall/current?service_name=%s", service))
	testutil.RequireStatus(t, resp, http.StatusOK)
	var current domain.OnCallSchedule
	testutil.DecodeData(t, resp, &current)
	assert.Equal(t, "override", current.ResponderID)

	inc, _ := triggerIncident(t, c, service, "Override wins", nil)
	require.NotNil(t, inc.AssignedTo)
	assert.Equal(t, "override", *inc.AssignedTo)
}

func TestOnCall_NoResponder(t *testing.T) {
	c := newTestClient()
	service := uniqueService(t)

	resp := c.GET(t, testutil.Path("/oncall/current?service_name=%s", service))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	inc, status := triggerIncident(t, c, service, "Nobody home", nil)
	assert.Equal(t, http.StatusCreated, status)
	assert.Nil(t, inc.AssignedTo)
}

func TestOnCall_ScheduleCRUD(t *testing.T) {
	c := newTestClient()
	service := uniqueService(t)
	now := time.Now().UTC().Truncate(time.Second)

	s := createSchedule(t, c, service, "alice", now, now.Add(8*time.Hour), false)

	resp := c.PUT(t, testutil.Path("/oncall/schedules/%s", s.ID), map[string]any{
		"responder_id": "bob",
		"service_name": service,
		"start_time":   now.Format(time.RFC3339),
		"end_time":     now.Add(4 * time.Hour).Format(time.RFC3339),
	})
	testutil.RequireStatus(t, resp, http.StatusOK)
	var updated domain.OnCallSchedule
	testutil.DecodeData(t, resp, &updated)
	assert.Equal(t, "bob", updated.ResponderID)
	assert.True(t, updated.EndTime.Equal(now.Add(4*time.Hour)))

	resp = c.GET(t, testutil.Path("/oncall/schedules?service_name=%s", service))
	testutil.RequireStatus(t, resp, http.StatusOK)
	var list []domain.OnCallSchedule
	testutil.DecodeData(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].ResponderID)

	resp = c.DELETE(t, testutil.Path("/oncall/schedules/%s", s.ID))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp = c.GET(t, testutil.Path("/oncall/schedules/%s", s.ID))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestOnCall_InvalidInterval(t *testing.T) {
	c := newTestClient()
	now := time.Now().UTC()

	resp := c.POST(t, testutil.Path("/oncall/schedules"), map[string]any{
		"responder_id": "alice",
		"service_name": uniqueService(t),
		"start_time":   now.Format(time.RFC3339),
		"end_time":     now.Add(-time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
