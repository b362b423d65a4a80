//go:build integration

package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// uniqueService returns a service name no other test uses, so tests sharing
// one database do not see each other's incidents or schedules.
func uniqueService(t *testing.T) string {
	t.Helper()
	return strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-")) + "-" + uuid.NewString()[:8]
}

func triggerIncident(t *testing.T, c *testutil.Client, service, title string, extra map[string]any) (*domain.Incident, int) {
	t.Helper()

	body := map[string]any{
		"title":        title,
		"description":  "integration test",
		"service_name": service,
	}
	for k, v := range extra {
		body[k] = v
	}

	resp := c.POST(t, testutil.Path("/incidents/trigger"), body)
	status := resp.StatusCode
	if status != http.StatusCreated && status != http.StatusOK {
		testutil.RequireStatus(t, resp, http.StatusCreated)
	}

	var inc domain.Incident
	testutil.DecodeData(t, resp, &inc)
	return &inc, status
}

func createSchedule(t *testing.T, c *testutil.Client, service, responder string, start, end time.Time, override bool) *domain.OnCallSchedule {
	t.Helper()

	resp := c.POST(t, testutil.Path("/oncall/schedules"), map[string]any{
		"responder_id": responder,
		"service_name": service,
		"start_time":   start.Format(time.RFC3339),
		"end_time":     end.Format(time.RFC3339),
		"is_override":  override,
	})
	testutil.RequireStatus(t, resp, http.StatusCreated)

	var s domain.OnCallSchedule
	testutil.DecodeData(t, resp, &s)
	t.Cleanup(func() { _ = c.DELETE(t, testutil.Path("/oncall/schedules/%s", s.ID)).Body.Close() })
	return &s
}

func createLevel(t *testing.T, c *testutil.Client, service string, level int, channel string) *domain.EscalationLevel {
	t.Helper()

	resp := c.POST(t, testutil.Path("/escalation/levels"), map[string]any{
		"service_name":         service,
		"level":                level,
		"notification_channel": channel,
	})
	testutil.RequireStatus(t, resp, http.StatusCreated)

	var l domain.EscalationLevel
	testutil.DecodeData(t, resp, &l)
	t.Cleanup(func() { _ = c.DELETE(t, testutil.Path("/escalation/levels/%s", l.ID)).Body.Close() })
	return &l
}

// backdate moves created_at of an incident into the past so sweeps see it as stale.
func backdate(t *testing.T, id string, age time.Duration) {
	t.Helper()
	_, err := testDB.Exec(context.Background(),
		`UPDATE incidents SET created_at = created_at - make_interval(secs => $2) WHERE id = $1`,
		id, age.Seconds())
	require.NoError(t, err)
}

func drainFeed(t *testing.T, c *testutil.Client) []domain.Notification {
	t.Helper()

	resp := c.GET(t, testutil.Path("/notifications"))
	testutil.RequireStatus(t, resp, http.StatusOK)

	var feed struct {
		Notifications []domain.Notification `json:"notifications"`
		Count         int                   `json:"count"`
	}
	testutil.DecodeData(t, resp, &feed)
	require.Equal(t, len(feed.Notifications), feed.Count)
	return feed.Notifications
}

func titles(list []domain.Notification) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.Title)
	}
	return out
}
