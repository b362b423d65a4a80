package incidents_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/escalation"
	escalationmem "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/escalation/memory"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/incidents"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/incidents/memory"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall"
	oncallmem "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall/memory"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type note struct {
	title    string
	message  string
	severity domain.Severity
}

// recordingNotifier implements incidents.Notifier for testing.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *recordingNotifier) Notify(_ context.Context, title, message string, severity domain.Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{title: title, message: message, severity: severity})
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notes))
	for _, e := range n.notes {
		out = append(out, e.title)
	}
	return out
}

func (n *recordingNotifier) last() note {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notes[len(n.notes)-1]
}

type fixture struct {
	svc       *incidents.Service
	repo      *memory.Repository
	schedules *oncall.Service
	levels    *escalation.Service
	notifier  *recordingNotifier
	clock     *clock.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewFake(t0)
	repo := memory.NewRepository()
	scheduleRepo := oncallmem.NewRepository()
	resolver := oncall.NewResolver(scheduleRepo)
	levels := escalation.NewService(escalationmem.NewRepository(), clk)
	notifier := &recordingNotifier{}

	return &fixture{
		svc:       incidents.NewService(repo, resolver, levels, notifier, clk, incidents.DefaultConfig()),
		repo:      repo,
		schedules: oncall.NewService(scheduleRepo, resolver, clk),
		levels:    levels,
		notifier:  notifier,
		clock:     clk,
	}
}

func (f *fixture) trigger(t *testing.T, service, title string) *domain.Incident {
	t.Helper()
	res, err := f.svc.Create(context.Background(), incidents.CreateInput{
		Title:       title,
		ServiceName: service,
		AutoAssign:  true,
		Deduplicate: true,
	})
	require.NoError(t, err)
	return res.Incident
}

func (f *fixture) addLevel(t *testing.T, service string, level int, channel string) {
	t.Helper()
	_, err := f.levels.CreateLevel(context.Background(), escalation.LevelInput{
		ServiceName: service, Level: level, NotificationChannel: channel,
	})
	require.NoError(t, err)
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	list, err := f.repo.List(context.Background(), incidents.ListFilter{})
	require.NoError(t, err)
	return len(list)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input incidents.CreateInput
	}{
		{"missing title", incidents.CreateInput{ServiceName: "payments"}},
		{"blank title", incidents.CreateInput{Title: "   ", ServiceName: "payments"}},
		{"missing service", incidents.CreateInput{Title: "DB down"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.input)
			assert.ErrorIs(t, err, incidents.ErrValidation)
		})
	}
	assert.Zero(t, f.count(t))
	assert.Empty(t, f.notifier.titles())
}

func TestCreate_NewIncident(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Create(context.Background(), incidents.CreateInput{
		Title: "DB down", Description: "primary unreachable", ServiceName: "payments",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)

	inc := res.Incident
	assert.NotEmpty(t, inc.ID)
	assert.Equal(t, domain.IncidentStatusTriggered, inc.Status)
	assert.Equal(t, t0, inc.CreatedAt)
	assert.Equal(t, domain.DeduplicationKey("payments", "DB down"), inc.DeduplicationKey)
	assert.Nil(t, inc.AssignedTo)
	assert.Nil(t, inc.AcknowledgedAt)

	last := f.notifier.last()
	assert.Equal(t, "Incident Triggered", last.title)
	assert.Equal(t, domain.SeverityWarning, last.severity)
	assert.Contains(t, last.message, "UNASSIGNED")
}

func TestCreate_AutoAssignsOnCallResponder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.schedules.CreateSchedule(ctx, oncall.ScheduleInput{
		ResponderID: "alice", ServiceName: "payments", StartTime: t0.Add(-time.Hour), EndTime: t0.Add(time.Hour),
	})
	require.NoError(t, err)

	inc := f.trigger(t, "payments", "DB down")
	require.NotNil(t, inc.AssignedTo)
	assert.Equal(t, "alice", *inc.AssignedTo)

	stored, err := f.svc.Get(ctx, inc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AssignedTo)
	assert.Equal(t, "alice", *stored.AssignedTo)
	assert.Contains(t, f.notifier.last().message, "alice")
}

func TestCreate_NoOnCallWarns(t *testing.T) {
	f := newFixture(t)

	inc := f.trigger(t, "payments", "DB down")
	assert.Nil(t, inc.AssignedTo)
	assert.Equal(t, []string{"No On-Call Responder", "Incident Triggered"}, f.notifier.titles())
}

func TestCreate_DeduplicatesWithinWindow(t *testing.T) {
	f := newFixture(t)

	first := f.trigger(t, "payments", "DB down")
	f.clock.Advance(4 * time.Minute)

	res, err := f.svc.Create(context.Background(), incidents.CreateInput{
		Title: "DB down", ServiceName: "payments", Deduplicate: true,
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, first.ID, res.Incident.ID)
	assert.Equal(t, 1, f.count(t))
	assert.Equal(t, "Duplicate Detected", f.notifier.last().title)
	assert.Equal(t, domain.SeverityInfo, f.notifier.last().severity)
}

func TestCreate_NoDedupAfterWindow(t *testing.T) {
	f := newFixture(t)

	first := f.trigger(t, "payments", "DB down")
	f.clock.Advance(5*time.Minute + time.Second)

	second := f.trigger(t, "payments", "DB down")
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, f.count(t))
}

func TestCreate_NoDedupAfterAcknowledge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.trigger(t, "payments", "DB down")
	_, err := f.svc.Acknowledge(ctx, first.ID)
	require.NoError(t, err)

	second := f.trigger(t, "payments", "DB down")
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, f.count(t))
}

func TestCreate_DedupDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.trigger(t, "payments", "DB down")
	res, err := f.svc.Create(ctx, incidents.CreateInput{Title: "DB down", ServiceName: "payments", Deduplicate: false})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 2, f.count(t))
}

func TestCreate_DedupMatchesLiteralFields(t *testing.T) {
	f := newFixture(t)

	a := f.trigger(t, "payments", "DB down")
	b := f.trigger(t, "payments", "DB Down")
	c := f.trigger(t, "search", "DB down")

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.Equal(t, 3, f.count(t))
}

func TestAcknowledge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inc := f.trigger(t, "payments", "DB down")
	f.clock.Advance(3 * time.Minute)

	acked, err := f.svc.Acknowledge(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusAcknowledged, acked.Status)
	require.NotNil(t, acked.AcknowledgedAt)
	assert.Equal(t, t0.Add(3*time.Minute), *acked.AcknowledgedAt)
	assert.Equal(t, "Incident Acknowledged", f.notifier.last().title)
	assert.Equal(t, domain.SeveritySuccess, f.notifier.last().severity)

	_, err = f.svc.Acknowledge(ctx, inc.ID)
	require.ErrorIs(t, err, incidents.ErrInvalidState)

	var stateErr *incidents.StateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, domain.IncidentStatusAcknowledged, stateErr.Current)
	assert.Equal(t, domain.IncidentStatusTriggered, stateErr.Expected)
	assert.Contains(t, err.Error(), "ACKNOWLEDGED")
	assert.Contains(t, err.Error(), "TRIGGERED")
}

func TestAcknowledge_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Acknowledge(context.Background(), "missing")
	assert.ErrorIs(t, err, incidents.ErrIncidentNotFound)
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inc := f.trigger(t, "payments", "DB down")

	_, err := f.svc.Resolve(ctx, inc.ID)
	require.ErrorIs(t, err, incidents.ErrInvalidState)

	_, err = f.svc.Acknowledge(ctx, inc.ID)
	require.NoError(t, err)
	f.clock.Advance(20 * time.Minute)

	resolved, err := f.svc.Resolve(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.False(t, resolved.ResolvedAt.Before(*resolved.AcknowledgedAt))
	assert.Equal(t, "Incident Resolved", f.notifier.last().title)

	_, err = f.svc.Resolve(ctx, inc.ID)
	assert.ErrorIs(t, err, incidents.ErrInvalidState)
	_, err = f.svc.Acknowledge(ctx, inc.ID)
	assert.ErrorIs(t, err, incidents.ErrInvalidState)
}

func TestEscalate_NoEscalationPath(t *testing.T) {
	f := newFixture(t)

	inc := f.trigger(t, "payments", "DB down")

	_, err := f.svc.Escalate(context.Background(), inc.ID)
	assert.ErrorIs(t, err, incidents.ErrNoEscalationPath)
	assert.ErrorIs(t, err, incidents.ErrInvalidState)

	stored, err := f.svc.Get(context.Background(), inc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusTriggered, stored.Status)
}

func TestEscalate_UsesLowestLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.schedules.CreateSchedule(ctx, oncall.ScheduleInput{
		ResponderID: "alice", ServiceName: "payments", StartTime: t0, EndTime: t0.Add(time.Hour),
	})
	require.NoError(t, err)
	f.addLevel(t, "payments", 2, "#managers")
	f.addLevel(t, "payments", 1, "#payments-oncall")

	inc := f.trigger(t, "payments", "DB down")
	f.clock.Advance(time.Minute)

	res, err := f.svc.Escalate(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Level.Level)
	assert.Equal(t, "#payments-oncall", res.Level.NotificationChannel)
	assert.Equal(t, domain.IncidentStatusEscalated, res.Incident.Status)
	require.NotNil(t, res.Incident.EscalatedAt)
	assert.Equal(t, t0.Add(time.Minute), *res.Incident.EscalatedAt)
	require.NotNil(t, res.Incident.AssignedTo)
	assert.Equal(t, "alice", *res.Incident.AssignedTo)

	last := f.notifier.last()
	assert.Equal(t, "Incident Escalated", last.title)
	assert.Equal(t, domain.SeverityError, last.severity)
	assert.Contains(t, last.message, "Level 1")
	assert.Contains(t, last.message, "#payments-oncall")
}

func TestEscalate_AcknowledgedAlwaysFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addLevel(t, "payments", 1, "admin")

	inc := f.trigger(t, "payments", "DB down")
	_, err := f.svc.Acknowledge(ctx, inc.ID)
	require.NoError(t, err)

	_, err = f.svc.Escalate(ctx, inc.ID)
	assert.ErrorIs(t, err, incidents.ErrInvalidState)
	assert.NotErrorIs(t, err, incidents.ErrNoEscalationPath)
}

func TestEscalate_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Escalate(context.Background(), "missing")
	assert.ErrorIs(t, err, incidents.ErrIncidentNotFound)
}

func TestSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addLevel(t, "payments", 1, "admin")

	old := f.trigger(t, "payments", "old alert")
	f.clock.Advance(540 * time.Second)
	fresh := f.trigger(t, "payments", "fresh alert")
	f.clock.Advance(60 * time.Second)

	res, err := f.svc.Sweep(ctx, 300*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Escalated)
	assert.Equal(t, 0, res.Failed)

	got, err := f.svc.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusEscalated, got.Status)

	got, err = f.svc.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusTriggered, got.Status)

	res, err = f.svc.Sweep(ctx, 300*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Escalated)
	assert.Equal(t, 0, res.Failed)
}

func TestSweep_DefaultTimeout(t *testing.T) {
	f := newFixture(t)
	f.addLevel(t, "payments", 1, "admin")

	f.trigger(t, "payments", "DB down")
	f.clock.Advance(299 * time.Second)

	res, err := f.svc.Sweep(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Escalated)

	f.clock.Advance(2 * time.Second)
	res, err = f.svc.Sweep(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Escalated)
}

func TestSweep_StrictCutoff(t *testing.T) {
	f := newFixture(t)
	f.addLevel(t, "payments", 1, "admin")

	f.trigger(t, "payments", "DB down")
	f.clock.Advance(300 * time.Second)

	res, err := f.svc.Sweep(context.Background(), 300*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Escalated)
}

func TestSweep_ContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addLevel(t, "payments", 1, "admin")

	noPath := f.trigger(t, "search", "index lag")
	f.clock.Advance(time.Second)
	ok := f.trigger(t, "payments", "DB down")
	f.clock.Advance(10 * time.Minute)

	res, err := f.svc.Sweep(ctx, 300*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Escalated)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, f.notifier.titles(), "Escalation Failed")

	got, err := f.svc.Get(ctx, noPath.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusTriggered, got.Status)

	got, err = f.svc.Get(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusEscalated, got.Status)
}

func TestConcurrentAcknowledge_ExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inc := f.trigger(t, "payments", "DB down")

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		invalid   int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Acknowledge(ctx, inc.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, incidents.ErrInvalidState):
				invalid++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, invalid)
}

func TestConcurrentSweepAndEscalate_NoDoubleEscalation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addLevel(t, "payments", 1, "admin")

	inc := f.trigger(t, "payments", "DB down")
	f.clock.Advance(10 * time.Minute)

	var (
		wg        sync.WaitGroup
		manualErr error
		sweep     *incidents.SweepResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, manualErr = f.svc.Escalate(ctx, inc.ID)
	}()
	go func() {
		defer wg.Done()
		sweep, _ = f.svc.Sweep(ctx, 300*time.Second)
	}()
	wg.Wait()

	require.NotNil(t, sweep)
	manualWon := manualErr == nil
	if manualWon {
		assert.Equal(t, 0, sweep.Escalated)
	} else {
		assert.ErrorIs(t, manualErr, incidents.ErrInvalidState)
		assert.Equal(t, 1, sweep.Escalated)
	}
}
