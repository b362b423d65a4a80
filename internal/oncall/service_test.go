package oncall_test

import (
	"context"
	"testing"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall/memory"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*oncall.Service, *clock.Fake) {
	repo := memory.NewRepository()
	clk := clock.NewFake(base)
	return oncall.NewService(repo, oncall.NewResolver(repo), clk), clk
}

func TestService_CreateSchedule(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	schedule, err := svc.CreateSchedule(ctx, oncall.ScheduleInput{
		ResponderID: "alice",
		ServiceName: "payments",
		StartTime:   base,
		EndTime:     base.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, schedule.ID)
	assert.Equal(t, base, schedule.CreatedAt)

	got, err := svc.GetSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.ResponderID)
}

func TestService_CreateSchedule_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name  string
		input oncall.ScheduleInput
		err   error
	}{
		{
			name:  "start after end",
			input: oncall.ScheduleInput{ResponderID: "a", ServiceName: "s", StartTime: base.Add(time.Hour), EndTime: base},
			err:   oncall.ErrInvalidInterval,
		},
		{
			name:  "missing responder",
			input: oncall.ScheduleInput{ServiceName: "s", StartTime: base, EndTime: base},
			err:   oncall.ErrInvalidSchedule,
		},
		{
			name:  "missing service",
			input: oncall.ScheduleInput{ResponderID: "a", StartTime: base, EndTime: base},
			err:   oncall.ErrInvalidSchedule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSchedule(ctx, tt.input)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestService_ZeroLengthScheduleAllowed(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateSchedule(context.Background(), oncall.ScheduleInput{
		ResponderID: "alice", ServiceName: "payments", StartTime: base, EndTime: base,
	})
	assert.NoError(t, err)
}

func TestService_UpdateKeepsCreatedAt(t *testing.T) {
	svc, clk := newTestService()
	ctx := context.Background()

	schedule, err := svc.CreateSchedule(ctx, oncall.ScheduleInput{
		ResponderID: "alice", ServiceName: "payments", StartTime: base, EndTime: base.Add(time.Hour),
	})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	updated, err := svc.UpdateSchedule(ctx, schedule.ID, oncall.ScheduleInput{
		ResponderID: "bob", ServiceName: "payments", StartTime: base, EndTime: base.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", updated.ResponderID)
	assert.Equal(t, base, updated.CreatedAt)
}

func TestService_DeleteSchedule(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteSchedule(ctx, "missing"), oncall.ErrScheduleNotFound)

	schedule, err := svc.CreateSchedule(ctx, oncall.ScheduleInput{
		ResponderID: "alice", ServiceName: "payments", StartTime: base, EndTime: base.Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSchedule(ctx, schedule.ID))

	_, err = svc.GetSchedule(ctx, schedule.ID)
	assert.ErrorIs(t, err, oncall.ErrScheduleNotFound)
}

func TestService_CurrentOnCall(t *testing.T) {
	svc, clk := newTestService()
	ctx := context.Background()

	_, err := svc.CurrentOnCall(ctx, "payments")
	assert.ErrorIs(t, err, oncall.ErrNoOnCall)

	_, err = svc.CreateSchedule(ctx, oncall.ScheduleInput{
		ResponderID: "alice", ServiceName: "payments", StartTime: base, EndTime: base.Add(time.Hour),
	})
	require.NoError(t, err)

	current, err := svc.CurrentOnCall(ctx, "payments")
	require.NoError(t, err)
	assert.Equal(t, "alice", current.ResponderID)

	clk.Advance(2 * time.Hour)
	_, err = svc.CurrentOnCall(ctx, "payments")
	assert.ErrorIs(t, err, oncall.ErrNoOnCall)
}
