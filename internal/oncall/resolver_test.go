package oncall_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func addSchedule(t *testing.T, repo *memory.Repository, s domain.OnCallSchedule) {
	t.Helper()
	require.NoError(t, repo.CreateSchedule(context.Background(), &s))
}

func TestResolver_NoSchedule(t *testing.T) {
	resolver := oncall.NewResolver(memory.NewRepository())

	responder, ok, err := resolver.Resolve(context.Background(), "payments", base)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, responder)
}

func TestResolver_InclusiveBounds(t *testing.T) {
	repo := memory.NewRepository()
	addSchedule(t, repo, domain.OnCallSchedule{
		ID: "s1", ResponderID: "alice", ServiceName: "payments",
		StartTime: base, EndTime: base.Add(8 * time.Hour), CreatedAt: base,
	})
	resolver := oncall.NewResolver(repo)
	ctx := context.Background()

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before start", base.Add(-time.Nanosecond), false},
		{"at start", base, true},
		{"inside", base.Add(time.Hour), true},
		{"at end", base.Add(8 * time.Hour), true},
		{"after end", base.Add(8*time.Hour + time.Nanosecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responder, ok, err := resolver.Resolve(ctx, "payments", tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, "alice", responder)
			}
		})
	}
}

func TestResolver_OtherServiceIgnored(t *testing.T) {
	repo := memory.NewRepository()
	addSchedule(t, repo, domain.OnCallSchedule{
		ID: "s1", ResponderID: "alice", ServiceName: "search",
		StartTime: base, EndTime: base.Add(time.Hour), CreatedAt: base,
	})

	_, ok, err := oncall.NewResolver(repo).Resolve(context.Background(), "payments", base)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolver_OverrideWins(t *testing.T) {
	repo := memory.NewRepository()
	addSchedule(t, repo, domain.OnCallSchedule{
		ID: "regular", ResponderID: "alice", ServiceName: "payments",
		StartTime: base, EndTime: base.Add(24 * time.Hour), CreatedAt: base,
	})
	addSchedule(t, repo, domain.OnCallSchedule{
		ID: "override", ResponderID: "bob", ServiceName: "payments",
		StartTime: base.Add(2 * time.Hour), EndTime: base.Add(4 * time.Hour),
		IsOverride: true, CreatedAt: base.Add(time.Minute),
	})
	resolver := oncall.NewResolver(repo)
	ctx := context.Background()

	responder, ok, err := resolver.Resolve(ctx, "payments", base.Add(3*time.Hour))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bob", responder)

	responder, _, err = resolver.Resolve(ctx, "payments", base.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "alice", responder)
}

func TestResolver_EarliestCreatedWins(t *testing.T) {
	repo := memory.NewRepository()
	addSchedule(t, repo, domain.OnCallSchedule{
		ID: "b", ResponderID: "late", ServiceName: "payments",
		StartTime: base, EndTime: base.Add(time.Hour), CreatedAt: base.Add(time.Second),
	})
	addSchedule(t, repo, domain.OnCallSchedule{
		ID: "a", ResponderID: "early", ServiceName: "payments",
		StartTime: base, EndTime: base.Add(time.Hour), CreatedAt: base,
	})

	responder, ok, err := oncall.NewResolver(repo).Resolve(context.Background(), "payments", base)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "early", responder)
}

func TestSortByPriority_IDBreaksTies(t *testing.T) {
	schedules := []domain.OnCallSchedule{
		{ID: "c", CreatedAt: base},
		{ID: "a", CreatedAt: base},
		{ID: "z", CreatedAt: base, IsOverride: true},
		{ID: "b", CreatedAt: base},
	}

	oncall.SortByPriority(schedules)

	ids := make([]string, 0, len(schedules))
	for _, s := range schedules {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"z", "a", "b", "c"}, ids)
}

type failingFinder struct{}

func (failingFinder) FindActive(context.Context, string, time.Time) ([]domain.OnCallSchedule, error) {
	return nil, errors.New("connection refused")
}

func TestResolver_PropagatesStorageError(t *testing.T) {
	_, _, err := oncall.NewResolver(failingFinder{}).Resolve(context.Background(), "payments", base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
