// Package postgres provides PostgreSQL implementation of oncall repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall"
	pgutil "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const scheduleColumns = `id, responder_id, service_name, start_time, end_time, is_override, created_at`

// Repository implements oncall.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSchedule creates a new on-call schedule.
func (r *Repository) CreateSchedule(ctx context.Context, s *domain.OnCallSchedule) error {
	query := `
		INSERT INTO oncall_schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.ResponderID, s.ServiceName, s.StartTime, s.EndTime, s.IsOverride, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetSchedule retrieves a schedule by ID.
func (r *Repository) GetSchedule(ctx context.Context, id string) (*domain.OnCallSchedule, error) {
	if !pgutil.ValidID(id) {
		return nil, oncall.ErrScheduleNotFound
	}
	query := `SELECT ` + scheduleColumns + ` FROM oncall_schedules WHERE id = $1`
	s, err := scanSchedule(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oncall.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

// ListSchedules retrieves schedules with optional filters.
func (r *Repository) ListSchedules(ctx context.Context, filter oncall.ScheduleFilter) ([]domain.OnCallSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM oncall_schedules WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.ServiceName != "" {
		query += fmt.Sprintf(" AND service_name = $%d", argNum)
		args = append(args, filter.ServiceName)
		argNum++
	}
	if filter.ResponderID != "" {
		query += fmt.Sprintf(" AND responder_id = $%d", argNum)
		args = append(args, filter.ResponderID)
	}
	query += " ORDER BY start_time, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return collectSchedules(rows)
}

// UpdateSchedule updates the mutable fields of a schedule.
func (r *Repository) UpdateSchedule(ctx context.Context, s *domain.OnCallSchedule) error {
	if !pgutil.ValidID(s.ID) {
		return oncall.ErrScheduleNotFound
	}
	query := `
		UPDATE oncall_schedules
		SET responder_id = $2, service_name = $3, start_time = $4, end_time = $5, is_override = $6
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, s.ID, s.ResponderID, s.ServiceName, s.StartTime, s.EndTime, s.IsOverride)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return oncall.ErrScheduleNotFound
	}
	return nil
}

// DeleteSchedule deletes a schedule by ID.
func (r *Repository) DeleteSchedule(ctx context.Context, id string) error {
	if !pgutil.ValidID(id) {
		return oncall.ErrScheduleNotFound
	}
	result, err := r.db.Exec(ctx, `DELETE FROM oncall_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return oncall.ErrScheduleNotFound
	}
	return nil
}

// FindActive returns schedules of the service covering at, highest priority first.
func (r *Repository) FindActive(ctx context.Context, serviceName string, at time.Time) ([]domain.OnCallSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM oncall_schedules
		WHERE service_name = $1 AND start_time <= $2 AND end_time >= $2
		ORDER BY is_override DESC, created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, serviceName, at)
	if err != nil {
		return nil, fmt.Errorf("find active schedules: %w", err)
	}
	return collectSchedules(rows)
}

func scanSchedule(row pgx.Row) (*domain.OnCallSchedule, error) {
	var s domain.OnCallSchedule
	if err := row.Scan(
		&s.ID,
		&s.ResponderID,
		&s.ServiceName,
		&s.StartTime,
		&s.EndTime,
		&s.IsOverride,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	s.StartTime = s.StartTime.UTC()
	s.EndTime = s.EndTime.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}

func collectSchedules(rows pgx.Rows) ([]domain.OnCallSchedule, error) {
	defer rows.Close()

	schedules := make([]domain.OnCallSchedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return schedules, nil
}
