// Package sqlite provides SQLite implementation of oncall repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/oncall"
	sqlitedb "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/sqlite"
)

const scheduleColumns = `id, responder_id, service_name, start_time, end_time, is_override, created_at`

// Repository implements oncall.Repository using SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateSchedule creates a new on-call schedule.
func (r *Repository) CreateSchedule(ctx context.Context, s *domain.OnCallSchedule) error {
	query := `INSERT INTO oncall_schedules (` + scheduleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.ResponderID,
		s.ServiceName,
		sqlitedb.Nanos(s.StartTime),
		sqlitedb.Nanos(s.EndTime),
		s.IsOverride,
		sqlitedb.Nanos(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetSchedule retrieves a schedule by ID.
func (r *Repository) GetSchedule(ctx context.Context, id string) (*domain.OnCallSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM oncall_schedules WHERE id = ?`
	s, err := scanSchedule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oncall.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

// ListSchedules retrieves schedules with optional filters.
func (r *Repository) ListSchedules(ctx context.Context, filter oncall.ScheduleFilter) ([]domain.OnCallSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM oncall_schedules WHERE 1=1`
	var args []interface{}
	if filter.ServiceName != "" {
		query += " AND service_name = ?"
		args = append(args, filter.ServiceName)
	}
	if filter.ResponderID != "" {
		query += " AND responder_id = ?"
		args = append(args, filter.ResponderID)
	}
	query += " ORDER BY start_time, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return collectSchedules(rows)
}

// UpdateSchedule updates the mutable fields of a schedule.
func (r *Repository) UpdateSchedule(ctx context.Context, s *domain.OnCallSchedule) error {
	query := `
		UPDATE oncall_schedules
		SET responder_id = ?, service_name = ?, start_time = ?, end_time = ?, is_override = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		s.ResponderID,
		s.ServiceName,
		sqlitedb.Nanos(s.StartTime),
		sqlitedb.Nanos(s.EndTime),
		s.IsOverride,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return expectOneRow(result)
}

// DeleteSchedule deletes a schedule by ID.
func (r *Repository) DeleteSchedule(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM oncall_schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return expectOneRow(result)
}

// FindActive returns schedules of the service covering at, highest priority first.
func (r *Repository) FindActive(ctx context.Context, serviceName string, at time.Time) ([]domain.OnCallSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM oncall_schedules
		WHERE service_name = ? AND start_time <= ? AND end_time >= ?
		ORDER BY is_override DESC, created_at ASC, id ASC
	`
	ts := sqlitedb.Nanos(at)
	rows, err := r.db.QueryContext(ctx, query, serviceName, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("find active schedules: %w", err)
	}
	return collectSchedules(rows)
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return oncall.ErrScheduleNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row scanner) (*domain.OnCallSchedule, error) {
	var (
		s                     domain.OnCallSchedule
		start, end, createdAt int64
	)
	if err := row.Scan(
		&s.ID,
		&s.ResponderID,
		&s.ServiceName,
		&start,
		&end,
		&s.IsOverride,
		&createdAt,
	); err != nil {
		return nil, err
	}
	s.StartTime = sqlitedb.FromNanos(start)
	s.EndTime = sqlitedb.FromNanos(end)
	s.CreatedAt = sqlitedb.FromNanos(createdAt)
	return &s, nil
}

func collectSchedules(rows *sql.Rows) ([]domain.OnCallSchedule, error) {
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
