// Package sqlite provides SQLite implementation of escalation repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/escalation"
	sqlitedb "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/sqlite"
)

// Repository implements escalation.Repository using SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateLevel creates a new escalation level.
func (r *Repository) CreateLevel(ctx context.Context, level *domain.EscalationLevel) error {
	query := `
		INSERT INTO escalation_levels (id, service_name, level, notification_channel, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		level.ID, level.ServiceName, level.Level, level.NotificationChannel, sqlitedb.Nanos(level.CreatedAt),
	)
	if err != nil {
		if sqlitedb.IsUniqueViolation(err) {
			return escalation.ErrLevelExists
		}
		return fmt.Errorf("insert escalation level: %w", err)
	}
	return nil
}

// GetLevel retrieves a level by ID.
func (r *Repository) GetLevel(ctx context.Context, id string) (*domain.EscalationLevel, error) {
	query := `
		SELECT id, service_name, level, notification_channel, created_at
		FROM escalation_levels
		WHERE id = ?
	`
	l, err := scanLevel(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, escalation.ErrLevelNotFound
		}
		return nil, fmt.Errorf("get escalation level: %w", err)
	}
	return l, nil
}

// UpdateLevel updates an existing level.
func (r *Repository) UpdateLevel(ctx context.Context, level *domain.EscalationLevel) error {
	query := `
		UPDATE escalation_levels
		SET service_name = ?, level = ?, notification_channel = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query, level.ServiceName, level.Level, level.NotificationChannel, level.ID)
	if err != nil {
		if sqlitedb.IsUniqueViolation(err) {
			return escalation.ErrLevelExists
		}
		return fmt.Errorf("update escalation level: %w", err)
	}
	return expectOneRow(result)
}

// DeleteLevel deletes a level by ID.
func (r *Repository) DeleteLevel(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM escalation_levels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete escalation level: %w", err)
	}
	return expectOneRow(result)
}

// ListLevels returns levels ordered by service name and level.
func (r *Repository) ListLevels(ctx context.Context, serviceName string) ([]domain.EscalationLevel, error) {
	query := `
		SELECT id, service_name, level, notification_channel, created_at
		FROM escalation_levels
		WHERE (? = '' OR service_name = ?)
		ORDER BY service_name, level
	`
	rows, err := r.db.QueryContext(ctx, query, serviceName, serviceName)
	if err != nil {
		return nil, fmt.Errorf("list escalation levels: %w", err)
	}
	defer rows.Close()

	levels := make([]domain.EscalationLevel, 0)
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan escalation level: %w", err)
		}
		levels = append(levels, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate escalation levels: %w", err)
	}
	return levels, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return escalation.ErrLevelNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLevel(row scanner) (*domain.EscalationLevel, error) {
	var (
		l         domain.EscalationLevel
		createdAt int64
	)
	if err := row.Scan(&l.ID, &l.ServiceName, &l.Level, &l.NotificationChannel, &createdAt); err != nil {
		return nil, err
	}
	l.CreatedAt = sqlitedb.FromNanos(createdAt)
	return &l, nil
}
