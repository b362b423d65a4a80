// Package postgres provides PostgreSQL implementation of escalation repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/escalation"
	pgutil "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements escalation.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateLevel creates a new escalation level.
func (r *Repository) CreateLevel(ctx context.Context, level *domain.EscalationLevel) error {
	query := `
		INSERT INTO escalation_levels (id, service_name, level, notification_channel, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, level.ID, level.ServiceName, level.Level, level.NotificationChannel, level.CreatedAt)
	if err != nil {
		if pgutil.IsUniqueViolation(err) {
			return escalation.ErrLevelExists
		}
		return fmt.Errorf("insert escalation level: %w", err)
	}
	return nil
}

// GetLevel retrieves a level by ID.
func (r *Repository) GetLevel(ctx context.Context, id string) (*domain.EscalationLevel, error) {
	if !pgutil.ValidID(id) {
		return nil, escalation.ErrLevelNotFound
	}
	query := `
		SELECT id, service_name, level, notification_channel, created_at
		FROM escalation_levels
		WHERE id = $1
	`
	var l domain.EscalationLevel
	err := r.db.QueryRow(ctx, query, id).Scan(&l.ID, &l.ServiceName, &l.Level, &l.NotificationChannel, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, escalation.ErrLevelNotFound
		}
		return nil, fmt.Errorf("get escalation level: %w", err)
	}
	l.CreatedAt = l.CreatedAt.UTC()
	return &l, nil
}

// UpdateLevel updates an existing level.
func (r *Repository) UpdateLevel(ctx context.Context, level *domain.EscalationLevel) error {
	if !pgutil.ValidID(level.ID) {
		return escalation.ErrLevelNotFound
	}
	query := `
		UPDATE escalation_levels
		SET service_name = $2, level = $3, notification_channel = $4
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, level.ID, level.ServiceName, level.Level, level.NotificationChannel)
	if err != nil {
		if pgutil.IsUniqueViolation(err) {
			return escalation.ErrLevelExists
		}
		return fmt.Errorf("update escalation level: %w", err)
	}
	if result.RowsAffected() == 0 {
		return escalation.ErrLevelNotFound
	}
	return nil
}

// DeleteLevel deletes a level by ID.
func (r *Repository) DeleteLevel(ctx context.Context, id string) error {
	if !pgutil.ValidID(id) {
		return escalation.ErrLevelNotFound
	}
	result, err := r.db.Exec(ctx, `DELETE FROM escalation_levels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete escalation level: %w", err)
	}
	if result.RowsAffected() == 0 {
		return escalation.ErrLevelNotFound
	}
	return nil
}

// ListLevels returns levels ordered by service name and level.
func (r *Repository) ListLevels(ctx context.Context, serviceName string) ([]domain.EscalationLevel, error) {
	query := `
		SELECT id, service_name, level, notification_channel, created_at
		FROM escalation_levels
		WHERE ($1 = '' OR service_name = $1)
		ORDER BY service_name, level
	`
	rows, err := r.db.Query(ctx, query, serviceName)
	if err != nil {
		return nil, fmt.Errorf("list escalation levels: %w", err)
	}
	defer rows.Close()

	levels := make([]domain.EscalationLevel, 0)
	for rows.Next() {
		var l domain.EscalationLevel
		if err := rows.Scan(&l.ID, &l.ServiceName, &l.Level, &l.NotificationChannel, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan escalation level: %w", err)
		}
		l.CreatedAt = l.CreatedAt.UTC()
		levels = append(levels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate escalation levels: %w", err)
	}
	return levels, nil
}
