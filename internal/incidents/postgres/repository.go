// Package postgres provides PostgreSQL implementation of incidents repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/incidents"
	pgutil "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const incidentColumns = `id, title, description, service_name, status, assigned_to, deduplication_key,
	created_at, acknowledged_at, resolved_at, escalated_at`

// Repository implements incidents.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new incident.
func (r *Repository) Create(ctx context.Context, inc *domain.Incident) error {
	query := `
		INSERT INTO incidents (` + incidentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		inc.ID,
		inc.Title,
		inc.Description,
		inc.ServiceName,
		inc.Status,
		inc.AssignedTo,
		inc.DeduplicationKey,
		inc.CreatedAt,
		inc.AcknowledgedAt,
		inc.ResolvedAt,
		inc.EscalatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

// GetByID retrieves an incident by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	if !pgutil.ValidID(id) {
		return nil, incidents.ErrIncidentNotFound
	}
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`
	inc, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return inc, nil
}

// List retrieves incidents with optional filters, newest first.
func (r *Repository) List(ctx context.Context, filter incidents.ListFilter) ([]domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filter.Status)
		argNum++
	}
	if filter.ServiceName != "" {
		query += fmt.Sprintf(" AND service_name = $%d", argNum)
		args = append(args, filter.ServiceName)
		argNum++
	}

	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
		argNum++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	return r.query(ctx, "list incidents", query, args...)
}

// Transition updates status and the matching timestamp only if the
// current status equals from.
func (r *Repository) Transition(ctx context.Context, id string, from, to domain.IncidentStatus, at time.Time) (*domain.Incident, error) {
	if !pgutil.ValidID(id) {
		return nil, incidents.ErrIncidentNotFound
	}
	column, err := timestampColumn(to)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE incidents
		SET status = $3, %s = $4
		WHERE id = $1 AND status = $2
		RETURNING `+incidentColumns, column)

	inc, err := scanIncident(r.db.QueryRow(ctx, query, id, from, to, at))
	if err == nil {
		return inc, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transition incident: %w", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &incidents.StateError{ID: id, Current: current.Status, Expected: from}
}

// AssignResponder sets the assignee of an incident.
func (r *Repository) AssignResponder(ctx context.Context, id, responderID string) (*domain.Incident, error) {
	if !pgutil.ValidID(id) {
		return nil, incidents.ErrIncidentNotFound
	}
	query := `UPDATE incidents SET assigned_to = $2 WHERE id = $1 RETURNING ` + incidentColumns
	inc, err := scanIncident(r.db.QueryRow(ctx, query, id, responderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("assign responder: %w", err)
	}
	return inc, nil
}

// FindDuplicateTriggered returns the newest TRIGGERED incident with the same
// service and title created at or after since. The key narrows the index
// scan; the literal columns decide the match.
func (r *Repository) FindDuplicateTriggered(ctx context.Context, serviceName, title string, since time.Time) (*domain.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE deduplication_key = $1
		  AND service_name = $2
		  AND title = $3
		  AND status = $4
		  AND created_at >= $5
		ORDER BY created_at DESC
		LIMIT 1
	`
	inc, err := scanIncident(r.db.QueryRow(ctx, query,
		domain.DeduplicationKey(serviceName, title), serviceName, title, domain.IncidentStatusTriggered, since,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find duplicate incident: %w", err)
	}
	return inc, nil
}

// FindStaleTriggered returns TRIGGERED incidents created before cutoff, oldest first.
func (r *Repository) FindStaleTriggered(ctx context.Context, cutoff time.Time) ([]domain.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at, id
	`
	return r.query(ctx, "find stale incidents", query, domain.IncidentStatusTriggered, cutoff)
}

// ListResolved returns RESOLVED incidents matching filter.
func (r *Repository) ListResolved(ctx context.Context, filter incidents.StatsFilter) ([]domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE status = $1`
	args := []interface{}{domain.IncidentStatusResolved}
	argNum := 2

	if filter.ServiceName != "" {
		query += fmt.Sprintf(" AND service_name = $%d", argNum)
		args = append(args, filter.ServiceName)
		argNum++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argNum)
		args = append(args, *filter.From)
		argNum++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argNum)
		args = append(args, *filter.To)
	}
	query += " ORDER BY created_at DESC"

	return r.query(ctx, "list resolved incidents", query, args...)
}

func (r *Repository) query(ctx context.Context, op, query string, args ...interface{}) ([]domain.Incident, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	list := make([]domain.Incident, 0)
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		list = append(list, *inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

func timestampColumn(status domain.IncidentStatus) (string, error) {
	switch status {
	case domain.IncidentStatusAcknowledged:
		return "acknowledged_at", nil
	case domain.IncidentStatusResolved:
		return "resolved_at", nil
	case domain.IncidentStatusEscalated:
		return "escalated_at", nil
	}
	return "", fmt.Errorf("no transition into %s", status)
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var inc domain.Incident
	if err := row.Scan(
		&inc.ID,
		&inc.Title,
		&inc.Description,
		&inc.ServiceName,
		&inc.Status,
		&inc.AssignedTo,
		&inc.DeduplicationKey,
		&inc.CreatedAt,
		&inc.AcknowledgedAt,
		&inc.ResolvedAt,
		&inc.EscalatedAt,
	); err != nil {
		return nil, err
	}
	inc.CreatedAt = inc.CreatedAt.UTC()
	inc.AcknowledgedAt = utc(inc.AcknowledgedAt)
	inc.ResolvedAt = utc(inc.ResolvedAt)
	inc.EscalatedAt = utc(inc.EscalatedAt)
	return &inc, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
