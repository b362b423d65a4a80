// Package sqlite provides SQLite implementation of incidents repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/incidents"
	sqlitedb "github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/sqlite"
)

const incidentColumns = `id, title, description, service_name, status, assigned_to, deduplication_key,
	created_at, acknowledged_at, resolved_at, escalated_at`

// Repository implements incidents.Repository using SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new incident.
func (r *Repository) Create(ctx context.Context, inc *domain.Incident) error {
	query := `INSERT INTO incidents (` + incidentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		inc.ID,
		inc.Title,
		inc.Description,
		inc.ServiceName,
		string(inc.Status),
		sqlitedb.NullString(inc.AssignedTo),
		inc.DeduplicationKey,
		sqlitedb.Nanos(inc.CreatedAt),
		sqlitedb.NullNanos(inc.AcknowledgedAt),
		sqlitedb.NullNanos(inc.ResolvedAt),
		sqlitedb.NullNanos(inc.EscalatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

// GetByID retrieves an incident by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = ?`
	inc, err := scanIncident(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return inc, nil
}

// List retrieves incidents with optional filters, newest first.
func (r *Repository) List(ctx context.Context, filter incidents.ListFilter) ([]domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE 1=1`
	var args []interface{}

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}
	if filter.ServiceName != "" {
		query += " AND service_name = ?"
		args = append(args, filter.ServiceName)
	}
	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	return r.query(ctx, "list incidents", query, args...)
}

// Transition updates status and the matching timestamp only if the
// current status equals from.
func (r *Repository) Transition(ctx context.Context, id string, from, to domain.IncidentStatus, at time.Time) (*domain.Incident, error) {
	column, err := timestampColumn(to)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE incidents
		SET status = ?, %s = ?
		WHERE id = ? AND status = ?
		RETURNING `+incidentColumns, column)

	inc, err := scanIncident(r.db.QueryRowContext(ctx, query, string(to), sqlitedb.Nanos(at), id, string(from)))
	if err == nil {
		return inc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
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
	query := `UPDATE incidents SET assigned_to = ? WHERE id = ? RETURNING ` + incidentColumns
	inc, err := scanIncident(r.db.QueryRowContext(ctx, query, responderID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("assign responder: %w", err)
	}
	return inc, nil
}

// FindDuplicateTriggered returns the newest TRIGGERED incident with the same
// service and title created at or after since.
func (r *Repository) FindDuplicateTriggered(ctx context.Context, serviceName, title string, since time.Time) (*domain.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE deduplication_key = ?
		  AND service_name = ?
		  AND title = ?
		  AND status = ?
		  AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	inc, err := scanIncident(r.db.QueryRowContext(ctx, query,
		domain.DeduplicationKey(serviceName, title),
		serviceName,
		title,
		string(domain.IncidentStatusTriggered),
		sqlitedb.Nanos(since),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
		WHERE status = ? AND created_at < ?
		ORDER BY created_at, id
	`
	return r.query(ctx, "find stale incidents", query, string(domain.IncidentStatusTriggered), sqlitedb.Nanos(cutoff))
}

// ListResolved returns RESOLVED incidents matching filter.
func (r *Repository) ListResolved(ctx context.Context, filter incidents.StatsFilter) ([]domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE status = ?`
	args := []interface{}{string(domain.IncidentStatusResolved)}

	if filter.ServiceName != "" {
		query += " AND service_name = ?"
		args = append(args, filter.ServiceName)
	}
	if filter.From != nil {
		query += " AND created_at >= ?"
		args = append(args, sqlitedb.Nanos(*filter.From))
	}
	if filter.To != nil {
		query += " AND created_at <= ?"
		args = append(args, sqlitedb.Nanos(*filter.To))
	}
	query += " ORDER BY created_at DESC"

	return r.query(ctx, "list resolved incidents", query, args...)
}

func (r *Repository) query(ctx context.Context, op, query string, args ...interface{}) ([]domain.Incident, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanIncident(row scanner) (*domain.Incident, error) {
	var (
		inc         domain.Incident
		status      string
		assignedTo  sql.NullString
		createdAt   int64
		ackAt       sql.NullInt64
		resolvedAt  sql.NullInt64
		escalatedAt sql.NullInt64
	)
	if err := row.Scan(
		&inc.ID,
		&inc.Title,
		&inc.Description,
		&inc.ServiceName,
		&status,
		&assignedTo,
		&inc.DeduplicationKey,
		&createdAt,
		&ackAt,
		&resolvedAt,
		&escalatedAt,
	); err != nil {
		return nil, err
	}
	inc.Status = domain.IncidentStatus(status)
	inc.AssignedTo = sqlitedb.StringPtr(assignedTo)
	inc.CreatedAt = sqlitedb.FromNanos(createdAt)
	inc.AcknowledgedAt = sqlitedb.TimePtr(ackAt)
	inc.ResolvedAt = sqlitedb.TimePtr(resolvedAt)
	inc.EscalatedAt = sqlitedb.TimePtr(escalatedAt)
	return &inc, nil
}
