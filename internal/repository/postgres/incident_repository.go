package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"PulseOpsPlatform/internal/domain"
	"PulseOpsPlatform/internal/repository"
	"PulseOpsPlatform/pkg/errors"
)

// IncidentRepository реализация репозитория инцидентов в PostgreSQL
type IncidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository создает новый экземпляр IncidentRepository
func NewIncidentRepository(pool *pgxpool.Pool) repository.IncidentRepository {
	return &IncidentRepository{
		pool: pool,
	}
}

const incidentColumns = `id, title, description, severity, status, source, alert_name, created_at, updated_at, resolved_at`

// InitSchema создает таблицу инцидентов, если она не существует
func (r *IncidentRepository) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS incidents (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			severity VARCHAR(16) NOT NULL DEFAULT 'medium',
			status VARCHAR(16) NOT NULL DEFAULT 'open',
			source VARCHAR(64) NOT NULL DEFAULT 'manual',
			alert_name VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ,
			resolved_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_incidents_status ON incidents (status);
		CREATE INDEX IF NOT EXISTS idx_incidents_severity ON incidents (severity);
		CREATE INDEX IF NOT EXISTS idx_incidents_created_at ON incidents (created_at DESC);
	`

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to initialize incidents schema")
	}

	return nil
}

// Create сохраняет новый инцидент и присваивает ему ID
func (r *IncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (title, description, severity, status, source, alert_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		incident.Severity,
		incident.Status,
		incident.Source,
		incident.AlertName,
		incident.CreatedAt,
	).Scan(&incident.ID)

	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to create incident").
			WithDetails(fmt.Sprintf("title: %s, source: %s", incident.Title, incident.Source))
	}

	return nil
}

// GetByID возвращает инцидент по ID
func (r *IncidentRepository) GetByID(ctx context.Context, id int64) (*domain.Incident, error) {
	query := fmt.Sprintf(`SELECT %s FROM incidents WHERE id = $1`, incidentColumns)

	incident, err := scanIncident(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.New(errors.ErrNotFound, "incident not found").
				WithDetails(fmt.Sprintf("incident_id: %d", id))
		}
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to get incident").
			WithDetails(fmt.Sprintf("incident_id: %d", id))
	}

	return incident, nil
}

// List возвращает инциденты, подходящие под фильтр
func (r *IncidentRepository) List(ctx context.Context, filter *domain.IncidentFilter) ([]*domain.Incident, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Severity != nil {
		args = append(args, *filter.Severity)
		conditions = append(conditions, fmt.Sprintf("severity = $%d", len(args)))
	}
	if filter.Source != nil {
		args = append(args, *filter.Source)
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM incidents`, incidentColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to list incidents")
	}
	defer rows.Close()

	var incidents []*domain.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "failed to scan incident")
		}
		incidents = append(incidents, incident)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to iterate incidents")
	}

	return incidents, nil
}

// Update сохраняет измененный инцидент
func (r *IncidentRepository) Update(ctx context.Context, incident *domain.Incident) error {
	query := `
		UPDATE incidents
		SET title = $2, description = $3, severity = $4, status = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		incident.ID,
		incident.Title,
		incident.Description,
		incident.Severity,
		incident.Status,
		incident.UpdatedAt,
	)

	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to update incident").
			WithDetails(fmt.Sprintf("incident_id: %d", incident.ID))
	}

	if result.RowsAffected() == 0 {
		return errors.New(errors.ErrNotFound, "incident not found").
			WithDetails(fmt.Sprintf("incident_id: %d", incident.ID))
	}

	return nil
}

// Resolve атомарно переводит инцидент в статус resolved.
// Условие status <> 'resolved' гарантирует, что конкурентные запросы
// не разрешат один инцидент дважды.
func (r *IncidentRepository) Resolve(ctx context.Context, incident *domain.Incident) error {
	query := `
		UPDATE incidents
		SET description = $2, status = $3, updated_at = $4, resolved_at = $5
		WHERE id = $1 AND status <> 'resolved'
	`

	result, err := r.pool.Exec(ctx, query,
		incident.ID,
		incident.Description,
		incident.Status,
		incident.UpdatedAt,
		incident.ResolvedAt,
	)

	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to resolve incident").
			WithDetails(fmt.Sprintf("incident_id: %d", incident.ID))
	}

	if result.RowsAffected() == 0 {
		// Строка либо отсутствует, либо уже разрешена
		var exists bool
		checkQuery := `SELECT EXISTS (SELECT 1 FROM incidents WHERE id = $1)`
		if checkErr := r.pool.QueryRow(ctx, checkQuery, incident.ID).Scan(&exists); checkErr != nil {
			return errors.Wrap(checkErr, errors.ErrInternal, "failed to resolve incident").
				WithDetails(fmt.Sprintf("incident_id: %d", incident.ID))
		}
		if !exists {
			return errors.New(errors.ErrNotFound, "incident not found").
				WithDetails(fmt.Sprintf("incident_id: %d", incident.ID))
		}
		return errors.New(errors.ErrConflict, fmt.Sprintf("incident %d is already resolved", incident.ID))
	}

	return nil
}

// Delete удаляет инцидент
func (r *IncidentRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM incidents WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to delete incident").
			WithDetails(fmt.Sprintf("incident_id: %d", id))
	}

	if result.RowsAffected() == 0 {
		return errors.New(errors.ErrNotFound, "incident not found").
			WithDetails(fmt.Sprintf("incident_id: %d", id))
	}

	return nil
}

// scanIncident читает одну строку в доменную модель
func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var incident domain.Incident
	var updatedAt, resolvedAt sql.NullTime

	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Severity,
		&incident.Status,
		&incident.Source,
		&incident.AlertName,
		&incident.CreatedAt,
		&updatedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if updatedAt.Valid {
		incident.UpdatedAt = &updatedAt.Time
	}
	if resolvedAt.Valid {
		incident.ResolvedAt = &resolvedAt.Time
	}

	return &incident, nil
}
