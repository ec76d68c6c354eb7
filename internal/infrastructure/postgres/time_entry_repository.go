package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/repository"
)

var _ repository.TimeEntryRepository = (*TimeEntryRepo)(nil)

// TimeEntryRepo implementación sobre PostgreSQL (usable con pool o tx).
type TimeEntryRepo struct {
	q Querier
}

// NewTimeEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTimeEntryRepository(q Querier) *TimeEntryRepo {
	return &TimeEntryRepo{q: q}
}

const timeEntryColumns = `id, company_id, request_id, user_id, status, started_at, segment_started_at,
	ended_at, duration, description, created_at, updated_at`

func scanTimeEntry(row pgx.Row) (*entity.TimeEntry, error) {
	var e entity.TimeEntry
	err := row.Scan(&e.ID, &e.CompanyID, &e.RequestID, &e.UserID, &e.Status, &e.StartedAt, &e.SegmentStartedAt,
		&e.EndedAt, &e.Duration, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserta la entrada. El índice time_entries_one_open impide una segunda abierta.
func (r *TimeEntryRepo) Create(ctx context.Context, e *entity.TimeEntry) error {
	query := `INSERT INTO time_entries (` + timeEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.CompanyID, e.RequestID, e.UserID, e.Status, e.StartedAt, e.SegmentStartedAt,
		e.EndedAt, e.Duration, e.Description, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya hay un temporizador abierto para esta solicitud", domain.ErrPreconditionFailed)
		}
		return wrap("create time entry", err)
	}
	return nil
}

// GetByID entrada de la company o nil.
func (r *TimeEntryRepo) GetByID(ctx context.Context, companyID, id string) (*entity.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE company_id = $1 AND id = $2`
	e, err := scanTimeEntry(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get time entry", err)
	}
	return e, nil
}

// GetOpen entrada ACTIVE o PAUSED de (solicitud, usuario).
func (r *TimeEntryRepo) GetOpen(ctx context.Context, requestID, userID string) (*entity.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries
		WHERE request_id = $1 AND user_id = $2 AND status IN ('ACTIVE', 'PAUSED')`
	e, err := scanTimeEntry(r.q.QueryRow(ctx, query, requestID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get open time entry", err)
	}
	return e, nil
}

// Update persiste estado, tramo, fin, duración y descripción.
func (r *TimeEntryRepo) Update(ctx context.Context, e *entity.TimeEntry) error {
	query := `
		UPDATE time_entries SET status = $2, segment_started_at = $3, ended_at = $4,
			duration = $5, description = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		e.ID, e.Status, e.SegmentStartedAt, e.EndedAt, e.Duration, e.Description, e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya hay un temporizador abierto para esta solicitud", domain.ErrPreconditionFailed)
		}
		return wrap("update time entry", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: registro de tiempo %s", domain.ErrNotFound, e.ID)
	}
	return nil
}

// Delete elimina la entrada.
func (r *TimeEntryRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM time_entries WHERE id = $1`, id)
	if err != nil {
		return wrap("delete time entry", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: registro de tiempo %s", domain.ErrNotFound, id)
	}
	return nil
}

// ListByRequest entradas de la solicitud por fecha de inicio.
func (r *TimeEntryRepo) ListByRequest(ctx context.Context, requestID string) ([]*entity.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE request_id = $1 ORDER BY started_at, id`
	rows, err := r.q.Query(ctx, query, requestID)
	if err != nil {
		return nil, wrap("list time entries", err)
	}
	defer rows.Close()
	var list []*entity.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		list = append(list, e)
	}
	return list, wrap("list time entries", rows.Err())
}
