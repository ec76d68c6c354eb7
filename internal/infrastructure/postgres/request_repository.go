package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/repository"
)

var _ repository.RequestRepository = (*RequestRepo)(nil)

// RequestRepo implementación sobre PostgreSQL (usable con pool o tx).
type RequestRepo struct {
	q Querier
}

// NewRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRequestRepository(q Querier) *RequestRepo {
	return &RequestRepo{q: q}
}

const requestColumns = `
	r.id, r.company_id, r.request_number, r.title, r.description, r.type, r.status, r.priority,
	r.client_id, r.product_id, r.estimated_hours, r.actual_hours, r.created_by, r.created_at, r.updated_at,
	COALESCE((SELECT array_agg(a.user_id ORDER BY a.user_id) FROM request_assignees a WHERE a.request_id = r.id), '{}')`

func scanRequest(row pgx.Row) (*entity.Request, error) {
	var req entity.Request
	err := row.Scan(
		&req.ID, &req.CompanyID, &req.RequestNumber, &req.Title, &req.Description, &req.Type, &req.Status, &req.Priority,
		&req.ClientID, &req.ProductID, &req.EstimatedHours, &req.ActualHours, &req.CreatedBy, &req.CreatedAt, &req.UpdatedAt,
		&req.AssignedUsers,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserta la solicitud tomando el número de la secuencia (REQ-000001).
func (r *RequestRepo) Create(ctx context.Context, req *entity.Request) error {
	query := `
		INSERT INTO requests (id, company_id, request_number, title, description, type, status, priority,
			client_id, product_id, estimated_hours, actual_hours, created_by, created_at, updated_at)
		VALUES ($1, $2, 'REQ-' || lpad(nextval('request_number_seq')::text, 6, '0'), $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14)
		RETURNING request_number`
	err := r.q.QueryRow(ctx, query,
		req.ID, req.CompanyID, req.Title, req.Description, req.Type, req.Status, req.Priority,
		req.ClientID, req.ProductID, req.EstimatedHours, req.ActualHours, req.CreatedBy, req.CreatedAt, req.UpdatedAt,
	).Scan(&req.RequestNumber)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: cliente %s", domain.ErrNotFound, req.ClientID)
		}
		return wrap("create request", err)
	}
	return nil
}

// GetByID obtiene una solicitud de la company con sus asignados.
func (r *RequestRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Request, error) {
	return r.get(ctx, companyID, id, "")
}

// GetForUpdate igual que GetByID bloqueando la fila hasta el fin de la transacción.
func (r *RequestRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Request, error) {
	return r.get(ctx, companyID, id, " FOR UPDATE OF r")
}

func (r *RequestRepo) get(ctx context.Context, companyID, id, lock string) (*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests r WHERE r.company_id = $1 AND r.id = $2` + lock
	req, err := scanRequest(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get request", err)
	}
	return req, nil
}

// Update actualiza los campos editables. Asignados y horas reales tienen su propia operación.
func (r *RequestRepo) Update(ctx context.Context, req *entity.Request) error {
	query := `
		UPDATE requests SET title = $3, description = $4, status = $5, priority = $6,
			estimated_hours = $7, product_id = $8, updated_at = $9
		WHERE company_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, query,
		req.CompanyID, req.ID, req.Title, req.Description, req.Status, req.Priority,
		req.EstimatedHours, req.ProductID, req.UpdatedAt,
	)
	if err != nil {
		return wrap("update request", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, req.ID)
	}
	return nil
}

// ReplaceAssignees reemplaza el conjunto completo de asignados.
func (r *RequestRepo) ReplaceAssignees(ctx context.Context, requestID string, userIDs []string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM request_assignees WHERE request_id = $1`, requestID); err != nil {
		return wrap("clear assignees", err)
	}
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO request_assignees (request_id, user_id) SELECT $1, unnest($2::text[])`,
		requestID, userIDs)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: usuario asignado inexistente", domain.ErrValidation)
		}
		return wrap("insert assignees", err)
	}
	return nil
}

// Delete borra la solicitud; actividades, asignados y registros de tiempo caen en cascada.
func (r *RequestRepo) Delete(ctx context.Context, companyID, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM requests WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return wrap("delete request", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, id)
	}
	return nil
}

// List lista con filtros opcionales, más recientes primero.
func (r *RequestRepo) List(ctx context.Context, f repository.RequestFilter) ([]*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests r WHERE r.company_id = $1`
	args := []any{f.CompanyID}
	pos := 2
	if f.Status != "" {
		query += fmt.Sprintf(" AND r.status = $%d", pos)
		args = append(args, f.Status)
		pos++
	}
	if f.Priority != "" {
		query += fmt.Sprintf(" AND r.priority = $%d", pos)
		args = append(args, f.Priority)
		pos++
	}
	if f.ClientID != "" {
		query += fmt.Sprintf(" AND r.client_id = $%d", pos)
		args = append(args, f.ClientID)
		pos++
	}
	if f.OnlyUserID != "" {
		query += fmt.Sprintf(` AND (r.created_by = $%d OR EXISTS (
			SELECT 1 FROM request_assignees a WHERE a.request_id = r.id AND a.user_id = $%d))`, pos, pos)
		args = append(args, f.OnlyUserID)
		pos++
	}
	if f.Search != "" {
		query += fmt.Sprintf(" AND (r.title ILIKE $%d OR r.request_number ILIKE $%d)", pos, pos)
		args = append(args, "%"+f.Search+"%")
		pos++
	}
	query += fmt.Sprintf(" ORDER BY r.created_at DESC, r.id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list requests", err)
	}
	defer rows.Close()
	var list []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		list = append(list, req)
	}
	return list, wrap("list requests", rows.Err())
}

// AddActualHours suma delta a actual_hours sin bajar de cero.
func (r *RequestRepo) AddActualHours(ctx context.Context, requestID string, delta decimal.Decimal) error {
	_, err := r.q.Exec(ctx,
		`UPDATE requests SET actual_hours = GREATEST(actual_hours + $2, 0) WHERE id = $1`,
		requestID, delta)
	return wrap("add actual hours", err)
}

// CountByClient número de solicitudes de un cliente.
func (r *RequestRepo) CountByClient(ctx context.Context, companyID, clientID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM requests WHERE company_id = $1 AND client_id = $2`,
		companyID, clientID).Scan(&n)
	if err != nil {
		return 0, wrap("count requests by client", err)
	}
	return n, nil
}

// ── Actividad ────────────────────────────────────────────────────────────────

var _ repository.ActivityRepository = (*ActivityRepo)(nil)

// ActivityRepo historial de solicitudes.
type ActivityRepo struct {
	q Querier
}

// NewActivityRepository construye el adaptador. Pasar pool o tx (Querier).
func NewActivityRepository(q Querier) *ActivityRepo {
	return &ActivityRepo{q: q}
}

// Append inserta con seq = máximo + 1. La fila de la solicitud debe estar bloqueada
// (FOR UPDATE) para que dos transacciones no calculen el mismo seq.
func (r *ActivityRepo) Append(ctx context.Context, a *entity.Activity) error {
	query := `
		INSERT INTO request_activities (id, request_id, seq, activity_type, description, actor_id, metadata, created_at)
		VALUES ($1, $2, (SELECT COALESCE(MAX(seq), 0) + 1 FROM request_activities WHERE request_id = $2), $3, $4, $5, $6, $7)
		RETURNING seq`
	var meta any
	if len(a.Metadata) > 0 {
		meta = []byte(a.Metadata)
	}
	err := r.q.QueryRow(ctx, query,
		a.ID, a.RequestID, a.ActivityType, a.Description, a.ActorID, meta, a.CreatedAt,
	).Scan(&a.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: seq de actividad duplicado", domain.ErrConflict)
		}
		return wrap("append activity", err)
	}
	return nil
}

// ListByRequest historial ordenado por seq.
func (r *ActivityRepo) ListByRequest(ctx context.Context, requestID string) ([]*entity.Activity, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, request_id, seq, activity_type, description, actor_id, metadata, created_at
		FROM request_activities WHERE request_id = $1 ORDER BY seq`, requestID)
	if err != nil {
		return nil, wrap("list activities", err)
	}
	defer rows.Close()
	var list []*entity.Activity
	for rows.Next() {
		var a entity.Activity
		var meta []byte
		if err := rows.Scan(&a.ID, &a.RequestID, &a.Seq, &a.ActivityType, &a.Description, &a.ActorID, &meta, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Metadata = meta
		list = append(list, &a)
	}
	return list, wrap("list activities", rows.Err())
}
