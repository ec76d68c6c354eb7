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

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implementación del puerto ClientRepository sobre PostgreSQL.
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

const clientColumns = `id, company_id, name, tier, status, email, phone, owner_id, created_at, updated_at`

func scanClient(row pgx.Row) (*entity.Client, error) {
	var c entity.Client
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Tier, &c.Status, &c.Email, &c.Phone, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste un nuevo cliente.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	query := `INSERT INTO clients (` + clientColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.CompanyID, c.Name, c.Tier, c.Status, c.Email, c.Phone, c.OwnerID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return wrap("insert client", err)
	}
	return nil
}

// GetByID obtiene un cliente de la company o nil.
func (r *ClientRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Client, error) {
	return r.get(ctx, companyID, id, "")
}

// GetForUpdate igual que GetByID con FOR UPDATE. Usar dentro de una transacción.
func (r *ClientRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Client, error) {
	return r.get(ctx, companyID, id, " FOR UPDATE")
}

func (r *ClientRepo) get(ctx context.Context, companyID, id, lock string) (*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE company_id = $1 AND id = $2` + lock
	c, err := scanClient(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get client", err)
	}
	return c, nil
}

// Update actualiza los datos del cliente.
func (r *ClientRepo) Update(ctx context.Context, c *entity.Client) error {
	query := `
		UPDATE clients SET name = $3, tier = $4, status = $5, email = $6, phone = $7, owner_id = $8, updated_at = $9
		WHERE company_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, query,
		c.CompanyID, c.ID, c.Name, c.Tier, c.Status, c.Email, c.Phone, c.OwnerID, c.UpdatedAt)
	if err != nil {
		return wrap("update client", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cliente %s", domain.ErrNotFound, c.ID)
	}
	return nil
}

// Delete elimina un cliente. Con solicitudes asociadas la FK lo impide.
func (r *ClientRepo) Delete(ctx context.Context, companyID, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM clients WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: el cliente tiene solicitudes", domain.ErrPreconditionFailed)
		}
		return wrap("delete client", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cliente %s", domain.ErrNotFound, id)
	}
	return nil
}

// List lista clientes con filtros opcionales, por nombre.
func (r *ClientRepo) List(ctx context.Context, f repository.ClientFilter) ([]*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE company_id = $1`
	args := []any{f.CompanyID}
	pos := 2
	if f.Tier != "" {
		query += fmt.Sprintf(" AND tier = $%d", pos)
		args = append(args, f.Tier)
		pos++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, f.Status)
		pos++
	}
	if f.OwnerID != "" {
		query += fmt.Sprintf(" AND owner_id = $%d", pos)
		args = append(args, f.OwnerID)
		pos++
	}
	if f.Search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", pos, pos)
		args = append(args, "%"+f.Search+"%")
		pos++
	}
	query += fmt.Sprintf(" ORDER BY name, id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list clients", err)
	}
	defer rows.Close()
	var list []*entity.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		list = append(list, c)
	}
	return list, wrap("list clients", rows.Err())
}
