package repository

import (
	"context"

	"github.com/iptegra/nexus-api/internal/domain/entity"
)

// ClientFilter filtros del listado de clientes. OwnerID restringe a los propios.
type ClientFilter struct {
	CompanyID string
	Tier      entity.ClientTier
	Status    entity.ClientStatus
	OwnerID   string
	Search    string
	Limit     int
	Offset    int
}

// ClientRepository puerto de persistencia para Client.
type ClientRepository interface {
	Create(ctx context.Context, c *entity.Client) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Client, error)
	// GetForUpdate igual que GetByID bloqueando la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Client, error)
	Update(ctx context.Context, c *entity.Client) error
	Delete(ctx context.Context, companyID, id string) error
	List(ctx context.Context, f ClientFilter) ([]*entity.Client, error)
}
