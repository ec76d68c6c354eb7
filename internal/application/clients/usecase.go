package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/internal/domain/repository"
	"github.com/iptegra/nexus-api/pkg/clock"
)

// ClientUseCase casos de uso de clientes.
type ClientUseCase struct {
	tx      ports.TxRunner
	clients repository.ClientRepository
	events  ports.EventPublisher
	clock   clock.Clock
	log     zerolog.Logger
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(tx ports.TxRunner, clients repository.ClientRepository, events ports.EventPublisher, clk clock.Clock, log zerolog.Logger) *ClientUseCase {
	if events == nil {
		events = ports.NopPublisher{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &ClientUseCase{tx: tx, clients: clients, events: events, clock: clk, log: log}
}

// Create alta de cliente. Sin OwnerID el dueño es quien lo crea.
func (uc *ClientUseCase) Create(ctx context.Context, actor permission.Actor, in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if actor.Cannot(permission.CreateClient) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.CreateClient)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrValidation)
	}
	tier := entity.ClientTier(in.Tier)
	if !tier.IsValid() {
		return nil, fmt.Errorf("%w: tier %q desconocido", domain.ErrValidation, in.Tier)
	}
	status := entity.ClientProspect
	if in.Status != "" {
		status = entity.ClientStatus(in.Status)
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: estado %q desconocido", domain.ErrValidation, in.Status)
		}
	}
	owner := in.OwnerID
	if owner == "" {
		owner = actor.UserID
	}
	now := uc.clock.Now()
	c := &entity.Client{
		ID:        uuid.New().String(),
		CompanyID: actor.CompanyID,
		Name:      name,
		Tier:      tier,
		Status:    status,
		Email:     in.Email,
		Phone:     in.Phone,
		OwnerID:   owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.clients.Create(ctx, c); err != nil {
		return nil, err
	}
	uc.publish(ctx, dto.EventClientCreated, actor, c)
	return ToClientResponse(c), nil
}

// Get devuelve un cliente visible para el actor.
func (uc *ClientUseCase) Get(ctx context.Context, actor permission.Actor, id string) (*dto.ClientResponse, error) {
	c, err := uc.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return ToClientResponse(c), nil
}

// List lista clientes; sin view_all_clients ni view_team_client solo los propios.
func (uc *ClientUseCase) List(ctx context.Context, actor permission.Actor, q dto.ClientListQuery) (*dto.ClientListResponse, error) {
	if actor.Cannot(permission.ViewProductsClients) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.ViewProductsClients)
	}
	q.DefaultPage()
	f := repository.ClientFilter{
		CompanyID: actor.CompanyID,
		Tier:      entity.ClientTier(q.Tier),
		Status:    entity.ClientStatus(q.Status),
		Search:    q.Search,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if actor.ShouldFilterByUser(permission.ResourceClient) {
		f.OwnerID = actor.UserID
	}
	list, err := uc.clients.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &dto.ClientListResponse{
		Items: make([]dto.ClientResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	}
	for _, c := range list {
		out.Items = append(out.Items, *ToClientResponse(c))
	}
	return out, nil
}

// Update actualización parcial. Requiere edit_any_client o edit_own_client siendo dueño.
// Lee y escribe con la fila bloqueada.
func (uc *ClientUseCase) Update(ctx context.Context, actor permission.Actor, id string, in dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	patch, err := clientPatch(in)
	if err != nil {
		return nil, err
	}
	var c *entity.Client
	err = uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		var err error
		c, err = repos.Clients.GetForUpdate(ctx, actor.CompanyID, id)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("%w: cliente %s", domain.ErrNotFound, id)
		}
		if !actor.CanEdit(permission.ResourceClient, c.OwnerID) {
			return fmt.Errorf("%w: no puedes editar el cliente %s", domain.ErrUnauthorized, c.Name)
		}
		patch(c)
		c.UpdatedAt = uc.clock.Now()
		return repos.Clients.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, dto.EventClientUpdated, actor, c)
	return ToClientResponse(c), nil
}

// clientPatch valida la entrada y devuelve la función que la aplica.
func clientPatch(in dto.UpdateClientRequest) (func(*entity.Client), error) {
	var name string
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrValidation)
		}
	}
	if in.Tier != nil && !entity.ClientTier(*in.Tier).IsValid() {
		return nil, fmt.Errorf("%w: tier %q desconocido", domain.ErrValidation, *in.Tier)
	}
	if in.Status != nil && !entity.ClientStatus(*in.Status).IsValid() {
		return nil, fmt.Errorf("%w: estado %q desconocido", domain.ErrValidation, *in.Status)
	}
	return func(c *entity.Client) {
		if in.Name != nil {
			c.Name = name
		}
		if in.Tier != nil {
			c.Tier = entity.ClientTier(*in.Tier)
		}
		if in.Status != nil {
			c.Status = entity.ClientStatus(*in.Status)
		}
		if in.Email != nil {
			c.Email = *in.Email
		}
		if in.Phone != nil {
			c.Phone = *in.Phone
		}
	}, nil
}

// Delete borra un cliente sin solicitudes.
func (uc *ClientUseCase) Delete(ctx context.Context, actor permission.Actor, id string) error {
	var c *entity.Client
	err := uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		var err error
		c, err = uc.DeleteInTx(ctx, repos, actor, id)
		return err
	})
	if err != nil {
		return err
	}
	uc.publish(ctx, dto.EventClientDeleted, actor, c)
	return nil
}

// DeleteInTx borra dentro de una transacción abierta.
func (uc *ClientUseCase) DeleteInTx(ctx context.Context, repos ports.TxRepos, actor permission.Actor, id string) (*entity.Client, error) {
	if actor.Cannot(permission.DeleteClient) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.DeleteClient)
	}
	c, err := repos.Clients.GetForUpdate(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, id)
	}
	n, err := repos.Requests.CountByClient(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: el cliente %s tiene %d solicitud(es); elimínalas o reasígnalas antes", domain.ErrPreconditionFailed, c.Name, n)
	}
	if err := repos.Clients.Delete(ctx, actor.CompanyID, id); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadForExport lee un cliente visible para el actor dentro de una transacción abierta.
func (uc *ClientUseCase) LoadForExport(ctx context.Context, repos ports.TxRepos, actor permission.Actor, id string) (*entity.Client, error) {
	c, err := repos.Clients.GetByID(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if c == nil || (actor.ShouldFilterByUser(permission.ResourceClient) && !actor.IsOwner(c.OwnerID)) {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, id)
	}
	return c, nil
}

// PublishDeleted publica client:deleted tras un commit externo (acciones masivas).
func (uc *ClientUseCase) PublishDeleted(ctx context.Context, actor permission.Actor, c *entity.Client) {
	uc.publish(ctx, dto.EventClientDeleted, actor, c)
}

func (uc *ClientUseCase) visible(ctx context.Context, actor permission.Actor, id string) (*entity.Client, error) {
	c, err := uc.clients.GetByID(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if c == nil || (actor.ShouldFilterByUser(permission.ResourceClient) && !actor.IsOwner(c.OwnerID)) {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, id)
	}
	return c, nil
}

func (uc *ClientUseCase) publish(ctx context.Context, typ string, actor permission.Actor, c *entity.Client) {
	ev := dto.RealtimeEvent{
		Type:       typ,
		CompanyID:  actor.CompanyID,
		EntityID:   c.ID,
		ActorID:    actor.UserID,
		OccurredAt: uc.clock.Now(),
		Data:       ToClientResponse(c),
	}
	if err := uc.events.Publish(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("event", typ).Str("client_id", c.ID).Msg("no se pudo publicar evento en tiempo real")
	}
}

// ToClientResponse mapea la entidad a su DTO.
func ToClientResponse(c *entity.Client) *dto.ClientResponse {
	if c == nil {
		return nil
	}
	return &dto.ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Tier:      string(c.Tier),
		Status:    string(c.Status),
		Email:     c.Email,
		Phone:     c.Phone,
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
