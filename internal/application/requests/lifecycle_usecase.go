package requests

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/lifecycle"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/internal/domain/repository"
	"github.com/iptegra/nexus-api/pkg/clock"
)

const boardLimit = 500

// Deps dependencias de los casos de uso de solicitudes.
type Deps struct {
	Tx          ports.TxRunner
	Requests    repository.RequestRepository
	Activities  repository.ActivityRepository
	TimeEntries repository.TimeEntryRepository
	Users       repository.UserRepository
	Events      ports.EventPublisher
	Clock       clock.Clock
	Policy      lifecycle.TransitionPolicy
	Log         zerolog.Logger
}

func (d *Deps) defaults() {
	if d.Events == nil {
		d.Events = ports.NopPublisher{}
	}
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Policy == nil {
		d.Policy = lifecycle.Permissive()
	}
}

// LifecycleUseCase estado, prioridad, asignación, estimación y borrado de solicitudes.
// Toda mutación verifica el permiso en el servidor y deja una entrada de actividad
// dentro de la misma transacción que bloquea la fila.
type LifecycleUseCase struct {
	d Deps
}

// NewLifecycleUseCase construye el caso de uso.
func NewLifecycleUseCase(d Deps) *LifecycleUseCase {
	d.defaults()
	return &LifecycleUseCase{d: d}
}

// Create registra una solicitud nueva en INTAKE.
func (uc *LifecycleUseCase) Create(ctx context.Context, actor permission.Actor, in dto.CreateRequestRequest) (*dto.RequestResponse, error) {
	if actor.Cannot(permission.CreateRequest) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.CreateRequest)
	}
	typ := entity.RequestType(in.Type)
	if !typ.IsValid() {
		return nil, fmt.Errorf("%w: tipo %q desconocido", domain.ErrValidation, in.Type)
	}
	priority := entity.PriorityMedium
	if in.Priority != "" {
		priority = entity.Priority(in.Priority)
		if !priority.IsValid() {
			return nil, fmt.Errorf("%w: prioridad %q desconocida", domain.ErrValidation, in.Priority)
		}
	}
	estimate := decimal.Zero
	if in.EstimatedHours != nil {
		if in.EstimatedHours.IsNegative() {
			return nil, fmt.Errorf("%w: las horas estimadas no pueden ser negativas", domain.ErrValidation)
		}
		estimate = in.EstimatedHours.Round(lifecycle.HourPrecision)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: el título es obligatorio", domain.ErrValidation)
	}

	now := uc.d.Clock.Now()
	req := &entity.Request{
		ID:             uuid.New().String(),
		CompanyID:      actor.CompanyID,
		Title:          title,
		Description:    in.Description,
		Type:           typ,
		Status:         entity.StatusIntake,
		Priority:       priority,
		ClientID:       in.ClientID,
		ProductID:      in.ProductID,
		EstimatedHours: estimate,
		ActualHours:    decimal.Zero,
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := uc.d.Tx.Run(ctx, func(repos ports.TxRepos) error {
		client, err := repos.Clients.GetByID(ctx, actor.CompanyID, in.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return fmt.Errorf("%w: cliente %s", domain.ErrNotFound, in.ClientID)
		}
		if err := repos.Requests.Create(ctx, req); err != nil {
			return err
		}
		return appendActivity(ctx, repos, uc.d.Clock, req.ID, actor.UserID, entity.ActivityCreated,
			fmt.Sprintf("Solicitud %s creada", req.RequestNumber), nil)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, dto.EventRequestCreated, actor, req)
	return ToRequestResponse(req), nil
}

// Get devuelve una solicitud visible para el actor.
func (uc *LifecycleUseCase) Get(ctx context.Context, actor permission.Actor, id string) (*dto.RequestResponse, error) {
	req, err := uc.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return ToRequestResponse(req), nil
}

// List lista solicitudes. Si el rol no ve todas ni las del equipo, solo las propias o asignadas.
func (uc *LifecycleUseCase) List(ctx context.Context, actor permission.Actor, q dto.RequestListQuery) (*dto.RequestListResponse, error) {
	q.DefaultPage()
	f := repository.RequestFilter{
		CompanyID: actor.CompanyID,
		Status:    entity.RequestStatus(q.Status),
		Priority:  entity.Priority(q.Priority),
		ClientID:  q.ClientID,
		Search:    q.Search,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if actor.ShouldFilterByUser(permission.ResourceRequest) {
		f.OnlyUserID = actor.UserID
	}
	list, err := uc.d.Requests.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &dto.RequestListResponse{
		Items: make([]dto.RequestResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	}
	for _, r := range list {
		out.Items = append(out.Items, *ToRequestResponse(r))
	}
	return out, nil
}

// Board agrupa las solicitudes visibles por columna de estado.
func (uc *LifecycleUseCase) Board(ctx context.Context, actor permission.Actor) (*dto.BoardResponse, error) {
	list, err := uc.List(ctx, actor, dto.RequestListQuery{PageRequest: dto.PageRequest{Limit: boardLimit}})
	if err != nil {
		return nil, err
	}
	byStatus := make(map[string][]dto.RequestResponse)
	for _, item := range list.Items {
		byStatus[item.Status] = append(byStatus[item.Status], item)
	}
	board := &dto.BoardResponse{Columns: make([]dto.BoardColumn, 0, len(entity.RequestStatuses))}
	for _, s := range entity.RequestStatuses {
		items := byStatus[string(s)]
		if items == nil {
			items = []dto.RequestResponse{}
		}
		board.Columns = append(board.Columns, dto.BoardColumn{Status: string(s), Count: len(items), Items: items})
	}
	return board, nil
}

// Activities historial ordenado por seq.
func (uc *LifecycleUseCase) Activities(ctx context.Context, actor permission.Actor, id string) ([]dto.ActivityResponse, error) {
	if _, err := uc.visible(ctx, actor, id); err != nil {
		return nil, err
	}
	list, err := uc.d.Activities.ListByRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ActivityResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toActivityResponse(a))
	}
	return out, nil
}

// ChangeStatus mueve la solicitud de columna. Mismo estado: no-op sin actividad.
func (uc *LifecycleUseCase) ChangeStatus(ctx context.Context, actor permission.Actor, id string, status entity.RequestStatus) (*dto.RequestResponse, error) {
	var (
		req     *entity.Request
		changed bool
	)
	if actor.Cannot(permission.ChangeRequestStatus) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.ChangeRequestStatus)
	}
	err := uc.d.Tx.Run(ctx, func(repos ports.TxRepos) error {
		var err error
		req, changed, err = uc.ChangeStatusInTx(ctx, repos, actor, id, status)
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		uc.publish(ctx, dto.EventRequestUpdated, actor, req)
	}
	return ToRequestResponse(req), nil
}

// ChangeStatusInTx aplica el cambio dentro de una transacción abierta.
func (uc *LifecycleUseCase) ChangeStatusInTx(ctx context.Context, repos ports.TxRepos, actor permission.Actor, id string, status entity.RequestStatus) (*entity.Request, bool, error) {
	if actor.Cannot(permission.ChangeRequestStatus) {
		return nil, false, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.ChangeRequestStatus)
	}
	req, err := lockVisible(ctx, repos, actor, id)
	if err != nil {
		return nil, false, err
	}
	change, err := lifecycle.PlanStatusChange(uc.d.Policy, req.Status, status)
	if err != nil {
		return nil, false, err
	}
	if change.NoOp {
		return req, false, nil
	}
	from := req.Status
	req.Status = status
	req.UpdatedAt = uc.d.Clock.Now()
	if err := repos.Requests.Update(ctx, req); err != nil {
		return nil, false, err
	}
	meta := map[string]string{"from": string(from), "to": string(status)}
	if err := appendActivity(ctx, repos, uc.d.Clock, req.ID, actor.UserID, entity.ActivityStatusChange, change.Description, meta); err != nil {
		return nil, false, err
	}
	return req, true, nil
}

// ChangePriority cambia la prioridad. Misma prioridad: no-op sin actividad.
func (uc *LifecycleUseCase) ChangePriority(ctx context.Context, actor permission.Actor, id string, priority entity.Priority) (*dto.RequestResponse, error) {
	var (
		req     *entity.Request
		changed bool
	)
	err := uc.d.Tx.Run(ctx, func(repos ports.TxRepos) error {
		var err error
		req, changed, err = uc.ChangePriorityInTx(ctx, repos, actor, id, priority)
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		uc.publish(ctx, dto.EventRequestUpdated, actor, req)
	}
	return ToRequestResponse(req), nil
}

// ChangePriorityInTx aplica el cambio de prioridad dentro de una transacción abierta.
func (uc *LifecycleUseCase) ChangePriorityInTx(ctx context.Context, repos ports.TxRepos, actor permission.Actor, id string, priority entity.Priority) (*entity.Request, bool, error) {
	if actor.Cannot(permission.ChangeRequestPriority) {
		return nil, false, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.ChangeRequestPriority)
	}
	req, err := lockVisible(ctx, repos, actor, id)
	if err != nil {
		return nil, false, err
	}
	change, err := lifecycle.PlanPriorityChange(req.Priority, priority)
	if err != nil {
		return nil, false, err
	}
	if change.NoOp {
		return req, false, nil
	}
	from := req.Priority
	req.Priority = priority
	req.UpdatedAt = uc.d.Clock.Now()
	if err := repos.Requests.Update(ctx, req); err != nil {
		return nil, false, err
	}
	meta := map[string]string{"from": string(from), "to": string(priority)}
	if err := appendActivity(ctx, repos, uc.d.Clock, req.ID, actor.UserID, entity.ActivityPriorityChange, change.Description, meta); err != nil {
		return nil, false, err
	}
	return req, true, nil
}

// UpdateEstimate cambia las horas estimadas. Requiere poder editar la solicitud
// (edit_any_request, o edit_own_request siendo su creador).
func (uc *LifecycleUseCase) UpdateEstimate(ctx context.Context, actor permission.Actor, id string, hours decimal.Decimal) (*dto.RequestResponse, error) {
	if hours.IsNegative() {
		return nil, fmt.Errorf("%w: las horas estimadas no pueden ser negativas", domain.ErrValidation)
	}
	hours = hours.Round(lifecycle.HourPrecision)
	var (
		req     *entity.Request
		changed bool
	)
	err := uc.d.Tx.Run(ctx, func(repos ports.TxRepos) error {
		var err error
		req, err = lockVisible(ctx, repos, actor, id)
		if err != nil {
			return err
		}
		if !actor.CanEdit(permission.ResourceRequest, req.CreatedBy) {
			return fmt.Errorf("%w: no puedes editar la solicitud %s", domain.ErrUnauthorized, req.RequestNumber)
		}
		if req.EstimatedHours.Equal(hours) {
			return nil
		}
		from := req.EstimatedHours
		req.EstimatedHours = hours
		req.UpdatedAt = uc.d.Clock.Now()
		if err := repos.Requests.Update(ctx, req); err != nil {
			return err
		}
		changed = true
		desc := fmt.Sprintf("Estimación cambiada de %s h a %s h", from.String(), hours.String())
		return appendActivity(ctx, repos, uc.d.Clock, req.ID, actor.UserID, entity.ActivityEstimateChange, desc,
			map[string]string{"from": from.String(), "to": hours.String()})
	})
	if err != nil {
		return nil, err
	}
	if changed {
		uc.publish(ctx, dto.EventRequestUpdated, actor, req)
	}
	return ToRequestResponse(req), nil
}

// AssignUsers reemplaza el conjunto completo de asignados (no es aditivo).
func (uc *LifecycleUseCase) AssignUsers(ctx context.Context, actor permission.Actor, id string, userIDs []string) (*dto.RequestResponse, error) {
	if actor.Cannot(permission.AssignRequest) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.AssignRequest)
	}
	next := lifecycle.NormalizeAssignees(userIDs)
	if err := uc.CheckUsers(ctx, actor.CompanyID, next); err != nil {
		return nil, err
	}
	var (
		req     *entity.Request
		changed bool
	)
	err := uc.d.Tx.Run(ctx, func(repos ports.TxRepos) error {
		var err error
		req, changed, err = uc.AssignUsersInTx(ctx, repos, actor, id, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		uc.publish(ctx, dto.EventRequestUpdated, actor, req)
	}
	return ToRequestResponse(req), nil
}

// CheckUsers valida que los ids sean usuarios activos de la company.
func (uc *LifecycleUseCase) CheckUsers(ctx context.Context, companyID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	existing, err := uc.d.Users.ExistingIDs(ctx, companyID, ids)
	if err != nil {
		return err
	}
	found := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: usuarios inexistentes o inactivos: %s", domain.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// AssignUsersInTx reemplaza los asignados dentro de una transacción abierta.
// Un diff vacío no escribe nada ni genera actividad.
func (uc *LifecycleUseCase) AssignUsersInTx(ctx context.Context, repos ports.TxRepos, actor permission.Actor, id string, userIDs []string) (*entity.Request, bool, error) {
	if actor.Cannot(permission.AssignRequest) {
		return nil, false, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.AssignRequest)
	}
	req, err := lockVisible(ctx, repos, actor, id)
	if err != nil {
		return nil, false, err
	}
	next := lifecycle.NormalizeAssignees(userIDs)
	diff := lifecycle.DiffAssignees(req.AssignedUsers, next)
	if diff.Empty() {
		return req, false, nil
	}
	if err := repos.Requests.ReplaceAssignees(ctx, req.ID, next); err != nil {
		return nil, false, err
	}
	req.AssignedUsers = next
	req.UpdatedAt = uc.d.Clock.Now()
	if err := repos.Requests.Update(ctx, req); err != nil {
		return nil, false, err
	}
	if err := appendActivity(ctx, repos, uc.d.Clock, req.ID, actor.UserID, entity.ActivityAssignment, diff.Describe(), diff); err != nil {
		return nil, false, err
	}
	return req, true, nil
}

// DeleteRequest borrado definitivo. Con asignados falla con PreconditionFailed
// antes de mirar el permiso; sin asignados requiere delete_request.
func (uc *LifecycleUseCase) DeleteRequest(ctx context.Context, actor permission.Actor, id string) error {
	var req *entity.Request
	err := uc.d.Tx.Run(ctx, func(repos ports.TxRepos) error {
		var err error
		req, err = uc.DeleteInTx(ctx, repos, actor, id)
		return err
	})
	if err != nil {
		return err
	}
	uc.publish(ctx, dto.EventRequestDeleted, actor, req)
	return nil
}

// DeleteInTx borra dentro de una transacción abierta.
func (uc *LifecycleUseCase) DeleteInTx(ctx context.Context, repos ports.TxRepos, actor permission.Actor, id string) (*entity.Request, error) {
	req, err := lockVisible(ctx, repos, actor, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckDeletable(req); err != nil {
		return nil, err
	}
	if actor.Cannot(permission.DeleteRequest) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.DeleteRequest)
	}
	if err := repos.Requests.Delete(ctx, actor.CompanyID, req.ID); err != nil {
		return nil, err
	}
	return req, nil
}

// LoadForExport lee una solicitud visible para el actor dentro de una transacción abierta.
func (uc *LifecycleUseCase) LoadForExport(ctx context.Context, repos ports.TxRepos, actor permission.Actor, id string) (*entity.Request, error) {
	req, err := repos.Requests.GetByID(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if req == nil || !visibleTo(actor, req) {
		return nil, fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, id)
	}
	return req, nil
}

// PublishUpdated publica request:updated o request:deleted tras un commit externo (acciones masivas).
func (uc *LifecycleUseCase) PublishUpdated(ctx context.Context, actor permission.Actor, req *entity.Request, deleted bool) {
	typ := dto.EventRequestUpdated
	if deleted {
		typ = dto.EventRequestDeleted
	}
	uc.publish(ctx, typ, actor, req)
}

// visible lee la solicitud y aplica el filtro por usuario. Lo no visible se reporta como inexistente.
func (uc *LifecycleUseCase) visible(ctx context.Context, actor permission.Actor, id string) (*entity.Request, error) {
	req, err := uc.d.Requests.GetByID(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, id)
	}
	if !visibleTo(actor, req) {
		return nil, fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, id)
	}
	return req, nil
}

func visibleTo(actor permission.Actor, req *entity.Request) bool {
	if !actor.ShouldFilterByUser(permission.ResourceRequest) {
		return true
	}
	return actor.IsOwner(req.CreatedBy) || req.IsAssignedTo(actor.UserID)
}

func (uc *LifecycleUseCase) publish(ctx context.Context, typ string, actor permission.Actor, req *entity.Request) {
	publishEvent(ctx, uc.d.Events, uc.d.Log, uc.d.Clock, dto.RealtimeEvent{
		Type:      typ,
		CompanyID: actor.CompanyID,
		EntityID:  req.ID,
		ActorID:   actor.UserID,
		Data:      ToRequestResponse(req),
	})
}

func lockRequest(ctx context.Context, repos ports.TxRepos, companyID, id string) (*entity.Request, error) {
	req, err := repos.Requests.GetForUpdate(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, id)
	}
	return req, nil
}

// lockVisible bloquea la fila y aplica el mismo filtro por usuario que las lecturas.
func lockVisible(ctx context.Context, repos ports.TxRepos, actor permission.Actor, id string) (*entity.Request, error) {
	req, err := lockRequest(ctx, repos, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(actor, req) {
		return nil, fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, id)
	}
	return req, nil
}

func appendActivity(ctx context.Context, repos ports.TxRepos, clk clock.Clock, requestID, actorID string, typ entity.ActivityType, description string, meta any) error {
	var raw json.RawMessage
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("serializar metadata: %w", err)
		}
		raw = b
	}
	return repos.Activities.Append(ctx, &entity.Activity{
		ID:           uuid.New().String(),
		RequestID:    requestID,
		ActivityType: typ,
		Description:  description,
		ActorID:      actorID,
		Metadata:     raw,
		CreatedAt:    clk.Now(),
	})
}

// publishEvent es best-effort: la mutación ya está confirmada.
func publishEvent(ctx context.Context, pub ports.EventPublisher, log zerolog.Logger, clk clock.Clock, ev dto.RealtimeEvent) {
	ev.OccurredAt = clk.Now()
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Str("entity_id", ev.EntityID).Msg("no se pudo publicar evento en tiempo real")
	}
}

// ToRequestResponse mapea la entidad a su DTO.
func ToRequestResponse(r *entity.Request) *dto.RequestResponse {
	if r == nil {
		return nil
	}
	assigned := r.AssignedUsers
	if assigned == nil {
		assigned = []string{}
	}
	return &dto.RequestResponse{
		ID:             r.ID,
		RequestNumber:  r.RequestNumber,
		Title:          r.Title,
		Description:    r.Description,
		Type:           string(r.Type),
		Status:         string(r.Status),
		Priority:       string(r.Priority),
		ClientID:       r.ClientID,
		ProductID:      r.ProductID,
		AssignedUsers:  assigned,
		EstimatedHours: r.EstimatedHours,
		ActualHours:    r.ActualHours,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toActivityResponse(a *entity.Activity) dto.ActivityResponse {
	out := dto.ActivityResponse{
		ID:           a.ID,
		RequestID:    a.RequestID,
		Seq:          a.Seq,
		ActivityType: string(a.ActivityType),
		Description:  a.Description,
		ActorID:      a.ActorID,
		CreatedAt:    a.CreatedAt,
	}
	if len(a.Metadata) > 0 {
		out.Metadata = a.Metadata
	}
	return out
}
