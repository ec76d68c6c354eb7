// Package bulk aplica una misma acción a una selección de solicitudes o clientes.
// Todo ocurre en una transacción: o se aplica a todos los ids o a ninguno.
package bulk

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iptegra/nexus-api/internal/application/clients"
	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/application/requests"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/permission"
)

// Target tipo de entidad seleccionada.
type Target string

const (
	TargetRequests Target = "requests"
	TargetClients  Target = "clients"
)

// Action acción masiva soportada.
type Action string

const (
	ActionAssign   Action = "assign"
	ActionStatus   Action = "status"
	ActionPriority Action = "priority"
	ActionDelete   Action = "delete"
	ActionExport   Action = "export"
)

// State estado del comando: pending hasta que el servidor confirma o rechaza.
type State string

const (
	StatePending   State = "pending"
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
)

// Command acción masiva sobre una selección. La selección se vacía solo al confirmar;
// si falla queda intacta para que el llamador la revise o cancele.
type Command struct {
	Target    Target
	Action    Action
	Selection *entity.SelectionSet
	Value     string

	State       State
	Err         error
	Affected    []string
	Export      []byte
	ContentType string
}

// NewCommand crea un comando pendiente.
func NewCommand(target Target, action Action, selection *entity.SelectionSet, value string) *Command {
	return &Command{Target: target, Action: action, Selection: selection, Value: value, State: StatePending}
}

// Coordinator ejecuta comandos masivos reutilizando las operaciones unitarias.
type Coordinator struct {
	tx       ports.TxRunner
	requests *requests.LifecycleUseCase
	clients  *clients.ClientUseCase
	exporter ports.Exporter
	log      zerolog.Logger
}

// NewCoordinator construye el coordinador.
func NewCoordinator(tx ports.TxRunner, req *requests.LifecycleUseCase, cl *clients.ClientUseCase, exporter ports.Exporter, log zerolog.Logger) *Coordinator {
	return &Coordinator{tx: tx, requests: req, clients: cl, exporter: exporter, log: log}
}

// requiredPermission clave que exige cada (target, acción); la misma que la operación unitaria.
func requiredPermission(target Target, action Action) (permission.Key, error) {
	switch target {
	case TargetRequests:
		switch action {
		case ActionAssign:
			return permission.AssignRequest, nil
		case ActionStatus:
			return permission.ChangeRequestStatus, nil
		case ActionPriority:
			return permission.ChangeRequestPriority, nil
		case ActionDelete:
			return permission.DeleteRequest, nil
		case ActionExport:
			return permission.ExportRequests, nil
		}
	case TargetClients:
		switch action {
		case ActionDelete:
			return permission.DeleteClient, nil
		case ActionExport:
			return permission.ExportClients, nil
		}
	default:
		return "", fmt.Errorf("%w: destino %q desconocido", domain.ErrValidation, target)
	}
	return "", fmt.Errorf("%w: la acción %q no aplica a %s", domain.ErrValidation, action, target)
}

// ApplyBulkAction valida y aplica el comando. Deja cmd.State en confirmed o failed.
func (c *Coordinator) ApplyBulkAction(ctx context.Context, actor permission.Actor, cmd *Command) error {
	if cmd.State != "" && cmd.State != StatePending {
		return fmt.Errorf("%w: el comando ya fue resuelto (%s)", domain.ErrValidation, cmd.State)
	}
	affected, err := c.apply(ctx, actor, cmd)
	if err != nil {
		cmd.State = StateFailed
		cmd.Err = err
		c.log.Warn().Err(err).
			Str("target", string(cmd.Target)).
			Str("action", string(cmd.Action)).
			Int("selected", cmd.Selection.Len()).
			Msg("acción masiva rechazada")
		return err
	}
	cmd.State = StateConfirmed
	cmd.Err = nil
	cmd.Affected = affected
	cmd.Selection.Clear()
	return nil
}

func (c *Coordinator) apply(ctx context.Context, actor permission.Actor, cmd *Command) ([]string, error) {
	key, err := requiredPermission(cmd.Target, cmd.Action)
	if err != nil {
		return nil, err
	}
	if actor.Cannot(key) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, key)
	}
	ids := cmd.Selection.IDs()
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: la selección está vacía", domain.ErrValidation)
	}
	if cmd.Target == TargetClients {
		return c.applyClients(ctx, actor, cmd, ids)
	}
	return c.applyRequests(ctx, actor, cmd, ids)
}

func (c *Coordinator) applyRequests(ctx context.Context, actor permission.Actor, cmd *Command, ids []string) ([]string, error) {
	switch cmd.Action {
	case ActionStatus:
		if !entity.RequestStatus(cmd.Value).IsValid() {
			return nil, fmt.Errorf("%w: estado %q desconocido", domain.ErrValidation, cmd.Value)
		}
	case ActionPriority:
		if !entity.Priority(cmd.Value).IsValid() {
			return nil, fmt.Errorf("%w: prioridad %q desconocida", domain.ErrValidation, cmd.Value)
		}
	case ActionAssign:
		if cmd.Value == "" {
			return nil, fmt.Errorf("%w: indica el miembro a asignar", domain.ErrValidation)
		}
		if err := c.requests.CheckUsers(ctx, actor.CompanyID, []string{cmd.Value}); err != nil {
			return nil, err
		}
	}

	var (
		changed []*entity.Request
		loaded  []*entity.Request
	)
	err := c.tx.Run(ctx, func(repos ports.TxRepos) error {
		return collect(string(cmd.Action), ids, func(id string) error {
			var (
				req *entity.Request
				ok  bool
				err error
			)
			switch cmd.Action {
			case ActionStatus:
				req, ok, err = c.requests.ChangeStatusInTx(ctx, repos, actor, id, entity.RequestStatus(cmd.Value))
			case ActionPriority:
				req, ok, err = c.requests.ChangePriorityInTx(ctx, repos, actor, id, entity.Priority(cmd.Value))
			case ActionAssign:
				req, ok, err = c.assignOne(ctx, repos, actor, id, cmd.Value)
			case ActionDelete:
				req, err = c.requests.DeleteInTx(ctx, repos, actor, id)
				ok = err == nil
			case ActionExport:
				req, err = c.requests.LoadForExport(ctx, repos, actor, id)
				if err == nil {
					loaded = append(loaded, req)
				}
			}
			if err != nil {
				return err
			}
			if ok {
				changed = append(changed, req)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if cmd.Action == ActionExport {
		return ids, c.export(cmd, func(buf *bytes.Buffer) error { return c.exporter.ExportRequests(buf, loaded) })
	}
	for _, req := range changed {
		c.requests.PublishUpdated(ctx, actor, req, cmd.Action == ActionDelete)
	}
	return ids, nil
}

// assignOne añade el miembro a los asignados actuales (la asignación masiva es aditiva).
func (c *Coordinator) assignOne(ctx context.Context, repos ports.TxRepos, actor permission.Actor, id, member string) (*entity.Request, bool, error) {
	current, err := repos.Requests.GetForUpdate(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, false, err
	}
	if current == nil {
		return nil, false, fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, id)
	}
	next := append(append([]string(nil), current.AssignedUsers...), member)
	return c.requests.AssignUsersInTx(ctx, repos, actor, id, next)
}

func (c *Coordinator) applyClients(ctx context.Context, actor permission.Actor, cmd *Command, ids []string) ([]string, error) {
	var (
		deleted []*entity.Client
		loaded  []*entity.Client
	)
	err := c.tx.Run(ctx, func(repos ports.TxRepos) error {
		return collect(string(cmd.Action), ids, func(id string) error {
			switch cmd.Action {
			case ActionDelete:
				cl, err := c.clients.DeleteInTx(ctx, repos, actor, id)
				if err != nil {
					return err
				}
				deleted = append(deleted, cl)
			case ActionExport:
				cl, err := c.clients.LoadForExport(ctx, repos, actor, id)
				if err != nil {
					return err
				}
				loaded = append(loaded, cl)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if cmd.Action == ActionExport {
		return ids, c.export(cmd, func(buf *bytes.Buffer) error { return c.exporter.ExportClients(buf, loaded) })
	}
	for _, cl := range deleted {
		c.clients.PublishDeleted(ctx, actor, cl)
	}
	return ids, nil
}

func (c *Coordinator) export(cmd *Command, write func(*bytes.Buffer) error) error {
	if c.exporter == nil {
		return fmt.Errorf("exportador no configurado")
	}
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("exportar %s: %w", cmd.Target, err)
	}
	cmd.Export = buf.Bytes()
	cmd.ContentType = c.exporter.ContentType()
	return nil
}

// collect aplica fn a cada id y junta los fallos en un BulkError, que revierte la transacción.
// Un fallo interno o de E/S corta el recorrido: los ids restantes no se intentan.
func collect(action string, ids []string, fn func(id string) error) error {
	causes := make(map[string]error)
	for _, id := range ids {
		err := fn(id)
		if err == nil {
			continue
		}
		causes[id] = err
		if k := domain.KindOf(err); k == domain.KindTransientIO || k == domain.KindInternal {
			break
		}
	}
	if len(causes) == 0 {
		return nil
	}
	return domain.NewBulkError(action, causes)
}
