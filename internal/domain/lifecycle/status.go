// Package lifecycle contiene las reglas puras del ciclo de vida de una solicitud:
// transiciones de estado y prioridad, asignación, borrado y la máquina de estados
// del seguimiento de tiempo. No hace E/S; los casos de uso persisten el resultado.
package lifecycle

import (
	"fmt"

	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
)

// TransitionPolicy decide si un cambio de estado está permitido.
type TransitionPolicy interface {
	Allowed(from, to entity.RequestStatus) bool
}

type permissive struct{}

func (permissive) Allowed(_, _ entity.RequestStatus) bool { return true }

// Permissive cualquier estado puede pasar a cualquier otro (arrastrar en el tablero).
func Permissive() TransitionPolicy { return permissive{} }

// TransitionTable política explícita estado → estados siguientes.
type TransitionTable map[entity.RequestStatus][]entity.RequestStatus

func (t TransitionTable) Allowed(from, to entity.RequestStatus) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DefaultWorkflow tabla usada cuando WORKFLOW_STRICT_TRANSITIONS=true.
func DefaultWorkflow() TransitionTable {
	return TransitionTable{
		entity.StatusIntake:     {entity.StatusBacklog, entity.StatusRejected},
		entity.StatusBacklog:    {entity.StatusInProgress, entity.StatusRejected},
		entity.StatusInProgress: {entity.StatusReview, entity.StatusBacklog},
		entity.StatusReview:     {entity.StatusDone, entity.StatusInProgress},
		entity.StatusDone:       {entity.StatusInProgress},
		entity.StatusRejected:   {entity.StatusBacklog},
	}
}

// Change resultado de planificar un cambio. NoOp indica que no hay nada que persistir
// ni auditar (mover a la misma columna).
type Change struct {
	NoOp        bool
	Description string
}

// PlanStatusChange valida el paso de from a to.
func PlanStatusChange(policy TransitionPolicy, from, to entity.RequestStatus) (Change, error) {
	if !to.IsValid() {
		return Change{}, fmt.Errorf("%w: estado %q desconocido", domain.ErrValidation, to)
	}
	if from == to {
		return Change{NoOp: true}, nil
	}
	if policy == nil {
		policy = Permissive()
	}
	if !policy.Allowed(from, to) {
		return Change{}, fmt.Errorf("%w: no se puede pasar de %s a %s", domain.ErrPreconditionFailed, from, to)
	}
	return Change{Description: fmt.Sprintf("Estado cambiado de %s a %s", from, to)}, nil
}

// PlanPriorityChange igual que el estado: misma prioridad es no-op.
func PlanPriorityChange(from, to entity.Priority) (Change, error) {
	if !to.IsValid() {
		return Change{}, fmt.Errorf("%w: prioridad %q desconocida", domain.ErrValidation, to)
	}
	if from == to {
		return Change{NoOp: true}, nil
	}
	return Change{Description: fmt.Sprintf("Prioridad cambiada de %s a %s", from, to)}, nil
}

// CheckDeletable una solicitud con asignados no se puede borrar.
func CheckDeletable(r *entity.Request) error {
	if n := len(r.AssignedUsers); n > 0 {
		return fmt.Errorf("%w: la solicitud %s tiene %d usuario(s) asignado(s); desasígnalos antes de eliminarla",
			domain.ErrPreconditionFailed, r.RequestNumber, n)
	}
	return nil
}
