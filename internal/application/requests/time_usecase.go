package requests

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/lifecycle"
	"github.com/iptegra/nexus-api/internal/domain/permission"
)

// TimeTrackingUseCase registros de tiempo por (solicitud, usuario):
// NONE → ACTIVE → {PAUSED, COMPLETED}, PAUSED → {ACTIVE, COMPLETED}.
type TimeTrackingUseCase struct {
	d Deps
}

// NewTimeTrackingUseCase construye el caso de uso.
func NewTimeTrackingUseCase(d Deps) *TimeTrackingUseCase {
	d.defaults()
	return &TimeTrackingUseCase{d: d}
}

// Start abre un registro ACTIVE. Falla si ya hay uno abierto; el existente no se toca.
func (uc *TimeTrackingUseCase) Start(ctx context.Context, actor permission.Actor, requestID, description string) (*dto.TimeEntryResponse, error) {
	if err := requireTrackTime(actor); err != nil {
		return nil, err
	}
	var entry *entity.TimeEntry
	err := uc.d.Tx.Run(ctx, func(repos ports.TxRepos) error {
		if _, err := lockVisible(ctx, repos, actor, requestID); err != nil {
			return err
		}
		open, err := repos.TimeEntries.GetOpen(ctx, requestID, actor.UserID)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckCanStart(open); err != nil {
			return err
		}
		entry = lifecycle.NewEntry(uuid.New().String(), actor.CompanyID, requestID, actor.UserID, description, uc.d.Clock.Now())
		return repos.TimeEntries.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return ToTimeEntryResponse(entry), nil
}

// Pause acumula el tramo en curso.
func (uc *TimeTrackingUseCase) Pause(ctx context.Context, actor permission.Actor, requestID, description string) (*dto.TimeEntryResponse, error) {
	return uc.transition(ctx, actor, requestID, func(e *entity.TimeEntry) error {
		return lifecycle.Pause(e, uc.d.Clock.Now(), description)
	})
}

// Resume reabre el tramo sin perder lo acumulado.
func (uc *TimeTrackingUseCase) Resume(ctx context.Context, actor permission.Actor, requestID string) (*dto.TimeEntryResponse, error) {
	return uc.transition(ctx, actor, requestID, func(e *entity.TimeEntry) error {
		return lifecycle.Resume(e, uc.d.Clock.Now())
	})
}

func (uc *TimeTrackingUseCase) transition(ctx context.Context, actor permission.Actor, requestID string, apply func(*entity.TimeEntry) error) (*dto.TimeEntryResponse, error) {
	if err := requireTrackTime(actor); err != nil {
		return nil, err
	}
	var entry *entity.TimeEntry
	err := uc.d.Tx.Run(ctx, func(repos ports.TxRepos) error {
		if _, err := lockVisible(ctx, repos, actor, requestID); err != nil {
			return err
		}
		var err error
		entry, err = openEntry(ctx, repos, requestID, actor.UserID)
		if err != nil {
			return err
		}
		if err := apply(entry); err != nil {
			return err
		}
		return repos.TimeEntries.Update(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return ToTimeEntryResponse(entry), nil
}

// Complete cierra el registro y suma su duración a las horas reales de la solicitud.
func (uc *TimeTrackingUseCase) Complete(ctx context.Context, actor permission.Actor, requestID, description string) (*dto.TimeEntryResponse, error) {
	if err := requireTrackTime(actor); err != nil {
		return nil, err
	}
	var (
		entry *entity.TimeEntry
		req   *entity.Request
	)
	err := uc.d.Tx.Run(ctx, func(repos ports.TxRepos) error {
		var err error
		req, err = lockVisible(ctx, repos, actor, requestID)
		if err != nil {
			return err
		}
		entry, err = openEntry(ctx, repos, requestID, actor.UserID)
		if err != nil {
			return err
		}
		hours, err := lifecycle.Complete(entry, uc.d.Clock.Now(), description)
		if err != nil {
			return err
		}
		if err := repos.TimeEntries.Update(ctx, entry); err != nil {
			return err
		}
		if err := repos.Requests.AddActualHours(ctx, requestID, hours); err != nil {
			return err
		}
		req.ActualHours = req.ActualHours.Add(hours)
		return appendActivity(ctx, repos, uc.d.Clock, requestID, actor.UserID, entity.ActivityTimeLogged,
			fmt.Sprintf("Registradas %s h", hours.String()),
			map[string]string{"time_entry_id": entry.ID, "hours": hours.String()})
	})
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, uc.d.Events, uc.d.Log, uc.d.Clock, dto.RealtimeEvent{
		Type: dto.EventRequestUpdated, CompanyID: actor.CompanyID, EntityID: requestID, ActorID: actor.UserID,
		Data: ToRequestResponse(req),
	})
	return ToTimeEntryResponse(entry), nil
}

// Delete elimina un registro COMPLETED y resta su duración de las horas reales (sin bajar de cero).
func (uc *TimeTrackingUseCase) Delete(ctx context.Context, actor permission.Actor, entryID string) error {
	var requestID string
	err := uc.d.Tx.Run(ctx, func(repos ports.TxRepos) error {
		entry, err := repos.TimeEntries.GetByID(ctx, actor.CompanyID, entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("%w: registro de tiempo %s", domain.ErrNotFound, entryID)
		}
		if !actor.CanEdit(permission.ResourceTimeEntry, entry.UserID) {
			return fmt.Errorf("%w: no puedes eliminar registros de otro usuario", domain.ErrUnauthorized)
		}
		if err := lifecycle.CheckEntryDeletable(entry); err != nil {
			return err
		}
		if _, err := lockVisible(ctx, repos, actor, entry.RequestID); err != nil {
			return err
		}
		if err := repos.TimeEntries.Delete(ctx, entry.ID); err != nil {
			return err
		}
		if err := repos.Requests.AddActualHours(ctx, entry.RequestID, entry.Duration.Neg()); err != nil {
			return err
		}
		requestID = entry.RequestID
		return appendActivity(ctx, repos, uc.d.Clock, entry.RequestID, actor.UserID, entity.ActivityTimeLogged,
			fmt.Sprintf("Registro de tiempo eliminado (-%s h)", entry.Duration.String()),
			map[string]string{"time_entry_id": entry.ID, "hours": entry.Duration.Neg().String()})
	})
	if err != nil {
		return err
	}
	publishEvent(ctx, uc.d.Events, uc.d.Log, uc.d.Clock, dto.RealtimeEvent{
		Type: dto.EventRequestUpdated, CompanyID: actor.CompanyID, EntityID: requestID, ActorID: actor.UserID,
	})
	return nil
}

// Current registro abierto del actor con el tiempo transcurrido derivado. Entry nil si no hay.
func (uc *TimeTrackingUseCase) Current(ctx context.Context, actor permission.Actor, requestID string) (*dto.CurrentTimeResponse, error) {
	if err := requireTrackTime(actor); err != nil {
		return nil, err
	}
	now := uc.d.Clock.Now()
	open, err := uc.d.TimeEntries.GetOpen(ctx, requestID, actor.UserID)
	if err != nil {
		return nil, err
	}
	out := &dto.CurrentTimeResponse{ServerTime: now, LiveHours: lifecycle.LiveHours(open, now)}
	if open != nil {
		out.Entry = ToTimeEntryResponse(open)
		out.ElapsedSeconds = int64(lifecycle.Elapsed(open, now).Seconds())
	}
	return out, nil
}

// ListEntries registros de una solicitud visible para el actor.
func (uc *TimeTrackingUseCase) ListEntries(ctx context.Context, actor permission.Actor, requestID string) ([]dto.TimeEntryResponse, error) {
	req, err := uc.d.Requests.GetByID(ctx, actor.CompanyID, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || !visibleTo(actor, req) {
		return nil, fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, requestID)
	}
	list, err := uc.d.TimeEntries.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	filter := actor.ShouldFilterByUser(permission.ResourceRequest)
	out := make([]dto.TimeEntryResponse, 0, len(list))
	for _, e := range list {
		if filter && e.UserID != actor.UserID {
			continue
		}
		out = append(out, *ToTimeEntryResponse(e))
	}
	return out, nil
}

func requireTrackTime(actor permission.Actor) error {
	if actor.Cannot(permission.TrackTime) {
		return fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.TrackTime)
	}
	return nil
}

func openEntry(ctx context.Context, repos ports.TxRepos, requestID, userID string) (*entity.TimeEntry, error) {
	e, err := repos.TimeEntries.GetOpen(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: no tienes un registro de tiempo abierto en esta solicitud; inicia uno primero", domain.ErrPreconditionFailed)
	}
	return e, nil
}

// ToTimeEntryResponse mapea la entidad a su DTO.
func ToTimeEntryResponse(e *entity.TimeEntry) *dto.TimeEntryResponse {
	if e == nil {
		return nil
	}
	return &dto.TimeEntryResponse{
		ID:          e.ID,
		RequestID:   e.RequestID,
		UserID:      e.UserID,
		Status:      string(e.Status),
		StartedAt:   e.StartedAt,
		EndedAt:     e.EndedAt,
		Duration:    e.Duration,
		Description: e.Description,
	}
}
