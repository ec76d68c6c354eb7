package lifecycle

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
)

// HourPrecision decimales con que se guardan las horas (NUMERIC(12,4)).
const HourPrecision = 4

var msPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))

// HoursOf convierte una duración a horas decimales. Negativo (reloj desfasado) cuenta como cero.
func HoursOf(d time.Duration) decimal.Decimal {
	if d <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(d.Milliseconds()).Div(msPerHour).Round(HourPrecision)
}

// CheckCanStart falla si ya hay una entrada ACTIVE o PAUSED para (solicitud, usuario).
func CheckCanStart(open *entity.TimeEntry) error {
	if open != nil && open.Status.IsOpen() {
		return fmt.Errorf("%w: ya tienes un registro de tiempo %s en esta solicitud; complétalo antes de iniciar otro",
			domain.ErrPreconditionFailed, open.Status)
	}
	return nil
}

// NewEntry entrada recién iniciada: ACTIVE, duración cero, ancla en now.
func NewEntry(id, companyID, requestID, userID, description string, now time.Time) *entity.TimeEntry {
	return &entity.TimeEntry{
		ID:               id,
		CompanyID:        companyID,
		RequestID:        requestID,
		UserID:           userID,
		Status:           entity.TimeEntryActive,
		StartedAt:        now,
		SegmentStartedAt: now,
		Duration:         decimal.Zero,
		Description:      description,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Pause suma el tramo en curso a la duración y deja la entrada PAUSED.
func Pause(e *entity.TimeEntry, now time.Time, description string) error {
	if e.Status != entity.TimeEntryActive {
		return fmt.Errorf("%w: solo se puede pausar un registro ACTIVE (actual: %s)", domain.ErrPreconditionFailed, e.Status)
	}
	e.Duration = e.Duration.Add(HoursOf(now.Sub(e.SegmentStartedAt)))
	e.Status = entity.TimeEntryPaused
	setDescription(e, description)
	e.UpdatedAt = now
	return nil
}

// Resume reabre el tramo: ancla en now, la duración acumulada se conserva.
func Resume(e *entity.TimeEntry, now time.Time) error {
	if e.Status != entity.TimeEntryPaused {
		return fmt.Errorf("%w: solo se puede reanudar un registro PAUSED (actual: %s)", domain.ErrPreconditionFailed, e.Status)
	}
	e.Status = entity.TimeEntryActive
	e.SegmentStartedAt = now
	e.UpdatedAt = now
	return nil
}

// Complete cierra la entrada desde ACTIVE o PAUSED y devuelve la duración final,
// que es la que se suma a las horas reales de la solicitud.
func Complete(e *entity.TimeEntry, now time.Time, description string) (decimal.Decimal, error) {
	switch e.Status {
	case entity.TimeEntryActive:
		e.Duration = e.Duration.Add(HoursOf(now.Sub(e.SegmentStartedAt)))
	case entity.TimeEntryPaused:
	default:
		return decimal.Zero, fmt.Errorf("%w: el registro ya está %s", domain.ErrPreconditionFailed, e.Status)
	}
	e.Status = entity.TimeEntryCompleted
	ended := now
	e.EndedAt = &ended
	setDescription(e, description)
	e.UpdatedAt = now
	return e.Duration, nil
}

// CheckEntryDeletable solo se borran entradas COMPLETED.
func CheckEntryDeletable(e *entity.TimeEntry) error {
	if e.Status != entity.TimeEntryCompleted {
		return fmt.Errorf("%w: solo se pueden eliminar registros COMPLETED; completa el registro primero", domain.ErrPreconditionFailed)
	}
	return nil
}

// Elapsed tiempo del tramo en curso, solo para mostrar. Cero si no está ACTIVE.
func Elapsed(e *entity.TimeEntry, now time.Time) time.Duration {
	if e == nil || e.Status != entity.TimeEntryActive {
		return 0
	}
	if d := now.Sub(e.SegmentStartedAt); d > 0 {
		return d
	}
	return 0
}

// LiveHours duración acumulada más el tramo en curso. No se persiste.
func LiveHours(e *entity.TimeEntry, now time.Time) decimal.Decimal {
	if e == nil {
		return decimal.Zero
	}
	return e.Duration.Add(HoursOf(Elapsed(e, now)))
}

func setDescription(e *entity.TimeEntry, description string) {
	if description != "" {
		e.Description = description
	}
}
