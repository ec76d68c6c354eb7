package domain

import (
	"errors"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
// Se envuelven con fmt.Errorf("%w: detalle", ...) para que el mensaje explique qué corregir.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	ErrUnauthenticated    = errors.New("sesión no autenticada")
	ErrUnauthorized       = errors.New("no tienes permiso para realizar esta acción")
	ErrForbidden          = errors.New("acceso denegado")
	ErrPreconditionFailed = errors.New("precondición no cumplida")
	ErrValidation         = errors.New("entrada inválida")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrTransientIO        = errors.New("fallo temporal de comunicación, reintenta")
	ErrBulkFailed         = errors.New("la acción masiva no se aplicó")
)

// Kind clasifica un error para el llamador (discriminador del resultado).
type Kind string

const (
	KindUnauthenticated    Kind = "unauthenticated"
	KindUnauthorized       Kind = "unauthorized"
	KindPreconditionFailed Kind = "precondition_failed"
	KindNotFound           Kind = "not_found"
	KindTransientIO        Kind = "transient_io"
	KindValidation         Kind = "validation"
	KindConflict           Kind = "conflict"
	KindInternal           Kind = "internal"
)

// Retryable indica si la UI puede ofrecer "reintentar".
func (k Kind) Retryable() bool {
	return k == KindTransientIO
}

// KindOf clasifica cualquier error. El orden del switch es la prioridad: un BulkError
// con causas mezcladas se clasifica por la más grave.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return KindUnauthenticated
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden):
		return KindUnauthorized
	case errors.Is(err, ErrPreconditionFailed):
		return KindPreconditionFailed
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrTransientIO):
		return KindTransientIO
	}
	return KindInternal
}

// BulkError lista los ids que fallaron en una acción masiva. Ningún id se aplicó.
type BulkError struct {
	Action    string
	FailedIDs []string
	Causes    map[string]error
}

// NewBulkError construye el error a partir de las causas por id.
func NewBulkError(action string, causes map[string]error) *BulkError {
	ids := make([]string, 0, len(causes))
	for id := range causes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &BulkError{Action: action, FailedIDs: ids, Causes: causes}
}

func (e *BulkError) Error() string {
	var b strings.Builder
	b.WriteString(ErrBulkFailed.Error())
	b.WriteString(" (")
	b.WriteString(e.Action)
	b.WriteString("): fallaron ")
	b.WriteString(strings.Join(e.FailedIDs, ", "))
	if len(e.FailedIDs) > 0 {
		if cause := e.Causes[e.FailedIDs[0]]; cause != nil {
			b.WriteString(": ")
			b.WriteString(cause.Error())
		}
	}
	return b.String()
}

// Unwrap expone ErrBulkFailed y las causas en orden de id, para errors.Is/As.
func (e *BulkError) Unwrap() []error {
	out := make([]error, 0, len(e.FailedIDs)+1)
	for _, id := range e.FailedIDs {
		if cause := e.Causes[id]; cause != nil {
			out = append(out, cause)
		}
	}
	return append(out, ErrBulkFailed)
}
