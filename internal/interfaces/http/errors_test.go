package http_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iptegra/nexus-api/internal/domain"
	apphttp "github.com/iptegra/nexus-api/internal/interfaces/http"
)

func TestErrorBody_MapeoPorTipo(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{fmt.Errorf("%w: se requiere delete_request", domain.ErrUnauthorized), http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("%w: solo INTAKE o BACKLOG", domain.ErrPreconditionFailed), http.StatusConflict, "PRECONDITION_FAILED"},
		{fmt.Errorf("%w: solicitud r9", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: horas negativas", domain.ErrValidation), http.StatusBadRequest, "VALIDATION"},
		{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("%w: timeout", domain.ErrTransientIO), http.StatusServiceUnavailable, "TRANSIENT"},
		{errors.New("panic en el driver"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		status, body := apphttp.ErrorBody(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, body.Code, tc.err.Error())
	}
}

func TestErrorBody_TemporalEsReintentable(t *testing.T) {
	_, body := apphttp.ErrorBody(fmt.Errorf("%w: redis", domain.ErrTransientIO))
	assert.True(t, body.Retryable)

	_, body = apphttp.ErrorBody(domain.ErrNotFound)
	assert.False(t, body.Retryable)
}

func TestErrorBody_InternoNoExponeDetalle(t *testing.T) {
	_, body := apphttp.ErrorBody(errors.New("password=hunter2 en el DSN"))
	assert.NotContains(t, body.Message, "hunter2")
	assert.Equal(t, "internal", body.Kind)
}

func TestErrorBody_BulkErrorIncluyeIDs(t *testing.T) {
	err := domain.NewBulkError("delete", map[string]error{
		"r2": fmt.Errorf("%w: estado DONE", domain.ErrPreconditionFailed),
		"r1": fmt.Errorf("%w: solicitud r1", domain.ErrNotFound),
	})
	status, body := apphttp.ErrorBody(err)

	assert.Equal(t, http.StatusConflict, status, "la precondición pesa más que not found")
	assert.Equal(t, []string{"r1", "r2"}, body.FailedIDs)
}
