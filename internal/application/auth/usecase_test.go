package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iptegra/nexus-api/internal/application/apptest"
	"github.com/iptegra/nexus-api/internal/application/auth"
	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/pkg/jwt"
)

const secret = "test-secret-32-bytes-minimo-xxxx"

func newUseCase(t *testing.T) *auth.AuthUseCase {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3creta"), bcrypt.MinCost)
	require.NoError(t, err)
	store := apptest.NewStore()
	store.AddUser(&entity.User{ID: "u1", CompanyID: "c1", Email: "ana@iptegra.co", PasswordHash: string(hash), Role: "BACKEND", Status: entity.UserStatusActive})
	store.AddUser(&entity.User{ID: "u2", CompanyID: "c1", Email: "luis@iptegra.co", PasswordHash: string(hash), Role: "CEO", Status: entity.UserStatusSuspended})
	return auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "nexus"})
}

func TestLogin_OK(t *testing.T) {
	uc := newUseCase(t)
	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: " Ana@iptegra.co ", Password: "s3creta"})
	require.NoError(t, err)

	id, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "c1", id.CompanyID)
	assert.Equal(t, "BACKEND", id.Role)
	assert.Equal(t, id.ExpiresAt, out.ExpiresAt)
	assert.Equal(t, "u1", out.User.ID)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	uc := newUseCase(t)

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "ana@iptegra.co", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@iptegra.co", Password: "s3creta"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "no revela si el email existe")
}

func TestLogin_UsuarioSuspendido(t *testing.T) {
	uc := newUseCase(t)
	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "luis@iptegra.co", Password: "s3creta"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
