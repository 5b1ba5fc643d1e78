package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Presupuestos-api/internal/application/auth"
	"github.com/jhoicas/Presupuestos-api/internal/application/dto"
	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/internal/infrastructure/memory"
	"github.com/jhoicas/Presupuestos-api/pkg/jwt"
)

const testSecret = "test-secret-32-bytes-long-enough!"

func newUseCase() *auth.AuthUseCase {
	repo := memory.NewUserRepository(memory.NewStore())
	return auth.NewAuthUseCase(repo, auth.JWTConfig{Secret: testSecret, ExpMinutes: 15, Issuer: "presupuestos-api"})
}

func TestRegisterUser_RolPorDefecto(t *testing.T) {
	uc := newUseCase()
	out, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "area@demo.com", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleArea, out.Role)
	assert.Equal(t, "area@demo.com", out.Name)
	assert.Equal(t, "active", out.Status)
}

func TestRegisterUser_Errores(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()

	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "x@demo.com", Password: "secreto123", Role: "gerente"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "x@demo.com", Password: "secreto123"})
	require.NoError(t, err)
	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "x@demo.com", Password: "otraclave1"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "fin@demo.com", Password: "secreto123", Role: entity.RoleFinanzas})
	require.NoError(t, err)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "fin@demo.com", Password: "secreto123"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Token)
	userID, role, err := jwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, userID)
	assert.Equal(t, entity.RoleFinanzas, role)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "fin@demo.com", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@demo.com", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
