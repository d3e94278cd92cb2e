package service

import (
	"context"
	"testing"

	"tiendapos/internal/config"
	"tiendapos/internal/dto"
	"tiendapos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newFakeUsuarioRepo() *fakeUsuarioRepo {
	return &fakeUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *fakeUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.usuarios[u.ID] = u
	return nil
}

func (r *fakeUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Username == username && u.Activo {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		if u.Activo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUsuarioRepo) ListAll(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.usuarios[u.ID] = u
	return nil
}

func (r *fakeUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if u, ok := r.usuarios[id]; ok {
		u.Activo = false
	}
	return nil
}

func (r *fakeUsuarioRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	if u, ok := r.usuarios[id]; ok {
		u.Activo = true
	}
	return nil
}

func authTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
}

func seedUsuario(t *testing.T, repo *fakeUsuarioRepo, username, password, rol string) *model.Usuario {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.Usuario{
		Username:     username,
		Nombre:       "Test User",
		PasswordHash: string(hash),
		Rol:          rol,
		Activo:       true,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestLoginOK(t *testing.T) {
	repo := newFakeUsuarioRepo()
	seedUsuario(t, repo, "cajero1", "secreta123", "cajero")
	svc := NewAuthService(repo, authTestConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "cajero1", Password: "secreta123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "cajero", resp.User.Rol)
}

func TestLoginPasswordIncorrecta(t *testing.T) {
	repo := newFakeUsuarioRepo()
	seedUsuario(t, repo, "cajero1", "secreta123", "cajero")
	svc := NewAuthService(repo, authTestConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "cajero1", Password: "otra"})
	assert.EqualError(t, err, "credenciales invalidas")
}

func TestLoginUsuarioInactivo(t *testing.T) {
	repo := newFakeUsuarioRepo()
	u := seedUsuario(t, repo, "cajero1", "secreta123", "cajero")
	require.NoError(t, repo.SoftDelete(context.Background(), u.ID))
	svc := NewAuthService(repo, authTestConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "cajero1", Password: "secreta123"})
	assert.EqualError(t, err, "credenciales invalidas")
}

func TestRefreshRoundTrip(t *testing.T) {
	repo := newFakeUsuarioRepo()
	seedUsuario(t, repo, "super1", "secreta123", "supervisor")
	svc := NewAuthService(repo, authTestConfig())
	ctx := context.Background()

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "super1", Password: "secreta123"})
	require.NoError(t, err)

	renewed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, renewed.AccessToken)
	assert.Equal(t, "super1", renewed.User.Username)
}

func TestRefreshRechazaTokenBasura(t *testing.T) {
	svc := NewAuthService(newFakeUsuarioRepo(), authTestConfig())

	_, err := svc.Refresh(context.Background(), "no-es-un-jwt")
	assert.Error(t, err)
}

func TestRefreshRechazaUsuarioDesactivado(t *testing.T) {
	repo := newFakeUsuarioRepo()
	u := seedUsuario(t, repo, "cajero1", "secreta123", "cajero")
	svc := NewAuthService(repo, authTestConfig())
	ctx := context.Background()

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "cajero1", Password: "secreta123"})
	require.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, u.ID))

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.EqualError(t, err, "usuario no encontrado o inactivo")
}

func TestCrearYActualizarUsuario(t *testing.T) {
	repo := newFakeUsuarioRepo()
	svc := NewAuthService(repo, authTestConfig())
	ctx := context.Background()

	tienda := 2
	creado, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Username: "nuevo", Nombre: "Nuevo Cajero", Password: "password123",
		Rol: "cajero", TiendaID: &tienda,
	})
	require.NoError(t, err)
	assert.True(t, creado.Activo)
	require.NotNil(t, creado.TiendaID)
	assert.Equal(t, 2, *creado.TiendaID)

	id, err := uuid.Parse(creado.ID)
	require.NoError(t, err)

	actualizado, err := svc.ActualizarUsuario(ctx, id, dto.ActualizarUsuarioRequest{Rol: "supervisor"})
	require.NoError(t, err)
	assert.Equal(t, "supervisor", actualizado.Rol)
	assert.Equal(t, "Nuevo Cajero", actualizado.Nombre, "los campos no enviados se conservan")
}
