package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poliutech/cotizador/internal/shared"
)

type memRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[int64]User), nextID: 1}
}

func (m *memRepo) FindByName(ctx context.Context, nombre string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Nombre, nombre) {
			found := u
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) Create(ctx context.Context, u User) (int64, error) {
	id := m.nextID
	m.nextID++
	u.ID = id
	m.users[id] = u
	return id, nil
}

func (m *memRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func TestCreateAndAuthenticate(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "Cesar Lopez", "muy-secreto", "user")
	require.NoError(t, err)
	assert.NotEqual(t, "muy-secreto", created.PasswordHash)

	// case-insensitive name match
	u, err := svc.Authenticate(ctx, "cesar lopez", "muy-secreto")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = svc.Authenticate(ctx, "Cesar Lopez", "incorrecta")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nadie", "muy-secreto")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "Rafa", "clave1234", "admin")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "RAFA", "otra-clave", "user")
	assert.Error(t, err)
}

func TestCreateUserNormalizesRole(t *testing.T) {
	svc := NewService(newMemRepo())

	u, err := svc.CreateUser(context.Background(), "Ana", "clave1234", "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Rol)
	assert.True(t, u.IsAdmin())

	u, err = svc.CreateUser(context.Background(), "Beto", "clave1234", "cualquier-cosa")
	require.NoError(t, err)
	assert.Equal(t, "user", u.Rol)
}

func TestRepresentanteIsFirstNameTitleCased(t *testing.T) {
	cases := map[string]string{
		"rafa torres":   "Rafa",
		"CESAR":         "Cesar",
		"  Ana Maria  ": "Ana",
		"ángel":         "Ángel",
		"":              "",
	}
	for nombre, want := range cases {
		u := User{Nombre: nombre}
		assert.Equal(t, want, u.Representante(), "nombre %q", nombre)
	}
}
