package clients

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poliutech/cotizador/internal/catalog/importer"
)

type mockRepository struct {
	clients map[int64]*Client
	nextID  int64

	txError     error
	createError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{clients: make(map[int64]*Client), nextID: 1}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockRepository) FindByName(ctx context.Context, nombre, empresa, representante string) (*Client, error) {
	for _, c := range m.clients {
		if !strings.EqualFold(c.Nombre, nombre) {
			continue
		}
		if empresa != "" && !strings.EqualFold(deref(c.Empresa), empresa) {
			continue
		}
		if representante != "" && deref(c.Representante) != representante {
			continue
		}
		return c, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, req ListRequest) ([]Client, int, error) {
	var out []Client
	for _, c := range m.clients {
		if req.Representante != "" && deref(c.Representante) != req.Representante {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockRepository) Suggest(ctx context.Context, query, representante string, limit int) ([]Client, error) {
	var out []Client
	for _, c := range m.clients {
		if !strings.Contains(strings.ToLower(c.Nombre), strings.ToLower(query)) {
			continue
		}
		if representante != "" && deref(c.Representante) != representante {
			continue
		}
		out = append(out, *c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockRepository) Create(ctx context.Context, c Client) (int64, error) {
	if m.createError != nil {
		return 0, m.createError
	}
	id := m.nextID
	m.nextID++
	c.ID = id
	m.clients[id] = &c
	return id, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.clients[id]; !ok {
		return ErrNotFound
	}
	delete(m.clients, id)
	return nil
}

func strPtr(s string) *string { return &s }

func TestSuggestEmptyQuery(t *testing.T) {
	svc := NewService(newMockRepository())

	out, err := svc.Suggest(context.Background(), "   ", "")
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestSuggestLabelIncludesCompany(t *testing.T) {
	repo := newMockRepository()
	_, err := repo.Create(context.Background(), Client{Nombre: "Acme", Empresa: strPtr("ACME SA")})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), Client{Nombre: "Beta"})
	require.NoError(t, err)

	svc := NewService(repo)
	out, err := svc.Suggest(context.Background(), "acme", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Acme · ACME SA", out[0].Label)

	out, err = svc.Suggest(context.Background(), "beta", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Beta", out[0].Label)
}

func TestSuggestScopedByRepresentante(t *testing.T) {
	repo := newMockRepository()
	_, _ = repo.Create(context.Background(), Client{Nombre: "Norte SA", Representante: strPtr("Carlos")})
	_, _ = repo.Create(context.Background(), Client{Nombre: "Norte Industrial", Representante: strPtr("Laura")})

	svc := NewService(repo)
	out, err := svc.Suggest(context.Background(), "norte", "Carlos")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Norte SA", out[0].Nombre)

	// admin passes an empty representante and sees everything
	out, err = svc.Suggest(context.Background(), "norte", "")
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestFindOrCreateReturnsExisting(t *testing.T) {
	repo := newMockRepository()
	id, _ := repo.Create(context.Background(), Client{Nombre: "Acme", Representante: strPtr("Carlos")})

	svc := NewService(repo)
	got, err := svc.FindOrCreate(context.Background(), Client{Nombre: " acme "}, "Carlos")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Len(t, repo.clients, 1)
}

func TestFindOrCreateInsertsNew(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	got, err := svc.FindOrCreate(context.Background(), Client{Nombre: "Nueva Obra", Empresa: strPtr("Constructora X")}, "Carlos")
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, "Nueva Obra", got.Nombre)
}

func TestFindOrCreateRequiresName(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.FindOrCreate(context.Background(), Client{Nombre: "   "}, "")
	assert.Error(t, err)
}

func TestImportSkipsDuplicatesAndBlankNames(t *testing.T) {
	repo := newMockRepository()
	_, _ = repo.Create(context.Background(), Client{Nombre: "Acme", Representante: strPtr("Carlos")})

	svc := NewService(repo)
	rows := []importer.Row{
		{"nombre": "Acme"},
		{"nombre_cliente": "Beta", "empresa": "Beta SA", "correo": "b@example.com"},
		{"empresa": "sin nombre"},
	}

	res, err := svc.Import(context.Background(), rows, "Carlos")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Skipped)

	created, err := repo.FindByName(context.Background(), "Beta", "", "Carlos")
	require.NoError(t, err)
	assert.Equal(t, "Beta SA", deref(created.Empresa))
	assert.Equal(t, "Carlos", deref(created.Representante))
}

func TestImportReimportIsIdempotent(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	rows := []importer.Row{{"nombre": "Gamma"}}

	res, err := svc.Import(context.Background(), rows, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	res, err = svc.Import(context.Background(), rows, "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, repo.clients, 1)
}
