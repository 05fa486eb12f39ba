package concepts

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poliutech/cotizador/internal/catalog/importer"
)

type mockRepository struct {
	concepts map[int64]*Concept
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{concepts: make(map[int64]*Concept), nextID: 1}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Concept, error) {
	c, ok := m.concepts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockRepository) FindByName(ctx context.Context, nombre string) (*Concept, error) {
	for _, c := range m.concepts {
		if strings.EqualFold(c.Nombre, nombre) {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, req ListRequest) ([]Concept, int, error) {
	var out []Concept
	for _, c := range m.concepts {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockRepository) Suggest(ctx context.Context, query string, limit int) ([]Concept, error) {
	var out []Concept
	for _, c := range m.concepts {
		if strings.Contains(strings.ToLower(c.Nombre), strings.ToLower(query)) {
			out = append(out, *c)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockRepository) Create(ctx context.Context, c Concept) (int64, error) {
	id := m.nextID
	m.nextID++
	c.ID = id
	m.concepts[id] = &c
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, c Concept) error {
	if _, ok := m.concepts[c.ID]; !ok {
		return ErrNotFound
	}
	m.concepts[c.ID] = &c
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.concepts[id]; !ok {
		return ErrNotFound
	}
	delete(m.concepts, id)
	return nil
}

func strPtr(s string) *string { return &s }

func TestSuggestEmptyQuery(t *testing.T) {
	svc := NewService(newMockRepository())
	out, err := svc.Suggest(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestSuggestCarriesPriceAndUnit(t *testing.T) {
	repo := newMockRepository()
	_, _ = repo.Create(context.Background(), Concept{
		Nombre:      "Pintura epóxica",
		Unidad:      strPtr("m2"),
		Precio:      350,
		Descripcion: strPtr("Aplicación a dos manos"),
	})

	svc := NewService(repo)
	out, err := svc.Suggest(context.Background(), "pintura")
	require.NoError(t, err)
	require.Len(t, out, 1)

	s := out[0]
	assert.Equal(t, "Pintura epóxica", s.Label)
	assert.Equal(t, "m2", s.Unidad)
	assert.Equal(t, 350.0, s.Precio)
	assert.Equal(t, "Aplicación a dos manos", s.Descripcion)
}

func TestFindOrCreateReusesCatalogEntry(t *testing.T) {
	repo := newMockRepository()
	id, _ := repo.Create(context.Background(), Concept{Nombre: "Sellado de juntas", Precio: 120})

	svc := NewService(repo)
	got, err := svc.FindOrCreate(context.Background(), Concept{Nombre: "sellado de juntas", Precio: 999})
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	// the catalog price wins over whatever the form carried
	assert.Equal(t, 120.0, got.Precio)
	assert.Len(t, repo.concepts, 1)
}

func TestFindOrCreateInsertsNewConcept(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	got, err := svc.FindOrCreate(context.Background(), Concept{Nombre: "Impermeabilización", Precio: 80})
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Len(t, repo.concepts, 1)
}

func TestImportNormalizesPrices(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	rows := []importer.Row{
		{"nombre_concepto": "Pintura", "unidad": "m2", "precio_unitario": "$1,250.50"},
		{"concepto": "Sellador", "precio": "no-numerico"},
		{"unidad": "pz"},
	}

	res, err := svc.Import(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Skipped)

	c, err := repo.FindByName(context.Background(), "Pintura")
	require.NoError(t, err)
	assert.Equal(t, 1250.50, c.Precio)

	c, err = repo.FindByName(context.Background(), "Sellador")
	require.NoError(t, err)
	assert.Zero(t, c.Precio)
}

func TestImportSkipsExistingNames(t *testing.T) {
	repo := newMockRepository()
	_, _ = repo.Create(context.Background(), Concept{Nombre: "Pintura"})
	svc := NewService(repo)

	res, err := svc.Import(context.Background(), []importer.Row{{"nombre_concepto": "PINTURA"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
}
