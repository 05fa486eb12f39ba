package concepts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poliutech/cotizador/internal/catalog/importer"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Concept, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Concept, int, error) {
	return s.repo.List(ctx, req)
}

// Suggest returns up to 10 matches for the type-ahead. A blank query yields
// an empty list without a catalog lookup.
func (s *Service) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Suggestion{}, nil
	}
	matches, err := s.repo.Suggest(ctx, query, 10)
	if err != nil {
		return nil, fmt.Errorf("suggest concepts: %w", err)
	}
	out := make([]Suggestion, 0, len(matches))
	for _, c := range matches {
		out = append(out, c.Suggest())
	}
	return out, nil
}

// FindOrCreate returns the concept with the given name, creating it when the
// quote form introduces a concept the catalog has not seen.
func (s *Service) FindOrCreate(ctx context.Context, c Concept) (*Concept, error) {
	nombre := strings.TrimSpace(c.Nombre)
	if nombre == "" {
		return nil, errors.New("concepts: nombre required")
	}
	existing, err := s.repo.FindByName(ctx, nombre)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find concept: %w", err)
	}
	c.Nombre = nombre
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create concept: %w", err)
	}
	c.ID = id
	return &c, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ImportResult summarizes a catalog upload.
type ImportResult struct {
	Inserted int `json:"insertados"`
	Skipped  int `json:"omitidos"`
}

// Import loads rows from an uploaded price list. Nameless rows and rows whose
// concept name already exists are skipped.
func (s *Service) Import(ctx context.Context, rows []importer.Row) (ImportResult, error) {
	var res ImportResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, row := range rows {
			nombre := row.Get("nombre_concepto", "nombre", "concepto")
			if nombre == "" {
				res.Skipped++
				continue
			}
			_, err := repo.FindByName(ctx, nombre)
			if err == nil {
				res.Skipped++
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("lookup %q: %w", nombre, err)
			}
			c := Concept{
				Nombre:      nombre,
				Unidad:      optional(row.Get("unidad")),
				Precio:      row.Price("precio_unitario", "precio"),
				Descripcion: optional(row.Get("descripcion")),
			}
			if _, err := repo.Create(ctx, c); err != nil {
				return fmt.Errorf("insert %q: %w", nombre, err)
			}
			res.Inserted++
		}
		return nil
	})
	return res, err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
