package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poliutech/cotizador/internal/catalog/importer"
)

// Service wraps catalog business rules over the repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Client, int, error) {
	return s.repo.List(ctx, req)
}

// Suggest resolves autocomplete candidates. An empty trimmed query is a
// no-op: it returns no candidates and issues no lookup.
func (s *Service) Suggest(ctx context.Context, query, representante string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Suggestion{}, nil
	}
	found, err := s.repo.Suggest(ctx, query, representante, 10)
	if err != nil {
		return nil, err
	}
	out := make([]Suggestion, 0, len(found))
	for _, c := range found {
		out = append(out, c.Suggest())
	}
	return out, nil
}

// FindOrCreate returns the existing client matching name/company within the
// representante scope, creating it when missing.
func (s *Service) FindOrCreate(ctx context.Context, c Client, representante string) (*Client, error) {
	nombre := strings.TrimSpace(c.Nombre)
	if nombre == "" {
		return nil, errors.New("clients: nombre required")
	}
	existing, err := s.repo.FindByName(ctx, nombre, derefOr(c.Empresa, ""), representante)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find client: %w", err)
	}
	c.Nombre = nombre
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
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

// Import loads rows from an uploaded catalog file. Rows without a name and
// rows whose name already exists in the representante scope are skipped, so
// re-uploading the same file is harmless.
func (s *Service) Import(ctx context.Context, rows []importer.Row, representante string) (ImportResult, error) {
	var res ImportResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, row := range rows {
			nombre := row.Get("nombre", "nombre_cliente")
			if nombre == "" {
				res.Skipped++
				continue
			}
			_, err := repo.FindByName(ctx, nombre, row.Get("empresa"), representante)
			if err == nil {
				res.Skipped++
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("lookup %q: %w", nombre, err)
			}
			c := Client{
				Nombre:        nombre,
				Empresa:       optional(row.Get("empresa")),
				Representante: optional(representante),
				Correo:        optional(row.Get("correo", "email")),
				Telefono:      optional(row.Get("telefono")),
				Direccion:     optional(row.Get("direccion")),
				RFC:           optional(row.Get("rfc")),
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

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
