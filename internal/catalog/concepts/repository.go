package concepts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/poliutech/cotizador/internal/platform/db"
)

var ErrNotFound = errors.New("concept not found")

// ListRequest filters the paginated catalog listing.
type ListRequest struct {
	Search string
	Limit  int
	Offset int
}

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Concept, error)
	FindByName(ctx context.Context, nombre string) (*Concept, error)
	List(ctx context.Context, req ListRequest) ([]Concept, int, error)
	Suggest(ctx context.Context, query string, limit int) ([]Concept, error)
	Create(ctx context.Context, c Concept) (int64, error)
	Update(ctx context.Context, c Concept) error
	Delete(ctx context.Context, id int64) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const conceptColumns = "id, nombre_concepto, unidad, precio_unitario, descripcion"

func (r *repository) Get(ctx context.Context, id int64) (*Concept, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM concepto WHERE id = $1", conceptColumns), id)
	return scanConcept(row)
}

func (r *repository) FindByName(ctx context.Context, nombre string) (*Concept, error) {
	query := fmt.Sprintf("SELECT %s FROM concepto WHERE LOWER(nombre_concepto) = LOWER($1) LIMIT 1", conceptColumns)
	return scanConcept(r.db.QueryRow(ctx, query, nombre))
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Concept, int, error) {
	var conditions []string
	var args []interface{}

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("nombre_concepto ILIKE $%d", len(args)+1))
		args = append(args, "%"+req.Search+"%")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM concepto %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM concepto %s ORDER BY nombre_concepto LIMIT $%d OFFSET $%d",
		conceptColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Concept
	for rows.Next() {
		c, err := scanConceptFromRows(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *repository) Suggest(ctx context.Context, query string, limit int) ([]Concept, error) {
	if limit <= 0 {
		limit = 10
	}
	sql := fmt.Sprintf("SELECT %s FROM concepto WHERE nombre_concepto ILIKE $1 ORDER BY nombre_concepto LIMIT $2", conceptColumns)

	rows, err := r.db.Query(ctx, sql, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Concept
	for rows.Next() {
		c, err := scanConceptFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Concept) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO concepto (nombre_concepto, unidad, precio_unitario, descripcion)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, c.Nombre, textOrNil(c.Unidad), c.Precio, textOrNil(c.Descripcion)).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, c Concept) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE concepto SET unidad = $2, precio_unitario = $3, descripcion = $4
		WHERE id = $1
	`, c.ID, textOrNil(c.Unidad), c.Precio, textOrNil(c.Descripcion))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM concepto WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanConcept(row pgx.Row) (*Concept, error) {
	var c Concept
	var unidad, descripcion pgtype.Text
	var precio pgtype.Float8
	err := row.Scan(&c.ID, &c.Nombre, &unidad, &precio, &descripcion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	assignText(&c.Unidad, unidad)
	assignText(&c.Descripcion, descripcion)
	if precio.Valid {
		c.Precio = precio.Float64
	}
	return &c, nil
}

func scanConceptFromRows(rows pgx.Rows) (*Concept, error) {
	var c Concept
	var unidad, descripcion pgtype.Text
	var precio pgtype.Float8
	if err := rows.Scan(&c.ID, &c.Nombre, &unidad, &precio, &descripcion); err != nil {
		return nil, err
	}
	assignText(&c.Unidad, unidad)
	assignText(&c.Descripcion, descripcion)
	if precio.Valid {
		c.Precio = precio.Float64
	}
	return &c, nil
}

func assignText(dest **string, value pgtype.Text) {
	if value.Valid {
		v := value.String
		*dest = &v
	}
}

func textOrNil(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
