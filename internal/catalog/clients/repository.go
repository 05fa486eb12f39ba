package clients

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

var ErrNotFound = errors.New("client not found")

// ListRequest filters the paginated catalog listing.
type ListRequest struct {
	Search        string
	Representante string
	Limit         int
	Offset        int
}

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Client, error)
	FindByName(ctx context.Context, nombre, empresa, representante string) (*Client, error)
	List(ctx context.Context, req ListRequest) ([]Client, int, error)
	Suggest(ctx context.Context, query, representante string, limit int) ([]Client, error)
	Create(ctx context.Context, c Client) (int64, error)
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

const clientColumns = "id, nombre_cliente, empresa, representante, correo, telefono, direccion, rfc"

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM cliente WHERE id = $1", clientColumns), id)
	return scanClient(row)
}

// FindByName matches by lowercase name, and company when given. Non-admin
// callers pass their representante so they only see their own clients.
func (r *repository) FindByName(ctx context.Context, nombre, empresa, representante string) (*Client, error) {
	conditions := []string{"LOWER(nombre_cliente) = LOWER($1)"}
	args := []interface{}{nombre}
	if empresa != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(empresa) = LOWER($%d)", len(args)+1))
		args = append(args, empresa)
	}
	if representante != "" {
		conditions = append(conditions, fmt.Sprintf("representante = $%d", len(args)+1))
		args = append(args, representante)
	}
	query := fmt.Sprintf("SELECT %s FROM cliente WHERE %s LIMIT 1", clientColumns, strings.Join(conditions, " AND "))
	return scanClient(r.db.QueryRow(ctx, query, args...))
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Client, int, error) {
	var conditions []string
	var args []interface{}

	if req.Representante != "" {
		conditions = append(conditions, fmt.Sprintf("representante = $%d", len(args)+1))
		args = append(args, req.Representante)
	}
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(nombre_cliente ILIKE $%d OR empresa ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, pattern)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM cliente %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM cliente %s ORDER BY id DESC LIMIT $%d OFFSET $%d",
		clientColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClientFromRows(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *repository) Suggest(ctx context.Context, query, representante string, limit int) ([]Client, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + query + "%"
	conditions := []string{"(nombre_cliente ILIKE $1 OR empresa ILIKE $1)"}
	args := []interface{}{pattern}
	if representante != "" {
		conditions = append(conditions, fmt.Sprintf("representante = $%d", len(args)+1))
		args = append(args, representante)
	}
	sql := fmt.Sprintf("SELECT %s FROM cliente WHERE %s ORDER BY nombre_cliente LIMIT $%d",
		clientColumns, strings.Join(conditions, " AND "), len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClientFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Client) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO cliente (nombre_cliente, empresa, representante, correo, telefono, direccion, rfc)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, c.Nombre, textOrNil(c.Empresa), textOrNil(c.Representante), textOrNil(c.Correo),
		textOrNil(c.Telefono), textOrNil(c.Direccion), textOrNil(c.RFC)).Scan(&id)
	return id, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM cliente WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var empresa, representante, correo, telefono, direccion, rfc pgtype.Text
	err := row.Scan(&c.ID, &c.Nombre, &empresa, &representante, &correo, &telefono, &direccion, &rfc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	assignText(&c.Empresa, empresa)
	assignText(&c.Representante, representante)
	assignText(&c.Correo, correo)
	assignText(&c.Telefono, telefono)
	assignText(&c.Direccion, direccion)
	assignText(&c.RFC, rfc)
	return &c, nil
}

func scanClientFromRows(rows pgx.Rows) (*Client, error) {
	var c Client
	var empresa, representante, correo, telefono, direccion, rfc pgtype.Text
	if err := rows.Scan(&c.ID, &c.Nombre, &empresa, &representante, &correo, &telefono, &direccion, &rfc); err != nil {
		return nil, err
	}
	assignText(&c.Empresa, empresa)
	assignText(&c.Representante, representante)
	assignText(&c.Correo, correo)
	assignText(&c.Telefono, telefono)
	assignText(&c.Direccion, direccion)
	assignText(&c.RFC, rfc)
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
