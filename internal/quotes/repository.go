package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/poliutech/cotizador/internal/platform/db"
)

var ErrNotFound = errors.New("quote not found")

// SearchRequest filters the quote search API. Empty fields do not filter.
type SearchRequest struct {
	Representante string
	Estatus       string
	From          *time.Time
	To            *time.Time
	MinTotal      *float64
	MaxTotal      *float64
	Cliente       string
	Limit         int
}

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	Get(ctx context.Context, id int64) (*Quote, error)
	GetWithClient(ctx context.Context, id int64) (*QuoteWithClient, error)
	Lines(ctx context.Context, quoteID int64) ([]QuoteLine, error)
	List(ctx context.Context, representante string, limit, offset int) ([]QuoteWithClient, int, error)
	Search(ctx context.Context, req SearchRequest) ([]QuoteWithClient, error)
	SearchIDs(ctx context.Context, req SearchRequest) ([]int64, error)

	Create(ctx context.Context, q *Quote) (int64, error)
	CreateLine(ctx context.Context, line *QuoteLine) error
	Update(ctx context.Context, q *Quote) error
	ReplaceLines(ctx context.Context, quoteID int64, lines []QuoteLine) error
	UpdateStatus(ctx context.Context, id int64, status Status, resetReminder bool) error
	SetLastWhatsApp(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, ids []int64) ([]int64, error)

	StalePending(ctx context.Context, olderThan time.Time) ([]Quote, error)

	ListFolios(ctx context.Context, prefix string) ([]string, error)
	FolioExists(ctx context.Context, folio string) (bool, error)
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

const quoteColumns = "id, folio, cliente_id, fecha, estatus, subtotal, descuento_total, iva_porc, iva_monto, total, notas, last_whatsapp_at, representante"

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM cotizacion WHERE id = $1", quoteColumns), id)
	return scanQuote(row)
}

func (r *repository) GetWithClient(ctx context.Context, id int64) (*QuoteWithClient, error) {
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(cl.nombre_cliente, ''), COALESCE(cl.empresa, '')
		FROM cotizacion c
		LEFT JOIN cliente cl ON cl.id = c.cliente_id
		WHERE c.id = $1
	`, prefixed(quoteColumns, "c"))

	var qc QuoteWithClient
	if err := scanQuoteInto(r.db.QueryRow(ctx, query, id), &qc.Quote, &qc.ClienteNombre, &qc.ClienteEmpresa); err != nil {
		return nil, err
	}
	return &qc, nil
}

func (r *repository) Lines(ctx context.Context, quoteID int64) ([]QuoteLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, cotizacion_id, concepto_id, nombre_concepto, unidad, cantidad, precio_unitario, descuento_pct, sistema, descripcion, subtotal
		FROM cotizacion_detalle
		WHERE cotizacion_id = $1
		ORDER BY id
	`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QuoteLine
	for rows.Next() {
		var l QuoteLine
		var conceptoID pgtype.Int8
		var unidad, sistema, descripcion pgtype.Text
		if err := rows.Scan(&l.ID, &l.QuoteID, &conceptoID, &l.Nombre, &unidad, &l.Cantidad, &l.Precio, &l.Descuento, &sistema, &descripcion, &l.Subtotal); err != nil {
			return nil, err
		}
		if conceptoID.Valid {
			v := conceptoID.Int64
			l.ConceptoID = &v
		}
		l.Unidad = unidad.String
		l.Descripcion = descripcion.String
		if sistema.Valid && sistema.String != "" {
			v := sistema.String
			l.Sistema = &v
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, representante string, limit, offset int) ([]QuoteWithClient, int, error) {
	var conditions []string
	var args []interface{}
	if representante != "" {
		conditions = append(conditions, fmt.Sprintf("c.representante = $%d", len(args)+1))
		args = append(args, representante)
	}
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM cotizacion c %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s, COALESCE(cl.nombre_cliente, ''), COALESCE(cl.empresa, '')
		FROM cotizacion c
		LEFT JOIN cliente cl ON cl.id = c.cliente_id
		%s
		ORDER BY c.fecha DESC
		LIMIT $%d OFFSET $%d
	`, prefixed(quoteColumns, "c"), whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	out, err := r.queryQuotesWithClient(ctx, query, args...)
	return out, total, err
}

func (r *repository) Search(ctx context.Context, req SearchRequest) ([]QuoteWithClient, error) {
	whereClause, args := buildSearchWhere(req)
	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(cl.nombre_cliente, ''), COALESCE(cl.empresa, '')
		FROM cotizacion c
		LEFT JOIN cliente cl ON cl.id = c.cliente_id
		%s
		ORDER BY c.fecha DESC
		LIMIT $%d
	`, prefixed(quoteColumns, "c"), whereClause, len(args)+1)
	args = append(args, limit)
	return r.queryQuotesWithClient(ctx, query, args...)
}

func (r *repository) SearchIDs(ctx context.Context, req SearchRequest) ([]int64, error) {
	whereClause, args := buildSearchWhere(req)
	query := fmt.Sprintf(`
		SELECT c.id
		FROM cotizacion c
		LEFT JOIN cliente cl ON cl.id = c.cliente_id
		%s
		ORDER BY c.fecha DESC
	`, whereClause)
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, req.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func buildSearchWhere(req SearchRequest) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	add := func(cond string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, len(args)+1))
		args = append(args, value)
	}

	if req.Representante != "" {
		add("c.representante = $%d", req.Representante)
	}
	if req.Estatus != "" {
		add("c.estatus = $%d", req.Estatus)
	}
	if req.From != nil {
		add("c.fecha >= $%d", *req.From)
	}
	if req.To != nil {
		add("c.fecha <= $%d", *req.To)
	}
	if req.MinTotal != nil {
		add("c.total >= $%d", *req.MinTotal)
	}
	if req.MaxTotal != nil {
		add("c.total <= $%d", *req.MaxTotal)
	}
	if req.Cliente != "" {
		pattern := "%" + strings.ToLower(req.Cliente) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(cl.nombre_cliente) LIKE $%d OR LOWER(cl.empresa) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, pattern)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (r *repository) Create(ctx context.Context, q *Quote) (int64, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO cotizacion (folio, cliente_id, fecha, estatus, subtotal, descuento_total, iva_porc, iva_monto, total, notas, last_whatsapp_at, representante)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, q.Folio, q.ClienteID, q.Fecha, q.Estatus, q.Subtotal, q.DescuentoTotal, q.IVAPorc, q.IVAMonto, q.Total,
		q.Notas, q.LastWhatsAppAt, q.Representante).Scan(&q.ID)
	return q.ID, err
}

func (r *repository) CreateLine(ctx context.Context, line *QuoteLine) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO cotizacion_detalle (cotizacion_id, concepto_id, nombre_concepto, unidad, cantidad, precio_unitario, descuento_pct, sistema, descripcion, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, line.QuoteID, line.ConceptoID, line.Nombre, line.Unidad, line.Cantidad, line.Precio, line.Descuento, line.Sistema, line.Descripcion, line.Subtotal).Scan(&line.ID)
}

func (r *repository) Update(ctx context.Context, q *Quote) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE cotizacion
		SET cliente_id = $2, estatus = $3, subtotal = $4, descuento_total = $5, iva_porc = $6, iva_monto = $7, total = $8, notas = $9, representante = $10
		WHERE id = $1
	`, q.ID, q.ClienteID, q.Estatus, q.Subtotal, q.DescuentoTotal, q.IVAPorc, q.IVAMonto, q.Total, q.Notas, q.Representante)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceLines(ctx context.Context, quoteID int64, lines []QuoteLine) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM cotizacion_detalle WHERE cotizacion_id = $1", quoteID); err != nil {
		return err
	}
	for i := range lines {
		lines[i].QuoteID = quoteID
		if err := r.CreateLine(ctx, &lines[i]); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatus changes the status. Returning a quote to PENDIENTE clears the
// reminder timestamp so its reminder cycle starts over.
func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status, resetReminder bool) error {
	var tag pgconn.CommandTag
	var err error
	if resetReminder {
		tag, err = r.db.Exec(ctx, "UPDATE cotizacion SET estatus = $2, last_whatsapp_at = NULL WHERE id = $1", id, status)
	} else {
		tag, err = r.db.Exec(ctx, "UPDATE cotizacion SET estatus = $2 WHERE id = $1", id, status)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetLastWhatsApp(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, "UPDATE cotizacion SET last_whatsapp_at = $2 WHERE id = $1", id, at)
	return err
}

// Delete removes quotes and their lines, returning the ids actually deleted.
func (r *repository) Delete(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if _, err := r.db.Exec(ctx, "DELETE FROM cotizacion_detalle WHERE cotizacion_id = ANY($1)", ids); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, "DELETE FROM cotizacion WHERE id = ANY($1) RETURNING id", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deleted []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		deleted = append(deleted, id)
	}
	return deleted, rows.Err()
}

// StalePending returns PENDIENTE quotes whose last reminder (or creation,
// when none was ever sent) is older than the cutoff.
func (r *repository) StalePending(ctx context.Context, olderThan time.Time) ([]Quote, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM cotizacion
		WHERE estatus = 'PENDIENTE' AND COALESCE(last_whatsapp_at, fecha) < $1
		ORDER BY fecha
	`, quoteColumns), olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		var q Quote
		if err := scanQuoteInto(rows, &q); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *repository) ListFolios(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.Query(ctx, "SELECT folio FROM cotizacion WHERE folio LIKE $1", prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var folio string
		if err := rows.Scan(&folio); err != nil {
			return nil, err
		}
		out = append(out, folio)
	}
	return out, rows.Err()
}

func (r *repository) FolioExists(ctx context.Context, folio string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM cotizacion WHERE folio = $1)", folio).Scan(&exists)
	return exists, err
}

func (r *repository) queryQuotesWithClient(ctx context.Context, query string, args ...interface{}) ([]QuoteWithClient, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QuoteWithClient
	for rows.Next() {
		var qc QuoteWithClient
		if err := scanQuoteInto(rows, &qc.Quote, &qc.ClienteNombre, &qc.ClienteEmpresa); err != nil {
			return nil, err
		}
		out = append(out, qc)
	}
	return out, rows.Err()
}

// prefixed qualifies each column in a comma-separated list with a table
// alias.
func prefixed(columns, alias string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	if err := scanQuoteInto(row, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func scanQuoteInto(row scannable, q *Quote, extra ...any) error {
	var clienteID pgtype.Int8
	var notas, representante pgtype.Text
	var lastWA pgtype.Timestamptz

	dest := []any{&q.ID, &q.Folio, &clienteID, &q.Fecha, &q.Estatus, &q.Subtotal, &q.DescuentoTotal, &q.IVAPorc, &q.IVAMonto, &q.Total, &notas, &lastWA, &representante}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if clienteID.Valid {
		v := clienteID.Int64
		q.ClienteID = &v
	}
	if notas.Valid {
		v := notas.String
		q.Notas = &v
	}
	if representante.Valid && representante.String != "" {
		v := representante.String
		q.Representante = &v
	}
	if lastWA.Valid {
		v := lastWA.Time
		q.LastWhatsAppAt = &v
	}
	return nil
}
