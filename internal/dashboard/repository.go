package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeriesPoint is one month of quoting activity.
type SeriesPoint struct {
	Mes          string  `json:"mes"`
	Cotizaciones int     `json:"cotizaciones"`
	Total        float64 `json:"total"`
}

type Repository interface {
	// MonthlySeries groups quotes by YYYY-MM, oldest first. Empty
	// representante means no ownership scoping.
	MonthlySeries(ctx context.Context, representante string) ([]SeriesPoint, error)
	// QuoteTotals returns the quote count and summed total in scope.
	QuoteTotals(ctx context.Context, representante string) (int, float64, error)
	// StatusCounts returns quote counts grouped by status in scope.
	StatusCounts(ctx context.Context, representante string) (map[string]int, error)
	// ConceptCount returns the size of the concept catalog. Never scoped.
	ConceptCount(ctx context.Context) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func scopeWhere(representante string) (string, []interface{}) {
	if representante == "" {
		return "", nil
	}
	return "WHERE representante = $1", []interface{}{representante}
}

func (r *repository) MonthlySeries(ctx context.Context, representante string) ([]SeriesPoint, error) {
	where, args := scopeWhere(representante)
	query := fmt.Sprintf(`
		SELECT to_char(fecha, 'YYYY-MM') AS ym, COUNT(id), COALESCE(SUM(total), 0)
		FROM cotizacion
		%s
		GROUP BY ym
		ORDER BY ym
	`, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeriesPoint
	for rows.Next() {
		var p SeriesPoint
		if err := rows.Scan(&p.Mes, &p.Cotizaciones, &p.Total); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) QuoteTotals(ctx context.Context, representante string) (int, float64, error) {
	where, args := scopeWhere(representante)
	var count int
	var total float64
	err := r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(id), COALESCE(SUM(total), 0) FROM cotizacion %s", where),
		args...).Scan(&count, &total)
	return count, total, err
}

func (r *repository) StatusCounts(ctx context.Context, representante string) (map[string]int, error) {
	conditions := []string{}
	var args []interface{}
	if representante != "" {
		conditions = append(conditions, "representante = $1")
		args = append(args, representante)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.db.Query(ctx,
		fmt.Sprintf("SELECT estatus, COUNT(id) FROM cotizacion %s GROUP BY estatus", where),
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var estatus string
		var count int
		if err := rows.Scan(&estatus, &count); err != nil {
			return nil, err
		}
		out[estatus] = count
	}
	return out, rows.Err()
}

func (r *repository) ConceptCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(id) FROM concepto").Scan(&count)
	return count, err
}
