package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"

	"golang.org/x/sync/singleflight"
)

// KPIs is the dashboard indicator block. TotalCatalogo counts the concept
// catalog and is never scoped by representante.
type KPIs struct {
	TotalCotizaciones int     `json:"total_cotizaciones"`
	TotalImporte      float64 `json:"total_importe"`
	TotalCatalogo     int     `json:"total_catalogo"`
}

// Metrics is the /api/dashboard/metrics payload.
type Metrics struct {
	Series []SeriesPoint `json:"series"`
	KPIs   KPIs          `json:"kpis"`
}

// StatusBreakdown is the /api/dashboard/status_breakdown payload. Categories
// come in a fixed order so the chart colors stay stable.
type StatusBreakdown struct {
	Labels      []string  `json:"labels"`
	Counts      []int     `json:"counts"`
	Percentages []float64 `json:"percentages"`
	Total       int       `json:"total"`
}

// breakdownOrder is the fixed category order of the status chart.
var breakdownOrder = []string{"ENVIADA", "PENDIENTE", "GANADA", "PERDIDA"}

// Service computes dashboard aggregates through the versioned cache. Cache
// failures degrade to a direct query, logged but never surfaced.
type Service struct {
	logger *slog.Logger
	repo   Repository
	cache  *Cache
	group  singleflight.Group
}

func NewService(logger *slog.Logger, repo Repository, cache *Cache) *Service {
	return &Service{logger: logger, repo: repo, cache: cache}
}

// Metrics resolves the monthly series and KPI block for the scope.
func (s *Service) Metrics(ctx context.Context, representante string) (Metrics, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.loadMetrics(ctx, representante)
	}

	var m Metrics
	if err := s.fetch(ctx, "dashboard:metrics:"+scopeToken(representante), &m, loader); err != nil {
		return Metrics{}, err
	}
	if m.Series == nil {
		m.Series = []SeriesPoint{}
	}
	return m, nil
}

// StatusBreakdown resolves the quote counts per status for the scope.
func (s *Service) StatusBreakdown(ctx context.Context, representante string) (StatusBreakdown, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.loadBreakdown(ctx, representante)
	}

	var b StatusBreakdown
	if err := s.fetch(ctx, "dashboard:breakdown:"+scopeToken(representante), &b, loader); err != nil {
		return StatusBreakdown{}, err
	}
	return b, nil
}

// Invalidate bumps the cache version after a quote mutation.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump failed", "error", err)
	}
}

// fetch runs the cached lookup, collapsing concurrent callers of the same key
// and degrading to a direct load when Redis is unavailable.
func (s *Service) fetch(ctx context.Context, keyBase string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	key, err := s.cache.BuildKey(ctx, keyBase)
	if err != nil {
		s.logger.Warn("dashboard cache unavailable", "key", keyBase, "error", err)
		return loadInto(ctx, dest, loader)
	}

	raw, err, _ := s.group.Do(key, func() (interface{}, error) {
		var payload json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &payload, loader); err != nil {
			s.logger.Warn("dashboard cache fetch failed", "key", key, "error", err)
			value, err := loader(ctx)
			if err != nil {
				return nil, err
			}
			return json.Marshal(value)
		}
		return []byte(payload), nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

func (s *Service) loadMetrics(ctx context.Context, representante string) (Metrics, error) {
	series, err := s.repo.MonthlySeries(ctx, representante)
	if err != nil {
		return Metrics{}, err
	}
	count, importe, err := s.repo.QuoteTotals(ctx, representante)
	if err != nil {
		return Metrics{}, err
	}
	catalogo, err := s.repo.ConceptCount(ctx)
	if err != nil {
		return Metrics{}, err
	}
	if series == nil {
		series = []SeriesPoint{}
	}
	return Metrics{
		Series: series,
		KPIs: KPIs{
			TotalCotizaciones: count,
			TotalImporte:      importe,
			TotalCatalogo:     catalogo,
		},
	}, nil
}

func (s *Service) loadBreakdown(ctx context.Context, representante string) (StatusBreakdown, error) {
	counts, err := s.repo.StatusCounts(ctx, representante)
	if err != nil {
		return StatusBreakdown{}, err
	}

	b := StatusBreakdown{
		Labels:      breakdownOrder,
		Counts:      make([]int, len(breakdownOrder)),
		Percentages: make([]float64, len(breakdownOrder)),
	}
	for i, label := range breakdownOrder {
		b.Counts[i] = counts[label]
		b.Total += counts[label]
	}
	if b.Total > 0 {
		for i, count := range b.Counts {
			b.Percentages[i] = math.Round(float64(count)*10000/float64(b.Total)) / 100
		}
	}
	return b, nil
}
