package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	series       []SeriesPoint
	seriesCalls  int
	quoteCount   int
	quoteTotal   float64
	totalsCalls  int
	statuses     map[string]int
	statusCalls  int
	conceptCount int
	err          error
}

func (m *mockRepo) MonthlySeries(ctx context.Context, representante string) ([]SeriesPoint, error) {
	m.seriesCalls++
	return m.series, m.err
}

func (m *mockRepo) QuoteTotals(ctx context.Context, representante string) (int, float64, error) {
	m.totalsCalls++
	return m.quoteCount, m.quoteTotal, m.err
}

func (m *mockRepo) StatusCounts(ctx context.Context, representante string) (map[string]int, error) {
	m.statusCalls++
	return m.statuses, m.err
}

func (m *mockRepo) ConceptCount(ctx context.Context) (int, error) {
	return m.conceptCount, m.err
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	return NewService(slog.New(slog.DiscardHandler), repo, cache)
}

func TestMetricsCachesUntilBump(t *testing.T) {
	repo := &mockRepo{
		series: []SeriesPoint{
			{Mes: "2026-07", Cotizaciones: 3, Total: 4500},
			{Mes: "2026-08", Cotizaciones: 5, Total: 9800.5},
		},
		quoteCount:   8,
		quoteTotal:   14300.5,
		conceptCount: 42,
	}
	svc := newTestService(t, repo)
	ctx := context.Background()

	m, err := svc.Metrics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 8, m.KPIs.TotalCotizaciones)
	assert.InDelta(t, 14300.5, m.KPIs.TotalImporte, 1e-9)
	assert.Equal(t, 42, m.KPIs.TotalCatalogo)
	require.Len(t, m.Series, 2)
	assert.Equal(t, "2026-07", m.Series[0].Mes)
	assert.Equal(t, 1, repo.seriesCalls)

	// second call hits the cache
	_, err = svc.Metrics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.seriesCalls)

	// bump retires the cached key
	svc.Invalidate(ctx)
	repo.quoteCount = 9
	m, err = svc.Metrics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 9, m.KPIs.TotalCotizaciones)
	assert.Equal(t, 2, repo.seriesCalls)
}

func TestMetricsScopesAreCachedSeparately(t *testing.T) {
	repo := &mockRepo{quoteCount: 1}
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Metrics(ctx, "")
	require.NoError(t, err)
	_, err = svc.Metrics(ctx, "Carlos")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.seriesCalls)

	// both scopes now cached
	_, err = svc.Metrics(ctx, "Carlos")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.seriesCalls)
}

func TestMetricsEmptySeriesIsNotNil(t *testing.T) {
	svc := newTestService(t, &mockRepo{})
	m, err := svc.Metrics(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, m.Series)
	assert.Empty(t, m.Series)
}

func TestStatusBreakdownFixedOrder(t *testing.T) {
	repo := &mockRepo{
		statuses: map[string]int{
			"GANADA":    1,
			"PENDIENTE": 2,
			"ENVIADA":   1,
		},
	}
	svc := newTestService(t, repo)

	b, err := svc.StatusBreakdown(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ENVIADA", "PENDIENTE", "GANADA", "PERDIDA"}, b.Labels)
	assert.Equal(t, []int{1, 2, 1, 0}, b.Counts)
	assert.Equal(t, []float64{25, 50, 25, 0}, b.Percentages)
	assert.Equal(t, 4, b.Total)
}

func TestStatusBreakdownEmpty(t *testing.T) {
	svc := newTestService(t, &mockRepo{statuses: map[string]int{}})
	b, err := svc.StatusBreakdown(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, b.Total)
	assert.Equal(t, []float64{0, 0, 0, 0}, b.Percentages)
}

func TestMetricsSurfacesRepositoryErrors(t *testing.T) {
	svc := newTestService(t, &mockRepo{err: errors.New("db down")})
	_, err := svc.Metrics(context.Background(), "")
	assert.Error(t, err)
}

func TestMetricsWithoutRedisFallsThrough(t *testing.T) {
	repo := &mockRepo{quoteCount: 3}
	svc := NewService(slog.New(slog.DiscardHandler), repo, NewCache(nil, 0))

	for i := 0; i < 2; i++ {
		m, err := svc.Metrics(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, 3, m.KPIs.TotalCotizaciones)
	}
	// no cache: every call queries
	assert.Equal(t, 2, repo.seriesCalls)
}
