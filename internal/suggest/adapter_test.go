package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedSource blocks each Fetch until the matching gate channel is closed, so
// tests can force responses to arrive out of order.
type gatedSource struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGatedSource() *gatedSource {
	return &gatedSource{gates: make(map[string]chan struct{})}
}

func (s *gatedSource) gate(query string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gates[query]; !ok {
		s.gates[query] = make(chan struct{})
	}
	return s.gates[query]
}

func (s *gatedSource) Fetch(ctx context.Context, field, query string) ([]json.RawMessage, error) {
	<-s.gate(query)
	return []json.RawMessage{json.RawMessage(`{"label":"` + query + `"}`)}, nil
}

func TestLookupDelivers(t *testing.T) {
	src := newGatedSource()
	close(src.gate("acme"))

	a := NewAdapter(src)
	var got []json.RawMessage
	err := a.Lookup(context.Background(), FieldCliente, "acme", func(items []json.RawMessage) {
		got = items
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"label":"acme"}`, string(got[0]))
}

func TestLookupTrimsAndClearsOnEmptyQuery(t *testing.T) {
	fetched := false
	src := SourceFunc(func(ctx context.Context, field, query string) ([]json.RawMessage, error) {
		fetched = true
		return nil, nil
	})

	a := NewAdapter(src)
	delivered := false
	err := a.Lookup(context.Background(), FieldConcepto, "   ", func(items []json.RawMessage) {
		delivered = true
		assert.Empty(t, items)
	})
	require.NoError(t, err)
	assert.True(t, delivered, "empty query must clear the candidate list")
	assert.False(t, fetched, "empty query must not hit the source")
}

func TestStaleResultDiscarded(t *testing.T) {
	src := newGatedSource()
	a := NewAdapter(src)

	type outcome struct {
		query string
		err   error
	}
	results := make(chan outcome, 2)
	var mu sync.Mutex
	var delivered []string

	lookup := func(query string) {
		err := a.Lookup(context.Background(), FieldCliente, query, func(items []json.RawMessage) {
			mu.Lock()
			delivered = append(delivered, query)
			mu.Unlock()
		})
		results <- outcome{query: query, err: err}
	}

	slowGate := src.gate("pin")
	fastGate := src.gate("pintura")

	// issue "pin" first, then "pintura", then let the newer lookup finish
	// first and release the older one afterwards
	go lookup("pin")
	waitInFlight(t, a, FieldCliente, 1)
	go lookup("pintura")
	waitInFlight(t, a, FieldCliente, 2)
	close(fastGate)
	first := <-results
	close(slowGate)
	second := <-results

	byQuery := map[string]error{first.query: first.err, second.query: second.err}
	require.NoError(t, byQuery["pintura"])
	assert.ErrorIs(t, byQuery["pin"], ErrStale)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"pintura"}, delivered)
}

// waitInFlight spins until the field's sequence reaches n, meaning n lookups
// have been issued.
func waitInFlight(t *testing.T, a *Adapter, field string, n uint64) {
	t.Helper()
	for {
		a.mu.Lock()
		seq := a.seqs[field]
		a.mu.Unlock()
		if seq >= n {
			return
		}
		runtime.Gosched()
	}
}

func TestSequencesAreIndependentPerField(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, field, query string) ([]json.RawMessage, error) {
		return []json.RawMessage{json.RawMessage(`{}`)}, nil
	})
	a := NewAdapter(src)

	clienteDelivered := 0
	require.NoError(t, a.Lookup(context.Background(), FieldCliente, "a", func([]json.RawMessage) {
		clienteDelivered++
	}))

	// a lookup on another field must not invalidate the cliente field
	require.NoError(t, a.Lookup(context.Background(), FieldConcepto, "b", func([]json.RawMessage) {}))
	require.NoError(t, a.Lookup(context.Background(), FieldCliente, "c", func([]json.RawMessage) {
		clienteDelivered++
	}))
	assert.Equal(t, 2, clienteDelivered)
}

func TestHTTPSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/conceptos/suggest", r.URL.Path)
		assert.Equal(t, "pintura epóxica", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"label":"Pintura epóxica","precio_unitario":350}]`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, srv.Client())
	items, err := src.Fetch(context.Background(), FieldConcepto, "pintura epóxica")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Contains(t, string(items[0]), "350")
}

func TestHTTPSourceUnknownField(t *testing.T) {
	src := NewHTTPSource("http://localhost:0", nil)
	_, err := src.Fetch(context.Background(), "direccion", "x")
	assert.Error(t, err)
}

func TestHTTPSourceNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, srv.Client())
	_, err := src.Fetch(context.Background(), FieldCliente, "x")
	assert.Error(t, err)
}
