// Package suggest turns free-text queries into catalog lookups for the quote
// form's type-ahead fields. Responses can come back out of order; the adapter
// numbers every lookup per field and drops results that a newer lookup has
// already superseded, so the candidate list always reflects the latest query.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
)

// Fields the quote form looks up.
const (
	FieldCliente  = "cliente"
	FieldConcepto = "concepto"
)

// ErrStale marks a lookup whose result arrived after a newer lookup for the
// same field was issued. The result was discarded.
var ErrStale = errors.New("suggest: stale result discarded")

// Source fetches suggestion candidates for a field.
type Source interface {
	Fetch(ctx context.Context, field, query string) ([]json.RawMessage, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, field, query string) ([]json.RawMessage, error)

func (f SourceFunc) Fetch(ctx context.Context, field, query string) ([]json.RawMessage, error) {
	return f(ctx, field, query)
}

// Adapter serializes suggestion lookups per field.
type Adapter struct {
	source Source

	mu   sync.Mutex
	seqs map[string]uint64
}

func NewAdapter(source Source) *Adapter {
	return &Adapter{source: source, seqs: make(map[string]uint64)}
}

// Lookup fetches candidates for the query and hands them to deliver. A blank
// query clears the candidate list immediately without hitting the source.
// When a newer lookup for the same field was issued while this one was in
// flight, the result is dropped and ErrStale returned; deliver is only ever
// called with the freshest data.
func (a *Adapter) Lookup(ctx context.Context, field, query string, deliver func([]json.RawMessage)) error {
	query = strings.TrimSpace(query)
	seq := a.next(field)

	if query == "" {
		if a.current(field, seq) {
			deliver([]json.RawMessage{})
		}
		return nil
	}

	items, err := a.source.Fetch(ctx, field, query)
	if !a.current(field, seq) {
		return ErrStale
	}
	if err != nil {
		return err
	}
	deliver(items)
	return nil
}

func (a *Adapter) next(field string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seqs[field]++
	return a.seqs[field]
}

func (a *Adapter) current(field string, seq uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seqs[field] == seq
}
