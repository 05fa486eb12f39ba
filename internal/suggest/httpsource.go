package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// endpoint per lookup field.
var defaultPaths = map[string]string{
	FieldCliente:  "/api/clientes/suggest",
	FieldConcepto: "/api/conceptos/suggest",
}

// HTTPSource fetches candidates from the suggest endpoints.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	paths   map[string]string
}

func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSource{baseURL: baseURL, client: client, paths: defaultPaths}
}

func (s *HTTPSource) Fetch(ctx context.Context, field, query string) ([]json.RawMessage, error) {
	path, ok := s.paths[field]
	if !ok {
		return nil, fmt.Errorf("suggest: unknown field %q", field)
	}

	u := s.baseURL + path + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("suggest: fetch %s: %w", field, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suggest: fetch %s: status %d", field, resp.StatusCode)
	}

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("suggest: decode %s: %w", field, err)
	}
	return items, nil
}
