package clients

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the catalog pages under /catalogos.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/clientes", h.List)
	r.Post("/clientes/import", h.Import)
	r.Get("/clientes/export", h.ExportCSV)
	r.Post("/clientes/{id}/delete", h.Delete)
}

// MountAPIRoutes registers the JSON endpoints under /api.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/clientes/suggest", h.SuggestAPI)
}
