package concepts

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the catalog pages under /catalogos.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/conceptos", h.List)
	r.Post("/conceptos/import", h.Import)
	r.Get("/conceptos/export", h.ExportCSV)
	r.Post("/conceptos/{id}/delete", h.Delete)
}

// MountAPIRoutes registers the JSON endpoints under /api.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/conceptos/suggest", h.SuggestAPI)
}
