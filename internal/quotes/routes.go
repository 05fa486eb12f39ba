package quotes

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the quote pages and actions.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/cotizador", h.ShowForm)

	r.Get("/cotizaciones", h.List)
	r.Post("/cotizaciones/crear", h.Create)
	r.Get("/cotizaciones/{id}", h.Show)
	r.Get("/cotizaciones/{id}/editar", h.ShowEditForm)
	r.Post("/cotizaciones/{id}/actualizar", h.Update)
	r.Post("/cotizaciones/bulk-eliminar", h.BulkDelete)
	r.Post("/cotizaciones/bulk-eliminar-filtradas", h.BulkDeleteFiltered)
	r.Get("/cotizaciones/{id}/export.csv", h.ExportCSV)
	r.Get("/cotizaciones/{id}/export.pdf", h.ExportPDF)
}

// MountAPIRoutes registers the JSON endpoints under /api.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/cotizaciones/search", h.SearchAPI)
	r.Post("/cotizaciones/{id}/estatus", h.UpdateStatusAPI)
}
