package dashboard

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the landing page.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Index)
}

// MountAPIRoutes registers the JSON endpoints under /api.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/dashboard/metrics", h.MetricsAPI)
	r.Get("/dashboard/status_breakdown", h.StatusBreakdownAPI)
}
