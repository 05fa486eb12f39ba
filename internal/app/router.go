package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/poliutech/cotizador/internal/auth"
	"github.com/poliutech/cotizador/internal/catalog/clients"
	"github.com/poliutech/cotizador/internal/catalog/concepts"
	"github.com/poliutech/cotizador/internal/dashboard"
	"github.com/poliutech/cotizador/internal/observability"
	"github.com/poliutech/cotizador/internal/quotes"
	"github.com/poliutech/cotizador/internal/shared"
	"github.com/poliutech/cotizador/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthHandler      *auth.Handler
	DashboardHandler *dashboard.Handler
	QuotesHandler    *quotes.Handler
	ClientsHandler   *clients.Handler
	ConceptsHandler  *concepts.Handler

	// Dashboard invalidates its cached figures when a quote mutates.
	Dashboard *dashboard.Service
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.AuthHandler.MountRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)
		r.Use(invalidateDashboard(params.Dashboard, params.Metrics))

		params.DashboardHandler.MountRoutes(r)
		params.QuotesHandler.MountRoutes(r)
		r.Route("/catalogos", func(r chi.Router) {
			params.ClientsHandler.MountRoutes(r)
			params.ConceptsHandler.MountRoutes(r)
		})

		r.Route("/api", func(r chi.Router) {
			params.DashboardHandler.MountAPIRoutes(r)
			params.QuotesHandler.MountAPIRoutes(r)
			params.ClientsHandler.MountAPIRoutes(r)
			params.ConceptsHandler.MountAPIRoutes(r)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// invalidateDashboard bumps the cached dashboard figures after a quote
// mutation succeeds. The bump is versioned so concurrent readers never see a
// partially rebuilt value.
func invalidateDashboard(svc *dashboard.Service, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if svc == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			mutating := strings.HasPrefix(r.URL.Path, "/cotizaciones") ||
				strings.HasPrefix(r.URL.Path, "/api/cotizaciones") ||
				strings.HasPrefix(r.URL.Path, "/catalogos/")
			if !mutating {
				next.ServeHTTP(w, r)
				return
			}
			recorder := &mutationRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			if recorder.status < 400 {
				svc.Invalidate(r.Context())
				if !strings.HasPrefix(r.URL.Path, "/catalogos/") {
					metrics.CountQuote(mutationKind(r.URL.Path))
				}
			}
		})
	}
}

type mutationRecorder struct {
	http.ResponseWriter
	status int
}

func (r *mutationRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func mutationKind(path string) string {
	switch {
	case strings.Contains(path, "eliminar") || strings.Contains(path, "delete"):
		return "deleted"
	case strings.Contains(path, "estatus"):
		return "status"
	case strings.Contains(path, "actualizar"):
		return "updated"
	default:
		return "created"
	}
}

// staticCacheHandler wraps a file server with a Cache-Control header.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
