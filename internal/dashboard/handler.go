package dashboard

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/poliutech/cotizador/internal/dashboard/svg"
	"github.com/poliutech/cotizador/internal/platform/httpx"
	"github.com/poliutech/cotizador/internal/quotes"
	"github.com/poliutech/cotizador/internal/shared"
	"github.com/poliutech/cotizador/internal/view"
)

// recentLimit caps the quote table on the landing page.
const recentLimit = 100

// QuoteLister is the slice of the quote service the landing page needs.
type QuoteLister interface {
	List(ctx context.Context, actor quotes.Actor, limit, offset int) ([]quotes.QuoteWithClient, int, error)
}

type Handler struct {
	logger    *slog.Logger
	service   *Service
	quotes    QuoteLister
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, quoteLister QuoteLister, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		quotes:    quoteLister,
		templates: templates,
		csrf:      csrf,
	}
}

// Index renders the landing page. Aggregate failures degrade to an empty
// dashboard; the page always renders.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	scope := shared.Representante(sess)

	metrics, err := h.service.Metrics(r.Context(), scope)
	if err != nil {
		h.logger.Error("dashboard metrics failed", "error", err)
		metrics = Metrics{Series: []SeriesPoint{}}
	}

	var recent []quotes.QuoteWithClient
	if h.quotes != nil {
		actor := quotes.Actor{
			Username:      usernameOf(sess),
			Representante: scope,
			Admin:         shared.IsAdmin(sess),
		}
		recent, _, err = h.quotes.List(r.Context(), actor, recentLimit, 0)
		if err != nil {
			h.logger.Error("dashboard recent quotes failed", "error", err)
			recent = nil
		}
	}

	h.render(w, r, "pages/dashboard.html", map[string]any{
		"KPIs":         metrics.KPIs,
		"Series":       metrics.Series,
		"Cotizaciones": recent,
		"Chart":        h.chart(metrics.Series),
	})
}

// MetricsAPI serves the monthly series and KPI block as JSON.
func (h *Handler) MetricsAPI(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	metrics, err := h.service.Metrics(r.Context(), shared.Representante(sess))
	if err != nil {
		h.logger.Error("dashboard metrics failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Metrics failed", "no se pudieron calcular las métricas")
		return
	}
	httpx.JSON(w, http.StatusOK, metrics)
}

// StatusBreakdownAPI serves the per-status quote counts as JSON.
func (h *Handler) StatusBreakdownAPI(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	breakdown, err := h.service.StatusBreakdown(r.Context(), shared.Representante(sess))
	if err != nil {
		h.logger.Error("dashboard breakdown failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Breakdown failed", "no se pudo calcular el desglose")
		return
	}
	httpx.JSON(w, http.StatusOK, breakdown)
}

// chart renders the monthly count series as inline SVG. An empty series or a
// renderer error yields no chart.
func (h *Handler) chart(series []SeriesPoint) template.HTML {
	if len(series) == 0 {
		return ""
	}
	values := make([]float64, len(series))
	labels := make([]string, len(series))
	for i, p := range series {
		values[i] = float64(p.Cotizaciones)
		labels[i] = p.Mes
	}
	out, err := svg.Line(0, 0, values, labels, svg.Opts{
		Title:       "Cotizaciones por mes",
		Description: "Número de cotizaciones registradas por mes",
		ShowDots:    true,
	})
	if err != nil {
		h.logger.Warn("dashboard chart render failed", "error", err)
		return ""
	}
	return out
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl string, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	err := h.templates.Render(w, tmpl, view.TemplateData{
		Title:       "Sistema Poliutech",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Username:    usernameOf(sess),
		IsAdmin:     shared.IsAdmin(sess),
		Data:        data,
	})
	if err != nil {
		h.logger.Error("template render failed", "error", err, "template", tmpl)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func usernameOf(sess *shared.Session) string {
	if sess == nil {
		return ""
	}
	return sess.User()
}
