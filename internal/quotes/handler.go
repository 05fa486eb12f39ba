package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/poliutech/cotizador/internal/platform/httpx"
	"github.com/poliutech/cotizador/internal/shared"
	"github.com/poliutech/cotizador/internal/view"
)

const pageSize = 25

// PDFRenderer turns a quote into a printable PDF document.
type PDFRenderer interface {
	RenderQuote(ctx context.Context, q *QuoteWithClient, lines []QuoteLine) ([]byte, error)
}

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	pdf       PDFRenderer
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, pdf PDFRenderer) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		pdf:       pdf,
	}
}

func actorFrom(r *http.Request) Actor {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return Actor{}
	}
	return Actor{
		Username:      sess.User(),
		Representante: shared.Representante(sess),
		Admin:         shared.IsAdmin(sess),
	}
}

// ShowForm renders the quote builder.
func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	mode := h.service.Mode()
	h.render(w, r, "pages/cotizador.html", map[string]any{
		"Zonas":           zoneNames(mode),
		"ZoneTable":       mode.ZoneTable(),
		"ZonaActual":      "",
		"LineDiscount":    mode.HasLineDiscount(),
		"SystemTag":       mode.HasSystemTag(),
		"IVADefault":      h.service.cfg.DefaultTax,
		"EstatusOpciones": Statuses,
	}, http.StatusOK)
}

// Create handles quote submission. The response is always a single JSON
// object: {ok, id, folio} on success, {ok:false, error} on failure.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.JSON(w, http.StatusBadRequest, SubmitResponse{Error: "Formulario inválido"})
		return
	}

	req := ParseSaveRequest(r.PostForm)
	quote, err := h.service.Create(r.Context(), req, actorFrom(r))
	if err != nil {
		h.logger.Error("create quote failed", "error", err)
		httpx.JSON(w, statusOf(err), SubmitResponse{Error: shared.UserSafeMessage(err)})
		return
	}

	httpx.JSON(w, http.StatusOK, SubmitResponse{OK: true, ID: quote.ID, Folio: quote.Folio})
}

// Update handles the edit form, same JSON contract as Create.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, SubmitResponse{Error: "ID inválido"})
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSON(w, http.StatusBadRequest, SubmitResponse{Error: "Formulario inválido"})
		return
	}

	req := ParseSaveRequest(r.PostForm)
	quote, err := h.service.Update(r.Context(), id, req, actorFrom(r))
	if err != nil {
		h.logger.Error("update quote failed", "error", err, "id", id)
		httpx.JSON(w, statusOf(err), SubmitResponse{Error: shared.UserSafeMessage(err)})
		return
	}

	httpx.JSON(w, http.StatusOK, SubmitResponse{OK: true, ID: quote.ID, Folio: quote.Folio})
}

// List renders the paginated quote list, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("p"))
	if page < 1 {
		page = 1
	}

	items, total, err := h.service.List(r.Context(), actorFrom(r), pageSize, (page-1)*pageSize)
	if err != nil {
		h.logger.Error("list quotes failed", "error", err)
		http.Error(w, "No se pudieron cargar las cotizaciones", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/cotizaciones_list.html", map[string]any{
		"Items":      items,
		"Pagination": shared.NewPagination(page, pageSize, total),
	}, http.StatusOK)
}

// Show renders one quote, with the zone pre-extracted from the notes for the
// zone selector.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	qc, lines, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/cotizacion_view.html", map[string]any{
		"Cotizacion": qc,
		"Detalles":   lines,
		"ZonaActual": qc.Zone(),
	}, http.StatusOK)
}

// ShowEditForm renders the builder pre-filled from an existing quote.
func (h *Handler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	qc, lines, ok := h.load(w, r)
	if !ok {
		return
	}
	mode := h.service.Mode()
	h.render(w, r, "pages/cotizador.html", map[string]any{
		"Cotizacion":      qc,
		"Detalles":        lines,
		"ZonaActual":      qc.Zone(),
		"Zonas":           zoneNames(mode),
		"ZoneTable":       mode.ZoneTable(),
		"LineDiscount":    mode.HasLineDiscount(),
		"SystemTag":       mode.HasSystemTag(),
		"IVADefault":      qc.IVAPorc,
		"EstatusOpciones": Statuses,
	}, http.StatusOK)
}

// SearchAPI backs the dashboard's filtered quote table.
func (h *Handler) SearchAPI(w http.ResponseWriter, r *http.Request) {
	req := parseSearchQuery(r)
	items, err := h.service.Search(r.Context(), actorFrom(r), req)
	if err != nil {
		h.logger.Error("search quotes failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Search failed", "no se pudo buscar")
		return
	}

	type row struct {
		ID        int64   `json:"id"`
		Folio     string  `json:"folio"`
		Cliente   string  `json:"cliente"`
		Empresa   string  `json:"empresa"`
		Fecha     string  `json:"fecha"`
		Estatus   Status  `json:"estatus"`
		Total     float64 `json:"total"`
		ExportCSV string  `json:"export_csv"`
		ExportPDF string  `json:"export_pdf"`
	}
	out := make([]row, 0, len(items))
	for _, qc := range items {
		idStr := strconv.FormatInt(qc.ID, 10)
		out = append(out, row{
			ID:        qc.ID,
			Folio:     qc.Folio,
			Cliente:   qc.ClienteNombre,
			Empresa:   qc.ClienteEmpresa,
			Fecha:     qc.Fecha.Format("2006-01-02 15:04"),
			Estatus:   qc.Estatus,
			Total:     qc.Total,
			ExportCSV: "/cotizaciones/" + idStr + "/export.csv",
			ExportPDF: "/cotizaciones/" + idStr + "/export.pdf",
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

// UpdateStatusAPI changes a quote's status inline from the dashboard.
func (h *Handler) UpdateStatusAPI(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "ID inválido"})
		return
	}

	var estatus string
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Estatus string `json:"estatus"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			estatus = body.Estatus
		}
	} else {
		_ = r.ParseForm()
		estatus = r.PostFormValue("estatus")
	}
	status := Status(strings.ToUpper(strings.TrimSpace(estatus)))

	q, changed, err := h.service.UpdateStatus(r.Context(), id, status, actorFrom(r))
	if err != nil {
		if errors.Is(err, shared.ErrInvalidStatus) {
			httpx.JSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Estatus inválido"})
			return
		}
		h.logger.Error("update status failed", "error", err, "id", id)
		httpx.JSON(w, statusOf(err), map[string]any{"ok": false, "error": shared.UserSafeMessage(err)})
		return
	}

	mensaje := "Sin cambios."
	if changed {
		mensaje = "Estatus de la cotización " + q.Folio + " actualizado a " + string(status) + "."
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"folio":   q.Folio,
		"estatus": status,
		"mensaje": mensaje,
	})
}

// BulkDelete removes the selected quotes. Admin only.
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			IDs []int64 `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			ids = body.IDs
		}
	} else {
		_ = r.ParseForm()
		for _, raw := range r.PostForm["ids"] {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
	}

	deleted, err := h.service.Delete(r.Context(), ids, actorFrom(r))
	if err != nil {
		h.logger.Error("bulk delete failed", "error", err)
		httpx.JSON(w, statusOf(err), map[string]any{"error": shared.UserSafeMessage(err)})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"deleted":     len(deleted),
		"skipped":     len(dedupeIDs(ids, maxBulkDelete)) - len(deleted),
		"deleted_ids": deleted,
	})
}

// BulkDeleteFiltered removes every quote visible under the dashboard
// filters. Admin only.
func (h *Handler) BulkDeleteFiltered(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Filters struct {
			Desde   string `json:"desde"`
			Hasta   string `json:"hasta"`
			Estatus string `json:"estatus"`
			Cliente string `json:"cliente"`
		} `json:"filters"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	req := SearchRequest{
		Estatus: strings.TrimSpace(body.Filters.Estatus),
		Cliente: strings.TrimSpace(body.Filters.Cliente),
	}
	if v := strings.TrimSpace(body.Filters.Desde); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.JSON(w, http.StatusBadRequest, map[string]any{"error": "Filtro 'Desde' inválido"})
			return
		}
		req.From = &d
	}
	if v := strings.TrimSpace(body.Filters.Hasta); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.JSON(w, http.StatusBadRequest, map[string]any{"error": "Filtro 'Hasta' inválido"})
			return
		}
		// inclusive end of day
		end := d.Add(24*time.Hour - time.Second)
		req.To = &end
	}

	deleted, err := h.service.DeleteFiltered(r.Context(), req, actorFrom(r))
	if err != nil {
		h.logger.Error("filtered delete failed", "error", err)
		httpx.JSON(w, statusOf(err), map[string]any{"error": shared.UserSafeMessage(err)})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": len(deleted), "deleted_ids": deleted})
}

// ExportPDF renders the printable quote.
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	qc, lines, ok := h.load(w, r)
	if !ok {
		return
	}
	if h.pdf == nil {
		http.Error(w, "Exportación PDF no configurada", http.StatusNotImplemented)
		return
	}

	pdf, err := h.pdf.RenderQuote(r.Context(), qc, lines)
	if err != nil {
		h.logger.Error("render pdf failed", "error", err, "folio", qc.Folio)
		http.Error(w, "No se pudo generar el PDF", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+qc.Folio+`.pdf"`)
	_, _ = w.Write(pdf)
}

// load fetches the quote in the URL and enforces ownership, writing the
// error response itself when it fails.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*QuoteWithClient, []QuoteLine, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return nil, nil, false
	}
	qc, lines, err := h.service.GetWithClient(r.Context(), id, actorFrom(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, "Cotización no encontrada", http.StatusNotFound)
		case errors.Is(err, shared.ErrForbidden):
			http.Error(w, "Acceso denegado", http.StatusForbidden)
		default:
			h.logger.Error("load quote failed", "error", err, "id", id)
			http.Error(w, "Error interno", http.StatusInternalServerError)
		}
		return nil, nil, false
	}
	return qc, lines, true
}

func parseSearchQuery(r *http.Request) SearchRequest {
	qs := r.URL.Query()
	req := SearchRequest{Estatus: strings.TrimSpace(qs.Get("estatus"))}

	if v := qs.Get("fi"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			req.From = &d
		}
	}
	if v := qs.Get("ff"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			req.To = &d
		}
	}
	if v := qs.Get("mmin"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			req.MinTotal = &n
		}
	}
	if v := qs.Get("mmax"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			req.MaxTotal = &n
		}
	}
	return req
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func zoneNames(mode DiscountMode) []string {
	return mode.ZoneNames()
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	username := ""
	if sess != nil {
		username = sess.User()
	}

	w.WriteHeader(status)
	err := h.templates.Render(w, tmpl, view.TemplateData{
		Title:       "Cotizador Poliutech",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Username:    username,
		IsAdmin:     shared.IsAdmin(sess),
		Data:        data,
	})
	if err != nil {
		h.logger.Error("template render failed", "error", err, "template", tmpl)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
