package clients

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/poliutech/cotizador/internal/catalog/importer"
	"github.com/poliutech/cotizador/internal/platform/httpx"
	"github.com/poliutech/cotizador/internal/shared"
	"github.com/poliutech/cotizador/internal/suggest"
	"github.com/poliutech/cotizador/internal/view"
)

const pageSize = 25

// maxUpload caps catalog file uploads at 8 MiB.
const maxUpload = 8 << 20

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	suggest   *suggest.Adapter
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		suggest:   suggest.NewAdapter(suggestSource(service)),
	}
}

// suggestSource adapts the catalog service to the lookup adapter. The
// representante scope rides on the request context through the session.
func suggestSource(service *Service) suggest.Source {
	return suggest.SourceFunc(func(ctx context.Context, _ string, query string) ([]json.RawMessage, error) {
		sess := shared.SessionFromContext(ctx)
		out, err := service.Suggest(ctx, query, shared.Representante(sess))
		if err != nil {
			return nil, err
		}
		items := make([]json.RawMessage, 0, len(out))
		for _, s := range out {
			b, err := json.Marshal(s)
			if err != nil {
				return nil, err
			}
			items = append(items, b)
		}
		return items, nil
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	search := r.URL.Query().Get("q")

	items, total, err := h.service.List(r.Context(), ListRequest{
		Search:        search,
		Representante: shared.Representante(sess),
		Limit:         pageSize,
		Offset:        (page - 1) * pageSize,
	})
	if err != nil {
		h.logger.Error("list clients failed", "error", err)
		http.Error(w, "No se pudo cargar el catálogo", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/clientes.html", map[string]any{
		"Clientes":   items,
		"Search":     search,
		"Pagination": shared.NewPagination(page, pageSize, total),
	}, http.StatusOK)
}

// SuggestAPI backs the type-ahead on the quote form. Lookups go through the
// sequence-numbered adapter, keyed per user so one user's burst of keystrokes
// cannot supersede another's; a superseded lookup answers with an empty list.
func (h *Handler) SuggestAPI(w http.ResponseWriter, r *http.Request) {
	field := suggest.FieldCliente
	if sess := shared.SessionFromContext(r.Context()); sess != nil && sess.User() != "" {
		field += "|" + sess.User()
	}

	err := h.suggest.Lookup(r.Context(), field, r.URL.Query().Get("q"), func(items []json.RawMessage) {
		httpx.JSON(w, http.StatusOK, items)
	})
	switch {
	case errors.Is(err, suggest.ErrStale):
		httpx.JSON(w, http.StatusOK, []json.RawMessage{})
	case err != nil:
		h.logger.Error("client suggest failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Suggest failed", "no se pudo consultar el catálogo")
	}
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	file, header, err := r.FormFile("archivo")
	if err != nil {
		h.redirectWithFlash(w, r, "/catalogos/clientes", "error", "Selecciona un archivo CSV o XLSX")
		return
	}
	defer file.Close()

	rows, err := importer.ReadRows(header.Filename, file)
	if err != nil {
		h.logger.Warn("client import rejected", "error", err, "file", header.Filename)
		h.redirectWithFlash(w, r, "/catalogos/clientes", "error", "Formato no soportado, usa CSV o XLSX")
		return
	}

	res, err := h.service.Import(r.Context(), rows, shared.Representante(sess))
	if err != nil {
		h.logger.Error("client import failed", "error", err)
		h.redirectWithFlash(w, r, "/catalogos/clientes", "error", "La importación falló, no se guardó ningún registro")
		return
	}

	h.logger.Info("client import done", "inserted", res.Inserted, "skipped", res.Skipped)
	h.redirectWithFlash(w, r, "/catalogos/clientes", "success",
		"Importados "+strconv.Itoa(res.Inserted)+", omitidos "+strconv.Itoa(res.Skipped))
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	items, _, err := h.service.List(r.Context(), ListRequest{
		Representante: shared.Representante(sess),
		Limit:         10000,
	})
	if err != nil {
		h.logger.Error("export clients failed", "error", err)
		http.Error(w, "No se pudo exportar el catálogo", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="clientes.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"nombre", "empresa", "representante", "correo", "telefono", "direccion", "rfc"})
	for _, c := range items {
		_ = cw.Write([]string{
			c.Nombre,
			deref(c.Empresa),
			deref(c.Representante),
			deref(c.Correo),
			deref(c.Telefono),
			deref(c.Direccion),
			deref(c.RFC),
		})
	}
	cw.Flush()
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete client failed", "error", err, "id", id)
		h.redirectWithFlash(w, r, "/catalogos/clientes", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/catalogos/clientes", "success", "Cliente eliminado")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	w.WriteHeader(status)
	err := h.templates.Render(w, tmpl, view.TemplateData{
		Title:       "Catálogo de clientes",
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

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func usernameOf(sess *shared.Session) string {
	if sess == nil {
		return ""
	}
	return sess.User()
}
