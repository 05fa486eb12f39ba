package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/poliutech/cotizador/internal/shared"
	"github.com/poliutech/cotizador/internal/view"
)

// Handler wires the login and logout endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager

	templates *view.Engine
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		sessions:  sessions,
		csrf:      csrf,
		templates: templates,
	}
}

// MountRoutes registers the auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.ShowLogin)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
}

// ShowLogin renders the login page. Authenticated sessions go straight to
// the dashboard.
func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil && sess.User() != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK)
}

// HandleLogin authenticates the posted credentials and binds role and
// representante to the session. The form accepts the field aliases the old
// templates used.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	nombre := firstValue(r, "nombre", "username", "usuario", "user")
	password := firstValue(r, "password", "clave", "pass")

	user, err := h.service.Authenticate(r.Context(), nombre, password)
	if err != nil {
		h.logger.Info("login rejected", "nombre", nombre)
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Credenciales inválidas."})
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if sess != nil {
		sess.SetUser(user.Nombre)
		sess.Set("user_id", strconv.FormatInt(user.ID, 10))
		if user.IsAdmin() {
			sess.Set(shared.SessionKeyRole, "admin")
		} else {
			sess.Set(shared.SessionKeyRole, "user")
		}
		sess.Set(shared.SessionKeyRepresentante, user.Representante())
	}
	h.logger.Info("login ok", "nombre", user.Nombre, "admin", user.IsAdmin())

	http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
}

// HandleLogout drops the session.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessions.Destroy(sess)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	w.WriteHeader(status)
	err := h.templates.Render(w, "pages/login.html", view.TemplateData{
		Title:       "Login - Sistema Poliutech",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
	})
	if err != nil {
		h.logger.Error("render login failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func firstValue(r *http.Request, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.PostFormValue(k)); v != "" {
			return v
		}
	}
	return ""
}

// safeNext restricts the post-login redirect to internal paths so ?next=
// cannot become an open redirect.
func safeNext(next string) string {
	if next == "" {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
