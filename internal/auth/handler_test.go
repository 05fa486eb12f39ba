package auth_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/poliutech/cotizador/internal/auth"
	"github.com/poliutech/cotizador/internal/shared"
	"github.com/poliutech/cotizador/internal/view"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByName(ctx context.Context, nombre string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Nombre, nombre) {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) Create(ctx context.Context, u auth.User) (int64, error) { return 1, nil }

func (s *stubRepo) List(ctx context.Context) ([]auth.User, error) { return nil, nil }

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	return auth.NewHandler(logger, auth.NewService(repo), templates, sessions, csrf), sessions
}

func postLogin(t *testing.T, handler *auth.Handler, sessions *shared.SessionManager, target string, form url.Values) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.HandleLogin(res, req)
	return res, sess
}

func TestLoginBindsRoleAndRepresentante(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 7, Nombre: "rafa torres", Rol: "user", PasswordHash: hashOf(t, "secreto123")}}
	handler, sessions := newAuthHandler(t, repo)

	form := url.Values{}
	form.Set("usuario", "RAFA TORRES")
	form.Set("password", "secreto123")

	res, sess := postLogin(t, handler, sessions, "/login", form)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
	assert.Equal(t, "rafa torres", sess.User())
	assert.Equal(t, "user", sess.Get(shared.SessionKeyRole))
	assert.Equal(t, "Rafa", sess.Get(shared.SessionKeyRepresentante))
}

func TestLoginAdminHasNoScope(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 1, Nombre: "Admin", Rol: "ADMIN", PasswordHash: hashOf(t, "clave-admin")}}
	handler, sessions := newAuthHandler(t, repo)

	form := url.Values{}
	form.Set("nombre", "admin")
	form.Set("clave", "clave-admin")

	res, sess := postLogin(t, handler, sessions, "/login", form)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "admin", sess.Get(shared.SessionKeyRole))
	assert.True(t, shared.IsAdmin(sess))
	// representante scoping never applies to admins
	assert.Empty(t, shared.Representante(sess))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 7, Nombre: "Rafa", Rol: "user", PasswordHash: hashOf(t, "secreto123")}}
	handler, sessions := newAuthHandler(t, repo)

	form := url.Values{}
	form.Set("nombre", "Rafa")
	form.Set("password", "otra-cosa")

	res, sess := postLogin(t, handler, sessions, "/login", form)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Header().Get("Location"))
	assert.Empty(t, sess.User())
}

func TestLoginNextStaysInternal(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 7, Nombre: "Rafa", Rol: "user", PasswordHash: hashOf(t, "secreto123")}}
	handler, sessions := newAuthHandler(t, repo)

	form := url.Values{}
	form.Set("nombre", "Rafa")
	form.Set("password", "secreto123")

	res, _ := postLogin(t, handler, sessions, "/login?next=/cotizaciones", form)
	assert.Equal(t, "/cotizaciones", res.Header().Get("Location"))

	res, _ = postLogin(t, handler, sessions, "/login?next=https://evil.example", form)
	assert.Equal(t, "/", res.Header().Get("Location"))

	res, _ = postLogin(t, handler, sessions, "/login?next=//evil.example", form)
	assert.Equal(t, "/", res.Header().Get("Location"))
}

func TestLogoutDestroysSession(t *testing.T) {
	handler, sessions := newAuthHandler(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("Rafa")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.HandleLogout(res, req)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Header().Get("Location"))
}
