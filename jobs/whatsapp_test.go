package jobs

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWhatsApp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"whatsapp:+5215512345678", "whatsapp:+5215512345678"},
		{"+5215512345678", "whatsapp:+5215512345678"},
		{"5215512345678", "whatsapp:+5215512345678"},
		{"55 1234 5678", "whatsapp:+525512345678"},
		{"(55) 1234-5678", "whatsapp:+525512345678"},
		{"  +34600111222 ", "whatsapp:+34600111222"},
		{"", ""},
		{"sin numero", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeWhatsApp(tc.in), "input %q", tc.in)
	}
}

func TestSendAdminHitsTwilioEndpoint(t *testing.T) {
	var got capturedMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got.path = r.URL.Path
		got.from = r.PostFormValue("From")
		got.to = r.PostFormValue("To")
		got.body = r.PostFormValue("Body")
		got.user, got.pass, _ = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(slog.New(slog.DiscardHandler), WhatsAppConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		From:       "whatsapp:+5215500000000",
		Admins:     []string{"+5215511111111", "+5215522222222"},
		BaseURL:    srv.URL,
	})

	require.NoError(t, sender.SendAdmin(context.Background(), "hola"))
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", got.path)
	assert.Equal(t, "whatsapp:+5215500000000", got.from)
	assert.Equal(t, "whatsapp:+5215511111111", got.to)
	assert.Equal(t, "hola", got.body)
	assert.Equal(t, "AC123", got.user)
	assert.Equal(t, "token", got.pass)
}

type capturedMessage struct {
	path, from, to, body string
	user, pass           string
}

func TestSendAdminSkipsWithoutConfig(t *testing.T) {
	sender := NewWhatsAppSender(slog.New(slog.DiscardHandler), WhatsAppConfig{})
	assert.False(t, sender.Enabled())
	assert.NoError(t, sender.SendAdmin(context.Background(), "hola"))
}

func TestSendAdminSurfacesProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"code": 20003}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(slog.New(slog.DiscardHandler), WhatsAppConfig{
		AccountSID: "AC123",
		AuthToken:  "bad",
		From:       "whatsapp:+5215500000000",
		Admins:     []string{"+5215511111111"},
		BaseURL:    srv.URL,
	})
	assert.Error(t, sender.SendAdmin(context.Background(), "hola"))
}

func TestSendAllReachesEveryAdmin(t *testing.T) {
	var tos []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		tos = append(tos, r.PostFormValue("To"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(slog.New(slog.DiscardHandler), WhatsAppConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		From:       "whatsapp:+5215500000000",
		Admins:     []string{"+5215511111111", "5215522222222"},
		BaseURL:    srv.URL,
	})

	require.NoError(t, sender.SendAll(context.Background(), "hola"))
	assert.Equal(t, []string{"whatsapp:+5215511111111", "whatsapp:+5215522222222"}, tos)
}
