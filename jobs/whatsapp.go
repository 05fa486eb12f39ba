package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WhatsAppConfig configures the Twilio-backed WhatsApp sender. With an
// incomplete config the sender logs and skips; notifications never fail the
// action that triggered them.
type WhatsAppConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	Admins     []string
	BaseURL    string
}

// WhatsAppSender delivers messages through the Twilio messages API.
type WhatsAppSender struct {
	logger *slog.Logger
	cfg    WhatsAppConfig
	client *http.Client
}

func NewWhatsAppSender(logger *slog.Logger, cfg WhatsAppConfig) *WhatsAppSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	return &WhatsAppSender{
		logger: logger,
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether the sender has everything it needs.
func (s *WhatsAppSender) Enabled() bool {
	return s.cfg.AccountSID != "" && s.cfg.AuthToken != "" && s.cfg.From != "" && len(s.cfg.Admins) > 0
}

// SendAdmin delivers the body to the primary admin recipient only, so a
// burst of quotes does not burn through the message quota.
func (s *WhatsAppSender) SendAdmin(ctx context.Context, body string) error {
	if !s.Enabled() {
		s.logger.Info("whatsapp config incomplete, skipping send")
		return nil
	}
	return s.send(ctx, s.cfg.Admins[0], body)
}

// SendAll delivers the body to every admin recipient.
func (s *WhatsAppSender) SendAll(ctx context.Context, body string) error {
	if !s.Enabled() {
		s.logger.Info("whatsapp config incomplete, skipping send")
		return nil
	}
	var firstErr error
	for _, to := range s.cfg.Admins {
		if err := s.send(ctx, to, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *WhatsAppSender) send(ctx context.Context, to, body string) error {
	toNorm := NormalizeWhatsApp(to)
	if toNorm == "" {
		return nil
	}

	form := url.Values{}
	form.Set("From", s.cfg.From)
	form.Set("To", toNorm)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, s.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp send: provider returned %s", resp.Status)
	}
	s.logger.Info("whatsapp sent", "to", toNorm)
	return nil
}

// NormalizeWhatsApp converts a raw phone number into the provider's
// "whatsapp:+<digits>" form. Bare national numbers get the +52 country code;
// numbers already carrying 52 or an explicit + are left as-is.
func NormalizeWhatsApp(number string) string {
	n := strings.TrimSpace(number)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "whatsapp:") {
		return n
	}
	if strings.HasPrefix(n, "+") {
		return "whatsapp:" + n
	}
	var digits strings.Builder
	for _, r := range n {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	if strings.HasPrefix(digits.String(), "52") {
		return "whatsapp:+" + digits.String()
	}
	return "whatsapp:+52" + digits.String()
}
