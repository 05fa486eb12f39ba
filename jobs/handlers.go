package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/poliutech/cotizador/internal/quotes"
	"github.com/poliutech/cotizador/internal/shared"
)

// ReminderStore is the slice of the quote repository the reminder sweep
// needs.
type ReminderStore interface {
	StalePending(ctx context.Context, olderThan time.Time) ([]quotes.Quote, error)
	SetLastWhatsApp(ctx context.Context, id int64, at time.Time) error
}

// HandlerSet bundles the worker-side task handlers with their dependencies.
type HandlerSet struct {
	logger   *slog.Logger
	whatsapp *WhatsAppSender
	store    ReminderStore
	audit    *shared.AuditLogger

	// ReminderMinAge is the minimum quote age before the first reminder.
	ReminderMinAge time.Duration
	// AuditRetentionDays bounds the audit log.
	AuditRetentionDays int

	now func() time.Time
}

func NewHandlerSet(logger *slog.Logger, whatsapp *WhatsAppSender, store ReminderStore, audit *shared.AuditLogger) *HandlerSet {
	return &HandlerSet{
		logger:             logger,
		whatsapp:           whatsapp,
		store:              store,
		audit:              audit,
		ReminderMinAge:     24 * time.Hour,
		AuditRetentionDays: 90,
		now:                time.Now,
	}
}

// HandleQuoteCreated sends the new-quote WhatsApp to the admins.
func (h *HandlerSet) HandleQuoteCreated(ctx context.Context, t *asynq.Task) error {
	var p QuoteEventPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return asynq.SkipRetry
	}
	body := fmt.Sprintf(
		"🧾 *Nueva Cotización Creada*\nFolio: *%s*\nEstatus: *%s*\nFecha (UTC): %s\nTotal: %s",
		p.Folio, p.Estatus, p.Fecha.UTC().Format("02/01/2006 15:04"), shared.FormatMoney(p.Total),
	)
	if err := h.whatsapp.SendAdmin(ctx, body); err != nil {
		h.logger.Warn("quote created whatsapp failed", "folio", p.Folio, "error", err)
		return err
	}
	return nil
}

// HandleStatusChanged sends the status-transition WhatsApp to the admins.
func (h *HandlerSet) HandleStatusChanged(ctx context.Context, t *asynq.Task) error {
	var p QuoteEventPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return asynq.SkipRetry
	}
	body := fmt.Sprintf(
		"🔄 *Actualización de Cotización*\nFolio: *%s*\nEstatus: *%s*\nTotal: %s",
		p.Folio, p.Estatus, shared.FormatMoney(p.Total),
	)
	if err := h.whatsapp.SendAdmin(ctx, body); err != nil {
		h.logger.Warn("status change whatsapp failed", "folio", p.Folio, "error", err)
		return err
	}
	return nil
}

// HandlePendingReminders reminds the admins about quotes stuck in PENDIENTE.
// Each reminded quote has its reminder timestamp advanced so the next sweep
// skips it for at least a day.
func (h *HandlerSet) HandlePendingReminders(ctx context.Context, _ *asynq.Task) error {
	minAge := h.ReminderMinAge
	if minAge < 24*time.Hour {
		minAge = 24 * time.Hour
	}
	now := h.now().UTC()
	stale, err := h.store.StalePending(ctx, now.Add(-minAge))
	if err != nil {
		return err
	}
	h.logger.Info("pending reminder sweep", "stale", len(stale))

	for _, q := range stale {
		body := fmt.Sprintf(
			"🔔 *Recordatorio: Cotización PENDIENTE*\nFolio: *%s*\nFecha (UTC): %s\nTotal: %s",
			q.Folio, q.Fecha.UTC().Format("02/01/2006 15:04"), shared.FormatMoney(q.Total),
		)
		if err := h.whatsapp.SendAdmin(ctx, body); err != nil {
			h.logger.Warn("reminder whatsapp failed", "folio", q.Folio, "error", err)
			continue
		}
		if err := h.store.SetLastWhatsApp(ctx, q.ID, now); err != nil {
			h.logger.Warn("reminder timestamp update failed", "folio", q.Folio, "error", err)
		}
	}
	return nil
}

// HandleAuditCleanup prunes audit entries past the retention window.
func (h *HandlerSet) HandleAuditCleanup(ctx context.Context, _ *asynq.Task) error {
	if h.audit == nil {
		return nil
	}
	removed, err := h.audit.Cleanup(ctx, h.AuditRetentionDays)
	if err != nil {
		return err
	}
	h.logger.Info("audit cleanup", "removed", removed)
	return nil
}
