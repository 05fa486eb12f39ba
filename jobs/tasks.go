package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue every quoting job runs on.
	QueueDefault = "default"

	// TaskQuoteCreated notifies the admins about a new quote.
	TaskQuoteCreated = "cotizacion:creada"
	// TaskStatusChanged notifies the admins about a status transition.
	TaskStatusChanged = "cotizacion:estatus"
	// TaskPendingReminders sweeps stale PENDIENTE quotes.
	TaskPendingReminders = "cotizacion:recordatorios"
	// TaskAuditCleanup prunes old audit log entries.
	TaskAuditCleanup = "bitacora:limpieza"
)

// QuoteEventPayload carries the quote snapshot a notification needs. The
// worker never reloads the quote: what was true at enqueue time is what gets
// sent.
type QuoteEventPayload struct {
	ID       int64     `json:"id"`
	Folio    string    `json:"folio"`
	Estatus  string    `json:"estatus"`
	Previous string    `json:"previous,omitempty"`
	Fecha    time.Time `json:"fecha"`
	Total    float64   `json:"total"`
}

// NewQuoteCreatedTask builds the new-quote notification task.
func NewQuoteCreatedTask(payload QuoteEventPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuoteCreated, data), nil
}

// NewStatusChangedTask builds the status-transition notification task.
func NewStatusChangedTask(payload QuoteEventPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatusChanged, data), nil
}

// NewPendingRemindersTask builds the periodic reminder sweep task.
func NewPendingRemindersTask() *asynq.Task {
	return asynq.NewTask(TaskPendingReminders, nil)
}

// NewAuditCleanupTask builds the audit retention task.
func NewAuditCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskAuditCleanup, nil)
}
