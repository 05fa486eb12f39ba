package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/poliutech/cotizador/internal/quotes"
)

// Enqueuer pushes quote events onto the queue. It satisfies the quote
// service's notifier contract so the web process never talks to the provider
// directly.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(redisOpts asynq.RedisClientOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(redisOpts)}
}

func (e *Enqueuer) QuoteCreated(ctx context.Context, q *quotes.Quote) error {
	task, err := NewQuoteCreatedTask(payloadOf(q, ""))
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

func (e *Enqueuer) StatusChanged(ctx context.Context, q *quotes.Quote, previous quotes.Status) error {
	task, err := NewStatusChangedTask(payloadOf(q, string(previous)))
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}

func payloadOf(q *quotes.Quote, previous string) QuoteEventPayload {
	return QuoteEventPayload{
		ID:       q.ID,
		Folio:    q.Folio,
		Estatus:  string(q.Estatus),
		Previous: previous,
		Fecha:    q.Fecha,
		Total:    q.Total,
	}
}

var _ quotes.Notifier = (*Enqueuer)(nil)
