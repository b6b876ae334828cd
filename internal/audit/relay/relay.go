// Package relay moves audit entries from the Postgres outbox to Kafka. The
// outbox row is written in the same transaction as the audit entry, so the
// relay can deliver at-least-once without losing events on crashes.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"membergate/internal/audit"

	"github.com/google/uuid"
)

// Outbox is the slice of the audit store the relay needs.
type Outbox interface {
	NextUnpublished(ctx context.Context, limit int) ([]audit.OutboxRow, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Producer abstracts the Kafka client so tests can fake delivery.
// *kgo.Client satisfies it.
type Producer interface {
	ProduceSync(ctx context.Context, records ...*kgo.Record) kgo.ProduceResults
}

const (
	defaultBatchSize = 100
	defaultInterval  = 2 * time.Second
)

// Relay polls the outbox and publishes pending rows.
type Relay struct {
	outbox   Outbox
	producer Producer
	topic    string
	logger   *slog.Logger

	batchSize int
	interval  time.Duration
}

// Option configures the relay.
type Option func(*Relay)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) { r.interval = d }
}

// WithBatchSize overrides the per-poll row limit.
func WithBatchSize(n int) Option {
	return func(r *Relay) { r.batchSize = n }
}

func New(outbox Outbox, producer Producer, topic string, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		producer:  producer,
		topic:     topic,
		logger:    logger,
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until the context is cancelled. Publish failures are logged and
// retried on the next tick; rows stay unpublished until delivery succeeds.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				r.logger.ErrorContext(ctx, "audit outbox drain failed", "error", err.Error())
			}
		}
	}
}

// Drain publishes one batch of pending outbox rows and marks them delivered.
func (r *Relay) Drain(ctx context.Context) error {
	rows, err := r.outbox.NextUnpublished(ctx, r.batchSize)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	records := make([]*kgo.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, &kgo.Record{
			Topic: r.topic,
			Key:   []byte(row.EventType),
			Value: row.Payload,
		})
	}

	if err := r.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return r.outbox.MarkPublished(ctx, ids)
}
