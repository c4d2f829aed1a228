// Package worker relays committed outbox rows to the message broker.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"siappa/pkg/platform/tx"
)

// Publisher is the broker port.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

var (
	relayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "siappa_outbox_relayed_total",
		Help: "Outbox rows published to the broker",
	})
	relayErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "siappa_outbox_relay_errors_total",
		Help: "Outbox relay batches that failed",
	})
)

// Worker polls the outbox and publishes unprocessed rows in creation order.
// Rows are claimed with FOR UPDATE SKIP LOCKED so several replicas can run.
type Worker struct {
	db        *sql.DB
	runner    tx.Runner
	publisher Publisher
	topic     string
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func NewWorker(db *sql.DB, publisher Publisher, topic string, opts ...Option) *Worker {
	w := &Worker{
		db:        db,
		runner:    tx.NewSQLRunner(db),
		publisher: publisher,
		topic:     topic,
		interval:  2 * time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if _, err := w.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			relayErrors.Inc()
			w.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

type outboxRow struct {
	id          uuid.UUID
	aggregateID string
	payload     []byte
}

// RelayOnce publishes one batch and returns how many rows were relayed. A
// publish failure rolls the batch back so the rows are retried.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	var n int
	err := w.runner.RunInTx(ctx, func(ctx context.Context) error {
		exec := tx.Exec(ctx, w.db)
		rows, err := exec.QueryContext(ctx, `
			SELECT id, aggregate_id, payload
			FROM outbox
			WHERE processed_at IS NULL
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED`, w.batchSize)
		if err != nil {
			return fmt.Errorf("claim outbox rows: %w", err)
		}
		var batch []outboxRow
		for rows.Next() {
			var r outboxRow
			if err := rows.Scan(&r.id, &r.aggregateID, &r.payload); err != nil {
				rows.Close()
				return fmt.Errorf("scan outbox row: %w", err)
			}
			batch = append(batch, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate outbox rows: %w", err)
		}

		for _, r := range batch {
			// Keyed by case so a case's events stay ordered within a partition.
			if err := w.publisher.Publish(ctx, w.topic, []byte(r.aggregateID), r.payload); err != nil {
				return err
			}
			if _, err := exec.ExecContext(ctx,
				`UPDATE outbox SET processed_at = now() WHERE id = $1`, r.id); err != nil {
				return fmt.Errorf("mark outbox row processed: %w", err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	relayed.Add(float64(n))
	return n, nil
}
