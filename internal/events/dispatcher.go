package events

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxAttempts after which an event is parked as failed.
const maxAttempts = 10

// Dispatcher publishes pending outbox rows. Several dispatchers may share
// the table; rows are claimed with SKIP LOCKED.
type Dispatcher struct {
	pool      *pgxpool.Pool
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *log.Logger
}

type outboxRow struct {
	ID        int64
	EventType string
	Payload   []byte
	Attempts  int
}

func NewDispatcher(pool *pgxpool.Pool, publisher Publisher, interval time.Duration, batch int, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if batch <= 0 {
		batch = 32
	}
	return &Dispatcher{
		pool:      pool,
		publisher: publisher,
		interval:  interval,
		batchSize: batch,
		logger:    logger,
	}
}

// Run dispatches until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if _, err := d.Dispatch(ctx); err != nil && ctx.Err() == nil {
			d.logger.Printf("outbox: dispatch error=%v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Dispatch publishes one batch and reports how many rows were sent.
func (d *Dispatcher) Dispatch(ctx context.Context) (int, error) {
	rows, err := d.claim(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, row := range rows {
		if err := d.publishOne(ctx, row); err != nil {
			d.logger.Printf("outbox: publish row_id=%d type=%s attempts=%d error=%v", row.ID, row.EventType, row.Attempts+1, err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (d *Dispatcher) claim(ctx context.Context) ([]outboxRow, error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
SELECT id, event_type, payload, attempts
FROM order_outbox
WHERE status IN ('pending', 'processing') AND next_retry <= NOW()
ORDER BY id
LIMIT $1
FOR UPDATE SKIP LOCKED
`, d.batchSize)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	var items []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.ID, &row.EventType, &row.Payload, &row.Attempts); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(items))
	for _, row := range items {
		ids = append(ids, row.ID)
	}
	// A crashed dispatcher's rows become visible again after the lease.
	lease := time.Now().Add(30 * time.Second)
	if _, err := tx.Exec(ctx, `
UPDATE order_outbox
SET status = 'processing', next_retry = $2, updated_at = NOW()
WHERE id = ANY($1)
`, ids, lease); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

func (d *Dispatcher) publishOne(ctx context.Context, row outboxRow) error {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := d.publisher.Publish(pubCtx, row.EventType, row.Payload); err != nil {
		return d.markFailure(ctx, row, err)
	}
	_, err := d.pool.Exec(ctx, `UPDATE order_outbox SET status = 'sent', updated_at = NOW() WHERE id = $1`, row.ID)
	return err
}

func (d *Dispatcher) markFailure(ctx context.Context, row outboxRow, publishErr error) error {
	attempts := row.Attempts + 1
	status := "pending"
	if attempts >= maxAttempts {
		status = "failed"
	}
	_, err := d.pool.Exec(ctx, `
UPDATE order_outbox
SET status = $2, attempts = $3, next_retry = $4, updated_at = NOW()
WHERE id = $1
`, row.ID, status, attempts, time.Now().Add(retryDelay(attempts)))
	if err != nil {
		return fmt.Errorf("update retry: %w", err)
	}
	return publishErr
}

// retryDelay backs off exponentially from 2s, capped at one minute.
func retryDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 6 {
		attempts = 6
	}
	delay := time.Duration(1<<attempts) * time.Second
	if delay > time.Minute {
		delay = time.Minute
	}
	return delay
}
