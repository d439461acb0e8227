package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"storefront/internal/domain"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Outbox records order events for later publication.
type Outbox struct {
	db     execer
	logger *log.Logger
	now    func() time.Time
}

// NewOutbox accepts a *pgxpool.Pool or a pgx.Tx.
func NewOutbox(db execer, logger *log.Logger) *Outbox {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Outbox{db: db, logger: logger, now: time.Now}
}

// OrderPlaced enqueues an orders.placed event for o.
func (b *Outbox) OrderPlaced(ctx context.Context, o domain.Order) error {
	event := NewOrderPlaced(o, b.now())
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = b.db.Exec(ctx, `
INSERT INTO order_outbox (event_id, event_type, payload)
VALUES ($1, $2, $3)
`, event.EventID, event.Type, payload)
	if err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	b.logger.Printf("outbox: enqueued event_id=%s type=%s order_id=%s", event.EventID, event.Type, o.ID)
	return nil
}
