// Package events carries order events from the checkout to the message
// broker. Events are written to the order_outbox table next to the order and
// published by a Dispatcher.
package events

import (
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

const TypeOrderPlaced = "orders.placed"

// OrderPlaced is published once per completed checkout.
type OrderPlaced struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	WebsiteID     string    `json:"website_id"`
	CustomerID    string    `json:"customer_id,omitempty"`
	TotalCents    int64     `json:"total_cents"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	Items         int       `json:"items"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewOrderPlaced(o domain.Order, now time.Time) OrderPlaced {
	e := OrderPlaced{
		EventID:       uuid.NewString(),
		Type:          TypeOrderPlaced,
		OrderID:       o.ID,
		WebsiteID:     o.WebsiteID,
		TotalCents:    o.TotalCents,
		Currency:      o.Currency,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: string(o.PaymentStatus),
		Items:         len(o.Items),
		OccurredAt:    now.UTC(),
	}
	if o.CustomerID != nil {
		e.CustomerID = *o.CustomerID
	}
	return e
}
