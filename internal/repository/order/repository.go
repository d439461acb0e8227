package order

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists orders and their immutable line items.
type Repository interface {
	// Create inserts the order header together with its items. A duplicate
	// idempotency key within the website yields domain.ErrAlreadyExists and
	// writes nothing.
	Create(ctx context.Context, o domain.Order, items []domain.OrderItem) (*domain.Order, error)
	GetByID(ctx context.Context, websiteID, id string) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, websiteID, key string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, websiteID, customerID string) ([]domain.Order, error)
	MarkPaid(ctx context.Context, websiteID, id, paymentReference string) error
}
