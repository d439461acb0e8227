package customer

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists and fetches customers.
type Repository interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByEmail(ctx context.Context, websiteID, email string) (*domain.Customer, error)
	GetByID(ctx context.Context, websiteID, id string) (*domain.Customer, error)
}
