package product

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	ListByWebsite(ctx context.Context, websiteID string) ([]domain.Product, error)
	GetByID(ctx context.Context, websiteID, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, websiteID, sku string) (*domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
