package category

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	ListByWebsite(ctx context.Context, websiteID string) ([]domain.Category, error)
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}
