package website

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	GetByKey(ctx context.Context, key string) (*domain.Website, error)
	Upsert(ctx context.Context, w domain.Website) (*domain.Website, error)
}
