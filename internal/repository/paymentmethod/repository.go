package paymentmethod

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// ListEnabled returns the website's enabled methods by display order.
	ListEnabled(ctx context.Context, websiteID string) ([]domain.PaymentMethod, error)
	GetByName(ctx context.Context, websiteID, name string) (*domain.PaymentMethod, error)
	// GetEnabledByType returns the first enabled method of the given type.
	GetEnabledByType(ctx context.Context, websiteID, methodType string) (*domain.PaymentMethod, error)
	Upsert(ctx context.Context, m domain.PaymentMethod) (*domain.PaymentMethod, error)
}
