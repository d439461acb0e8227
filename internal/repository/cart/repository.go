package cart

import (
	"context"

	"storefront/internal/domain"
)

type CreateCartInput struct {
	WebsiteID   string
	CustomerID  *string
	AnonymousID *string
	Currency    string
}

type Repository interface {
	Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, websiteID, id string) (*domain.Cart, error)
	GetActiveByCustomer(ctx context.Context, websiteID, customerID string) (*domain.Cart, error)
	GetActiveByAnonymous(ctx context.Context, websiteID, anonymousID string) (*domain.Cart, error)
	AssignCustomerToAnonymous(ctx context.Context, websiteID, anonymousID, customerID string) (*domain.Cart, error)
	AddLineItem(ctx context.Context, cartID string, product domain.Product, quantity int, snapshot map[string]interface{}) error
	ChangeLineItemQuantity(ctx context.Context, cartID, lineItemID string, quantity int) error
	RemoveLineItem(ctx context.Context, cartID, lineItemID string) error
	// Clear removes every line and resets the cart total.
	Clear(ctx context.Context, cartID string) error
}
