package order

import (
	"context"

	"storefront/internal/domain"
	orderrepo "storefront/internal/repository/order"
)

// Service exposes placed orders to their owners.
type Service struct {
	repo orderrepo.Repository
}

func New(repo orderrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the order if it belongs to owner. Orders of anyone else are
// reported as not found.
func (s *Service) Get(ctx context.Context, websiteID string, owner domain.Owner, id string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, websiteID, id)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(owner.CustomerID, owner.AnonymousID) {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// History lists a customer's orders, newest first, with their items.
func (s *Service) History(ctx context.Context, websiteID, customerID string) ([]domain.Order, error) {
	orders, err := s.repo.ListByCustomer(ctx, websiteID, customerID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}
