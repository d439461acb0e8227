package product

import (
	"context"
	"errors"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, websiteID string) ([]domain.Product, error) {
	return s.repo.ListByWebsite(ctx, websiteID)
}

func (s *Service) Get(ctx context.Context, websiteID, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, websiteID, id)
}

// CurrentPrices returns the present unit price of each product id. Products
// that no longer exist are left out of the map.
func (s *Service) CurrentPrices(ctx context.Context, websiteID string, ids []string) (map[string]int64, error) {
	prices := make(map[string]int64, len(ids))
	for _, id := range ids {
		if _, seen := prices[id]; seen {
			continue
		}
		p, err := s.repo.GetByID(ctx, websiteID, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		prices[id] = p.PriceCents
	}
	return prices, nil
}
