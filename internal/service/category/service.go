package category

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the website's categories with roots ahead of children. Both
// groups keep the repository's name order.
func (s *Service) List(ctx context.Context, websiteID string) ([]domain.Category, error) {
	all, err := s.repo.ListByWebsite(ctx, websiteID)
	if err != nil {
		return nil, err
	}
	roots := make([]domain.Category, 0, len(all))
	var children []domain.Category
	for _, c := range all {
		if c.ParentKey == "" {
			roots = append(roots, c)
		} else {
			children = append(children, c)
		}
	}
	return append(roots, children...), nil
}

func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	return s.repo.Upsert(ctx, c)
}
