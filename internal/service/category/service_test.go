package category

import (
	"context"
	"testing"

	"storefront/internal/domain"
)

type stubRepo struct {
	list []domain.Category
}

func (s *stubRepo) ListByWebsite(context.Context, string) ([]domain.Category, error) {
	return s.list, nil
}

func (s *stubRepo) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	return &c, nil
}

func TestListPutsRootsFirst(t *testing.T) {
	svc := New(&stubRepo{list: []domain.Category{
		{Key: "espresso", Name: "Espresso", ParentKey: "coffee"},
		{Key: "coffee", Name: "Coffee"},
		{Key: "mugs", Name: "Mugs"},
	}})
	got, err := svc.List(context.Background(), "site")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keys := []string{got[0].Key, got[1].Key, got[2].Key}
	if keys[0] != "coffee" || keys[1] != "mugs" || keys[2] != "espresso" {
		t.Fatalf("unexpected order %v", keys)
	}
}
