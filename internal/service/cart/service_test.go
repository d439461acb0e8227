package cart

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

type stubRepo struct {
	createCart        *domain.Cart
	createErr         error
	lastCreate        cartrepo.CreateCartInput
	getByIDResults    []*domain.Cart
	getByIDErr        error
	getByIDCalls      int
	customerCart      *domain.Cart
	customerErr       error
	anonymousCart     *domain.Cart
	anonymousErr      error
	assigned          *domain.Cart
	assignCalls       int
	addLineItemErr    error
	changeLineItemErr error
	removeErr         error
	lastAddCartID     string
	lastAddProduct    domain.Product
	lastAddQty        int
	addCalls          int
	lastChangeLineID  string
	lastChangeQty     int
	lastRemoveLineID  string
	cleared           []string
}

func (s *stubRepo) Create(_ context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error) {
	s.lastCreate = in
	return s.createCart, s.createErr
}

func (s *stubRepo) GetByID(_ context.Context, _, _ string) (*domain.Cart, error) {
	if s.getByIDErr != nil {
		return nil, s.getByIDErr
	}
	var res *domain.Cart
	if len(s.getByIDResults) > 0 {
		idx := s.getByIDCalls
		if idx >= len(s.getByIDResults) {
			idx = len(s.getByIDResults) - 1
		}
		res = s.getByIDResults[idx]
	}
	s.getByIDCalls++
	return res, nil
}

func (s *stubRepo) GetActiveByCustomer(_ context.Context, _, _ string) (*domain.Cart, error) {
	return s.customerCart, s.customerErr
}

func (s *stubRepo) GetActiveByAnonymous(_ context.Context, _, _ string) (*domain.Cart, error) {
	return s.anonymousCart, s.anonymousErr
}

func (s *stubRepo) AssignCustomerToAnonymous(_ context.Context, _, _, _ string) (*domain.Cart, error) {
	s.assignCalls++
	return s.assigned, nil
}

func (s *stubRepo) AddLineItem(_ context.Context, cartID string, product domain.Product, quantity int, _ map[string]interface{}) error {
	s.addCalls++
	s.lastAddCartID = cartID
	s.lastAddProduct = product
	s.lastAddQty = quantity
	return s.addLineItemErr
}

func (s *stubRepo) ChangeLineItemQuantity(_ context.Context, _, lineItemID string, quantity int) error {
	s.lastChangeLineID = lineItemID
	s.lastChangeQty = quantity
	return s.changeLineItemErr
}

func (s *stubRepo) RemoveLineItem(_ context.Context, _, lineItemID string) error {
	s.lastRemoveLineID = lineItemID
	return s.removeErr
}

func (s *stubRepo) Clear(_ context.Context, cartID string) error {
	s.cleared = append(s.cleared, cartID)
	return nil
}

type stubProductRepo struct {
	product *domain.Product
	err     error
	lastSKU string
	lastID  string
}

func (s *stubProductRepo) GetByID(_ context.Context, _, id string) (*domain.Product, error) {
	s.lastID = id
	return s.product, s.err
}

func (s *stubProductRepo) GetBySKU(_ context.Context, _, sku string) (*domain.Product, error) {
	s.lastSKU = sku
	return s.product, s.err
}

func strPtr(v string) *string {
	return &v
}

var customer = domain.Owner{CustomerID: "cust"}

func TestServiceCreateValidation(t *testing.T) {
	svc := &Service{repo: &stubRepo{}}
	_, err := svc.Create(context.Background(), "site", customer, CreateInput{Currency: "   "})
	if err == nil || err.Error() != "currency required" {
		t.Fatalf("expected currency validation error, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "site", domain.Owner{}, CreateInput{Currency: "USD"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found without owner, got %v", err)
	}
}

func TestServiceCreateForGuest(t *testing.T) {
	expected := &domain.Cart{ID: "c1", Currency: "USD"}
	repo := &stubRepo{createCart: expected}
	svc := &Service{repo: repo}
	got, err := svc.Create(context.Background(), "site", domain.Owner{AnonymousID: "anon"}, CreateInput{Currency: "usd"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != expected {
		t.Fatalf("unexpected cart: %+v", got)
	}
	if repo.lastCreate.CustomerID != nil || repo.lastCreate.AnonymousID == nil || *repo.lastCreate.AnonymousID != "anon" {
		t.Fatalf("expected anonymous owner, got %+v", repo.lastCreate)
	}
	if repo.lastCreate.Currency != "USD" {
		t.Fatalf("expected upper-cased currency, got %s", repo.lastCreate.Currency)
	}
}

func TestServiceActiveDispatchesByOwner(t *testing.T) {
	customerCart := &domain.Cart{ID: "c-cust"}
	guestCart := &domain.Cart{ID: "c-guest"}
	svc := &Service{repo: &stubRepo{customerCart: customerCart, anonymousCart: guestCart}}

	got, err := svc.Active(context.Background(), "site", customer)
	if err != nil || got != customerCart {
		t.Fatalf("expected customer cart, got %+v err=%v", got, err)
	}
	got, err = svc.Active(context.Background(), "site", domain.Owner{AnonymousID: "anon"})
	if err != nil || got != guestCart {
		t.Fatalf("expected guest cart, got %+v err=%v", got, err)
	}
	if _, err := svc.Active(context.Background(), "site", domain.Owner{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceUpdateRequiresActions(t *testing.T) {
	svc := &Service{repo: &stubRepo{}}
	_, err := svc.Update(context.Background(), "site", customer, "cart", UpdateInput{})
	if err == nil || err.Error() != "actions required" {
		t.Fatalf("expected actions error, got %v", err)
	}
}

func TestServiceUpdateOwnerMismatch(t *testing.T) {
	repo := &stubRepo{getByIDResults: []*domain.Cart{{ID: "cart", CustomerID: strPtr("other")}}}
	svc := &Service{repo: repo}
	_, err := svc.Update(context.Background(), "site", customer, "cart", UpdateInput{
		Actions: []UpdateAction{{Action: "addLineItem", SKU: "sku", Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	repo = &stubRepo{getByIDResults: []*domain.Cart{{ID: "cart", AnonymousID: strPtr("anon-a")}}}
	svc = &Service{repo: repo}
	_, err = svc.Update(context.Background(), "site", domain.Owner{AnonymousID: "anon-b"}, "cart", UpdateInput{
		Actions: []UpdateAction{{Action: "removeLineItem", LineItemID: "l1"}},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for other guest, got %v", err)
	}
}

func TestServiceUpdateAddLineItemValidation(t *testing.T) {
	repo := &stubRepo{getByIDResults: []*domain.Cart{{ID: "cart", CustomerID: strPtr("cust")}}}
	svc := &Service{repo: repo, productRepo: &stubProductRepo{}}

	_, err := svc.Update(context.Background(), "site", customer, "cart", UpdateInput{
		Actions: []UpdateAction{{Action: "addLineItem", Quantity: 1}},
	})
	if err == nil || err.Error() != "sku or productId required" {
		t.Fatalf("expected sku error, got %v", err)
	}

	_, err = svc.Update(context.Background(), "site", customer, "cart", UpdateInput{
		Actions: []UpdateAction{{Action: "addLineItem", SKU: "sku", Quantity: 0}},
	})
	if err == nil || err.Error() != "quantity must be positive" {
		t.Fatalf("expected quantity error, got %v", err)
	}
}

func TestServiceUpdateAddLineItemProductErrors(t *testing.T) {
	repo := &stubRepo{getByIDResults: []*domain.Cart{{ID: "cart", CustomerID: strPtr("cust")}}}
	svc := &Service{repo: repo}
	_, err := svc.Update(context.Background(), "site", customer, "cart", UpdateInput{
		Actions: []UpdateAction{{Action: "addLineItem", SKU: "sku", Quantity: 1}},
	})
	if err == nil || err.Error() != "product repository unavailable" {
		t.Fatalf("expected product repo error, got %v", err)
	}

	svc = &Service{repo: repo, productRepo: &stubProductRepo{err: domain.ErrNotFound}}
	_, err = svc.Update(context.Background(), "site", customer, "cart", UpdateInput{
		Actions: []UpdateAction{{Action: "addLineItem", ProductID: "p1", Quantity: 1}},
	})
	if err == nil || err.Error() != "product not found" {
		t.Fatalf("expected product not found, got %v", err)
	}
}

func TestServiceUpdateAddLineItemSuccess(t *testing.T) {
	initial := &domain.Cart{ID: "cart", CustomerID: strPtr("cust")}
	updated := &domain.Cart{ID: "cart", CustomerID: strPtr("cust")}
	repo := &stubRepo{getByIDResults: []*domain.Cart{initial, updated}}
	product := &domain.Product{ID: "p1", SKU: "sku", Name: "Prod", PriceCents: 100, Currency: "USD"}
	products := &stubProductRepo{product: product}
	svc := &Service{repo: repo, productRepo: products}
	got, err := svc.Update(context.Background(), "site", customer, "cart", UpdateInput{
		Actions: []UpdateAction{{Action: "addLineItem", ProductID: "p1", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != updated {
		t.Fatalf("unexpected cart: %+v", got)
	}
	if products.lastID != "p1" || repo.lastAddCartID != "cart" || repo.lastAddQty != 2 || repo.lastAddProduct.ID != "p1" {
		t.Fatalf("add line item not called as expected")
	}
}

func TestServiceUpdateChangeAndRemove(t *testing.T) {
	initial := &domain.Cart{ID: "cart", AnonymousID: strPtr("anon")}
	repo := &stubRepo{getByIDResults: []*domain.Cart{initial}}
	svc := &Service{repo: repo}
	guest := domain.Owner{AnonymousID: "anon"}

	_, err := svc.Update(context.Background(), "site", guest, "cart", UpdateInput{
		Actions: []UpdateAction{{Action: "changeLineItemQuantity", LineItemID: "line", Quantity: 0}},
	})
	if err == nil || err.Error() != "quantity must be positive" {
		t.Fatalf("expected quantity error, got %v", err)
	}

	_, err = svc.Update(context.Background(), "site", guest, "cart", UpdateInput{
		Actions: []UpdateAction{
			{Action: "changeLineItemQuantity", LineItemID: "line", Quantity: 3},
			{Action: "removeLineItem", LineItemID: "other"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastChangeLineID != "line" || repo.lastChangeQty != 3 || repo.lastRemoveLineID != "other" {
		t.Fatalf("actions not applied: %+v", repo)
	}

	repo.removeErr = domain.ErrNotFound
	_, err = svc.Update(context.Background(), "site", guest, "cart", UpdateInput{
		Actions: []UpdateAction{{Action: "removeLineItem", LineItemID: "missing"}},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceUpdateUnsupportedAction(t *testing.T) {
	repo := &stubRepo{getByIDResults: []*domain.Cart{{ID: "cart", CustomerID: strPtr("cust")}}}
	svc := &Service{repo: repo}
	_, err := svc.Update(context.Background(), "site", customer, "cart", UpdateInput{
		Actions: []UpdateAction{{Action: "setShippingAddress"}},
	})
	if err == nil || err.Error() != "unsupported action" {
		t.Fatalf("expected unsupported action, got %v", err)
	}
}

func TestMergeAnonymousAssignsWhenCustomerHasNoCart(t *testing.T) {
	assigned := &domain.Cart{ID: "guest", CustomerID: strPtr("cust")}
	repo := &stubRepo{
		anonymousCart: &domain.Cart{ID: "guest"},
		customerErr:   domain.ErrNotFound,
		assigned:      assigned,
	}
	svc := &Service{repo: repo}
	got, err := svc.MergeAnonymous(context.Background(), "site", "anon", "cust")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != assigned || repo.assignCalls != 1 {
		t.Fatalf("expected guest cart to be reassigned")
	}
}

func TestMergeAnonymousMovesLinesIntoExistingCart(t *testing.T) {
	merged := &domain.Cart{ID: "cust-cart"}
	repo := &stubRepo{
		anonymousCart:  &domain.Cart{ID: "guest", Lines: []domain.CartLine{{ProductID: "p1", Quantity: 2}}},
		customerCart:   &domain.Cart{ID: "cust-cart"},
		getByIDResults: []*domain.Cart{merged},
	}
	product := &domain.Product{ID: "p1", PriceCents: 500}
	svc := &Service{repo: repo, productRepo: &stubProductRepo{product: product}}

	got, err := svc.MergeAnonymous(context.Background(), "site", "anon", "cust")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != merged {
		t.Fatalf("unexpected cart %+v", got)
	}
	if repo.addCalls != 1 || repo.lastAddCartID != "cust-cart" || repo.lastAddQty != 2 {
		t.Fatalf("expected guest line added to customer cart")
	}
	if len(repo.cleared) != 1 || repo.cleared[0] != "guest" {
		t.Fatalf("expected guest cart cleared, got %v", repo.cleared)
	}
	if repo.assignCalls != 0 {
		t.Fatalf("did not expect reassignment")
	}
}
