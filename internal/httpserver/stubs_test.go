package httpserver

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/payment"
	anonymoussvc "storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubWebsiteRepo struct {
	website *domain.Website
	err     error
}

func (s *stubWebsiteRepo) GetByKey(_ context.Context, key string) (*domain.Website, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.website == nil || s.website.Key != key {
		return nil, domain.ErrNotFound
	}
	return s.website, nil
}

type stubProductService struct {
	products []domain.Product
}

func (s *stubProductService) List(context.Context, string) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubProductService) Get(_ context.Context, _ string, id string) (*domain.Product, error) {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubCategoryService struct {
	categories []domain.Category
}

func (s *stubCategoryService) List(context.Context, string) ([]domain.Category, error) {
	return s.categories, nil
}

type stubCustomerService struct {
	customer  *domain.Customer
	token     string
	signErr   error
	loginErr  error
	loggedOut []string
}

func (s *stubCustomerService) Signup(_ context.Context, _ string, _ customersvc.SignupInput) (*domain.Customer, error) {
	return s.customer, s.signErr
}

func (s *stubCustomerService) Login(context.Context, string, string, string) (*customersvc.Session, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &customersvc.Session{Customer: s.customer, AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (s *stubCustomerService) Logout(_ context.Context, _ string, customerID string) error {
	s.loggedOut = append(s.loggedOut, customerID)
	return nil
}

func (s *stubCustomerService) LookupByToken(_ context.Context, _ string, token string) (*domain.Customer, error) {
	if s.customer == nil || token != s.token {
		return nil, customersvc.ErrInvalidToken
	}
	return s.customer, nil
}

func (s *stubCustomerService) AccessTTLSeconds() int { return 3600 }

type stubAnonymousService struct {
	tokens map[string]string
}

func (s *stubAnonymousService) Issue(context.Context, string) (*anonymoussvc.Session, error) {
	return &anonymoussvc.Session{AnonymousID: "anon-new", AccessToken: "anon-access", RefreshToken: "anon-refresh"}, nil
}

func (s *stubAnonymousService) LookupByToken(_ context.Context, _ string, token string) (string, error) {
	if id, ok := s.tokens[token]; ok {
		return id, nil
	}
	return "", anonymoussvc.ErrInvalidToken
}

func (s *stubAnonymousService) AccessTTLSeconds() int { return 600 }

type mergeCall struct {
	anonymousID string
	customerID  string
}

type stubCartService struct {
	cart   *domain.Cart
	owners []domain.Owner
	merges []mergeCall
}

func (s *stubCartService) Create(_ context.Context, _ string, owner domain.Owner, in cartsvc.CreateInput) (*domain.Cart, error) {
	s.owners = append(s.owners, owner)
	return &domain.Cart{ID: "cart-1", Currency: in.Currency}, nil
}

func (s *stubCartService) Active(_ context.Context, _ string, owner domain.Owner) (*domain.Cart, error) {
	s.owners = append(s.owners, owner)
	if s.cart == nil {
		return nil, domain.ErrNotFound
	}
	return s.cart, nil
}

func (s *stubCartService) Update(_ context.Context, _ string, owner domain.Owner, _ string, _ cartsvc.UpdateInput) (*domain.Cart, error) {
	s.owners = append(s.owners, owner)
	if s.cart == nil {
		return nil, domain.ErrNotFound
	}
	return s.cart, nil
}

func (s *stubCartService) MergeAnonymous(_ context.Context, _ string, anonymousID, customerID string) (*domain.Cart, error) {
	s.merges = append(s.merges, mergeCall{anonymousID, customerID})
	return s.cart, nil
}

type stubCheckoutService struct {
	requests []checkout.Request
	outcome  *checkout.Outcome
	err      error
}

func (s *stubCheckoutService) Submit(_ context.Context, req checkout.Request) (*checkout.Outcome, error) {
	s.requests = append(s.requests, req)
	return s.outcome, s.err
}

type stubPageHub struct {
	pages map[string]payment.Page
}

func (s *stubPageHub) Accept(w http.ResponseWriter, _ *http.Request, _ string) {
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func (s *stubPageHub) Lookup(_ string, id string) (payment.Page, bool) {
	p, ok := s.pages[id]
	return p, ok
}

var testWebsite = &domain.Website{ID: "site-id", Key: "shop", Name: "Shop"}

// testDeps returns deps with every required service stubbed.
func testDeps() Deps {
	return Deps{
		WebsiteRepo:  &stubWebsiteRepo{website: testWebsite},
		ProductSvc:   &stubProductService{},
		CategorySvc:  &stubCategoryService{},
		CustomerSvc:  &stubCustomerService{},
		AnonymousSvc: &stubAnonymousService{},
		CartSvc:      &stubCartService{},
	}
}

func newTestRouter(t interface{ Fatalf(string, ...any) }, deps Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), nil, deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}
