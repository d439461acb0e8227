package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/payment"
	anonymoussvc "storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
)

type WebsiteRepo interface {
	GetByKey(ctx context.Context, key string) (*domain.Website, error)
}

type ProductService interface {
	List(ctx context.Context, websiteID string) ([]domain.Product, error)
	Get(ctx context.Context, websiteID, id string) (*domain.Product, error)
}

type CategoryService interface {
	List(ctx context.Context, websiteID string) ([]domain.Category, error)
}

type CustomerService interface {
	Signup(ctx context.Context, websiteID string, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, websiteID, email, password string) (*customersvc.Session, error)
	Logout(ctx context.Context, websiteID, customerID string) error
	LookupByToken(ctx context.Context, websiteID, token string) (*domain.Customer, error)
	AccessTTLSeconds() int
}

type AnonymousService interface {
	Issue(ctx context.Context, websiteID string) (*anonymoussvc.Session, error)
	LookupByToken(ctx context.Context, websiteID, token string) (string, error)
	AccessTTLSeconds() int
}

type CartService interface {
	Create(ctx context.Context, websiteID string, owner domain.Owner, in cartsvc.CreateInput) (*domain.Cart, error)
	Active(ctx context.Context, websiteID string, owner domain.Owner) (*domain.Cart, error)
	Update(ctx context.Context, websiteID string, owner domain.Owner, cartID string, in cartsvc.UpdateInput) (*domain.Cart, error)
	MergeAnonymous(ctx context.Context, websiteID, anonymousID, customerID string) (*domain.Cart, error)
}

type PaymentMethodService interface {
	ListEnabled(ctx context.Context, websiteID string) ([]domain.PaymentMethod, error)
}

type OrderService interface {
	Get(ctx context.Context, websiteID string, owner domain.Owner, id string) (*domain.Order, error)
	History(ctx context.Context, websiteID, customerID string) ([]domain.Order, error)
}

type CheckoutService interface {
	Submit(ctx context.Context, req checkout.Request) (*checkout.Outcome, error)
}

// PageHub connects checkout pages and finds them again by id.
type PageHub interface {
	Accept(w http.ResponseWriter, r *http.Request, websiteID string)
	Lookup(websiteID, id string) (payment.Page, bool)
}

// Deps groups the services the API serves.
type Deps struct {
	WebsiteRepo      WebsiteRepo
	ProductSvc       ProductService
	CategorySvc      CategoryService
	CustomerSvc      CustomerService
	AnonymousSvc     AnonymousService
	CartSvc          CartService
	PaymentMethodSvc PaymentMethodService
	OrderSvc         OrderService
	CheckoutSvc      CheckoutService
	Pages            PageHub
	AllowedOrigins   []string
	CheckoutTimeout  time.Duration
	ReadyChecks      map[string]ReadyCheck
}

func (d Deps) validate() error {
	switch {
	case d.WebsiteRepo == nil:
		return errors.New("website repo is required")
	case d.ProductSvc == nil, d.CategorySvc == nil:
		return errors.New("catalogue services are required")
	case d.CustomerSvc == nil:
		return errors.New("customer service is required")
	case d.CartSvc == nil:
		return errors.New("cart service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.CheckoutTimeout <= 0 {
		deps.CheckoutTimeout = 10 * time.Minute
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Checkout-Page"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(readyChecks(db, deps.ReadyChecks)))

	ids := identities{customers: deps.CustomerSvc, anonymous: deps.AnonymousSvc}

	oauth := router.Group("/oauth/:websiteKey", websiteMiddleware(deps.WebsiteRepo))
	oauth.POST("/customers/token", customerTokenHandler(deps.CustomerSvc, deps.CartSvc, ids, logger))
	if deps.AnonymousSvc != nil {
		oauth.POST("/anonymous/token", anonymousTokenHandler(deps.AnonymousSvc))
	}

	site := router.Group("/:websiteKey", websiteMiddleware(deps.WebsiteRepo), identityMiddleware(ids))
	site.GET("", websiteHandler)
	site.GET("/products", listProductsHandler(deps.ProductSvc))
	site.GET("/products/:id", getProductHandler(deps.ProductSvc))
	site.GET("/categories", listCategoriesHandler(deps.CategorySvc))
	site.POST("/me/signup", signupHandler(deps.CustomerSvc))
	site.GET("/me", requireCustomer(), meHandler)
	site.POST("/me/logout", requireCustomer(), logoutHandler(deps.CustomerSvc))

	site.POST("/carts", requireOwner(), createCartHandler(deps.CartSvc))
	site.GET("/me/active-cart", requireOwner(), activeCartHandler(deps.CartSvc))
	site.POST("/carts/:id", requireOwner(), updateCartHandler(deps.CartSvc))

	if deps.PaymentMethodSvc != nil {
		site.GET("/payment-methods", listPaymentMethodsHandler(deps.PaymentMethodSvc))
	}
	if deps.OrderSvc != nil {
		site.GET("/orders/:id", requireOwner(), getOrderHandler(deps.OrderSvc))
		site.GET("/me/orders", requireCustomer(), orderHistoryHandler(deps.OrderSvc))
	}
	if deps.CheckoutSvc != nil {
		site.POST("/checkout", requireOwner(), checkoutHandler(deps.CheckoutSvc, deps.Pages, deps.CheckoutTimeout, logger))
	}
	if deps.Pages != nil {
		site.GET("/checkout/page", checkoutPageHandler(deps.Pages))
	}

	return router, nil
}
