// Package seed loads a demo website for manual testing.
package seed

import (
	"context"
	"fmt"
	"io"
	"log"

	"storefront/internal/domain"
)

type WebsiteWriter interface {
	Upsert(ctx context.Context, w domain.Website) (*domain.Website, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type PaymentMethodWriter interface {
	Upsert(ctx context.Context, m domain.PaymentMethod) (*domain.PaymentMethod, error)
}

type Repos struct {
	Websites       WebsiteWriter
	Products       ProductWriter
	Categories     CategoryWriter
	PaymentMethods PaymentMethodWriter
}

// Options tune the demo data. PayPalClientID is the public sandbox client
// id; the PayPal method is seeded disabled without it.
type Options struct {
	WebsiteKey     string
	PayPalClientID string
}

var demoCategories = []domain.Category{
	{Key: "apparel", Name: "Apparel", Slug: "apparel"},
	{Key: "kitchen", Name: "Kitchen", Slug: "kitchen"},
}

var demoProducts = []domain.Product{
	{
		Key:         "demo-shirt",
		SKU:         "SKU-DEMO-TSHIRT",
		Name:        "Demo T-Shirt",
		Description: "Soft cotton tee for demo purposes",
		PriceCents:  1999,
		Currency:    "USD",
		Attributes:  map[string]interface{}{domain.AttrCategories: []string{"apparel"}},
	},
	{
		Key:         "demo-mug",
		SKU:         "SKU-DEMO-MUG",
		Name:        "Demo Mug",
		Description: "Ceramic mug with demo logo",
		PriceCents:  1299,
		Currency:    "USD",
		Attributes:  map[string]interface{}{domain.AttrCategories: []string{"kitchen"}},
	},
}

// Apply inserts the demo website with its catalogue and payment methods. It
// is idempotent: every write is an upsert by key.
func Apply(ctx context.Context, repos Repos, opts Options, logger *log.Logger) (*domain.Website, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.WebsiteKey == "" {
		opts.WebsiteKey = "demo"
	}

	site, err := repos.Websites.Upsert(ctx, domain.Website{
		Key:  opts.WebsiteKey,
		Name: "Demo Store",
		Settings: map[string]interface{}{
			"primary_color": "#0f766e",
			"tagline":       "Everything for the demo",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ensure website: %w", err)
	}

	for _, c := range demoCategories {
		c.WebsiteID = site.ID
		if _, err := repos.Categories.Upsert(ctx, c); err != nil {
			return nil, fmt.Errorf("upsert category %s: %w", c.Key, err)
		}
	}
	for _, p := range demoProducts {
		p.WebsiteID = site.ID
		if _, err := repos.Products.Upsert(ctx, p); err != nil {
			return nil, fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}
	for _, m := range paymentMethods(site.ID, opts.PayPalClientID) {
		if _, err := repos.PaymentMethods.Upsert(ctx, m); err != nil {
			return nil, fmt.Errorf("upsert payment method %s: %w", m.Name, err)
		}
	}

	logger.Printf("seeded website key=%s id=%s products=%d", site.Key, site.ID, len(demoProducts))
	return site, nil
}

func paymentMethods(websiteID, payPalClientID string) []domain.PaymentMethod {
	return []domain.PaymentMethod{
		{WebsiteID: websiteID, Name: "Cash on Delivery", Type: domain.MethodTypeCOD, Enabled: true, DisplayOrder: 1},
		{WebsiteID: websiteID, Name: "Razorpay", Type: domain.MethodTypeRazorpay, Enabled: true, DisplayOrder: 2},
		{
			WebsiteID:    websiteID,
			Name:         "PayPal",
			Type:         domain.MethodTypePayPal,
			Enabled:      payPalClientID != "",
			DisplayOrder: 3,
			Config:       map[string]interface{}{"client_id": payPalClientID},
		},
	}
}
