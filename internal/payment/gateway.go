package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrPaymentCancelled is returned when the shopper closes the vendor UI.
	ErrPaymentCancelled = errors.New("Payment cancelled by user")
	// ErrUnknownGateway is returned for a discriminator with no adapter.
	ErrUnknownGateway = errors.New("unknown payment gateway")
)

// Shopper is the contact data used to prefill vendor forms.
type Shopper struct {
	Name  string
	Email string
	Phone string
}

// Charge is one payment attempt for a persisted order.
type Charge struct {
	WebsiteID string
	StoreName string
	OrderID   string
	Amount    decimal.Decimal
	Currency  string
	Intent    Intent
	Shopper   Shopper
}

// Result is the vendor's answer normalized across gateways. OrderID and
// Signature are only set by gateways that produce them.
type Result struct {
	PaymentID string
	OrderID   string
	Signature string
}

// Gateway runs one vendor's checkout UI on the shopper's page.
type Gateway interface {
	Name() string
	Pay(ctx context.Context, page Page, c Charge) (Result, error)
}

// Gateways maps intent discriminators to adapters.
type Gateways map[string]Gateway

func NewGateways(gs ...Gateway) Gateways {
	out := make(Gateways, len(gs))
	for _, g := range gs {
		out[g.Name()] = g
	}
	return out
}

// DefaultGateways is the dispatch table used by checkout: Razorpay and
// PayPal.
func DefaultGateways(loader *Loader, clientIDs ClientIDSource) Gateways {
	return NewGateways(NewRazorpay(loader), NewPayPal(loader, clientIDs))
}

func (g Gateways) Lookup(name string) (Gateway, error) {
	gw, ok := g[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, name)
	}
	return gw, nil
}

// vendorError wraps a failure the vendor UI reported.
func vendorError(gateway string, res WidgetResult) error {
	msg := strings.TrimSpace(res.Error)
	if msg == "" {
		msg = "payment failed"
	}
	return fmt.Errorf("%s: %s", gateway, msg)
}
