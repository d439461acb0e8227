package payment

import (
	"context"
	"io"
	"log"
	"net/url"
)

// Script is a vendor SDK and the global it defines once loaded.
type Script struct {
	URL    string
	Global string
}

// Loader injects vendor SDKs into a page at most once per page lifetime.
type Loader struct {
	logger *log.Logger
}

func NewLoader(logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Loader{logger: logger}
}

// Load makes sure the script's global exists on the page. It reports false
// when the script failed to load; it never returns an error so callers can
// raise their own vendor specific failure.
func (l *Loader) Load(ctx context.Context, page Page, s Script) bool {
	if page.HasGlobal(s.Global) {
		return true
	}
	if err := page.InjectScript(ctx, s.URL, s.Global); err != nil {
		l.logger.Printf("payment: script load failed page=%s src=%s error=%v", page.ID(), s.URL, err)
		return false
	}
	return true
}

// PayPalSDK returns the PayPal JS SDK script for a client id and currency.
func PayPalSDK(clientID, currency string) Script {
	q := url.Values{}
	q.Set("client-id", clientID)
	q.Set("currency", currency)
	return Script{URL: "https://www.paypal.com/sdk/js?" + q.Encode(), Global: "paypal"}
}

var (
	RazorpaySDK = Script{URL: "https://checkout.razorpay.com/v1/checkout.js", Global: "Razorpay"}
	StripeSDK   = Script{URL: "https://js.stripe.com/v3/", Global: "Stripe"}
)
