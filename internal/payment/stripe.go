package payment

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
)

// Stripe confirms a card payment against a client secret. It is not part of
// DefaultGateways: the create-payment procedure never returns a stripe
// intent today.
type Stripe struct {
	loader *Loader
}

func NewStripe(loader *Loader) *Stripe {
	return &Stripe{loader: loader}
}

func (s *Stripe) Name() string { return domain.MethodTypeStripe }

func (s *Stripe) Pay(ctx context.Context, page Page, c Charge) (Result, error) {
	if c.Intent.ClientSecret == "" {
		return Result{}, errors.New("stripe: intent has no client secret")
	}
	if !s.loader.Load(ctx, page, StripeSDK) {
		return Result{}, fmt.Errorf("stripe: failed to load Stripe.js")
	}

	res, err := page.Open(ctx, Widget{
		Kind: WidgetStripeConfirm,
		Options: map[string]interface{}{
			"publishableKey": c.Intent.Key,
			"clientSecret":   c.Intent.ClientSecret,
			"billingDetails": map[string]string{
				"name":  c.Shopper.Name,
				"email": c.Shopper.Email,
				"phone": c.Shopper.Phone,
			},
		},
	})
	if err != nil {
		return Result{}, err
	}

	switch res.Event {
	case EventSuccess:
		return Result{PaymentID: res.Data["paymentIntentId"]}, nil
	case EventDismiss, EventCancel:
		return Result{}, ErrPaymentCancelled
	default:
		return Result{}, vendorError("stripe", res)
	}
}
