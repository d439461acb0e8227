package payment

import (
	"context"
	"fmt"

	"storefront/internal/domain"
)

// ClientIDSource resolves the public PayPal client id configured for a
// website.
type ClientIDSource interface {
	PayPalClientID(ctx context.Context, websiteID string) (string, error)
}

const payPalContainerID = "paypal-button-container"

type PayPal struct {
	loader    *Loader
	clientIDs ClientIDSource
}

func NewPayPal(loader *Loader, clientIDs ClientIDSource) *PayPal {
	return &PayPal{loader: loader, clientIDs: clientIDs}
}

func (p *PayPal) Name() string { return domain.MethodTypePayPal }

// Pay mounts a modal overlay, renders PayPal buttons into it and waits for
// approval. The overlay is removed before Pay returns, whatever the outcome.
func (p *PayPal) Pay(ctx context.Context, page Page, c Charge) (Result, error) {
	clientID, err := p.clientIDs.PayPalClientID(ctx, c.WebsiteID)
	if err != nil {
		return Result{}, fmt.Errorf("paypal: %w", err)
	}
	currency := c.Intent.Currency
	if currency == "" {
		currency = c.Currency
	}
	if !p.loader.Load(ctx, page, PayPalSDK(clientID, currency)) {
		return Result{}, fmt.Errorf("paypal: failed to load SDK")
	}

	release, err := page.Mount(ctx, payPalOverlay(c.OrderID))
	if err != nil {
		return Result{}, fmt.Errorf("paypal: mount overlay: %w", err)
	}
	defer release()

	res, err := page.Open(ctx, Widget{
		Kind:      WidgetPayPalButtons,
		Container: payPalContainerID,
		Options: map[string]interface{}{
			"amount":      c.Amount.StringFixed(2),
			"currency":    currency,
			"referenceId": c.OrderID,
		},
	})
	if err != nil {
		return Result{}, err
	}

	switch res.Event {
	case EventSuccess:
		return Result{PaymentID: res.Data["paymentId"], OrderID: res.Data["orderId"]}, nil
	case EventCancel, EventDismiss:
		return Result{}, ErrPaymentCancelled
	default:
		return Result{}, vendorError("paypal", res)
	}
}

// payPalOverlay builds the floating modal the PayPal buttons render into.
func payPalOverlay(orderID string) Element {
	return Element{
		ID:    "paypal-overlay-" + orderID,
		Tag:   "div",
		Class: "checkout-overlay",
		Attrs: map[string]string{"role": "dialog", "aria-modal": "true"},
		Children: []Element{{
			Tag:   "div",
			Class: "checkout-overlay__panel",
			Children: []Element{
				{Tag: "h3", Text: "Complete payment with PayPal"},
				{ID: payPalContainerID, Tag: "div"},
				{
					Tag:   "button",
					Class: "checkout-overlay__cancel",
					Attrs: map[string]string{"type": "button", "data-action": "cancel"},
					Text:  "Cancel",
				},
			},
		}},
	}
}
