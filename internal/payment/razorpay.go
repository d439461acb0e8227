package payment

import (
	"context"
	"fmt"

	"storefront/internal/domain"
)

type Razorpay struct {
	loader *Loader
}

func NewRazorpay(loader *Loader) *Razorpay {
	return &Razorpay{loader: loader}
}

func (r *Razorpay) Name() string { return domain.MethodTypeRazorpay }

// Pay opens the Razorpay checkout modal. Dismissing the modal yields
// ErrPaymentCancelled.
func (r *Razorpay) Pay(ctx context.Context, page Page, c Charge) (Result, error) {
	if !r.loader.Load(ctx, page, RazorpaySDK) {
		return Result{}, fmt.Errorf("razorpay: failed to load checkout SDK")
	}

	amount := c.Intent.Amount
	if amount.IsZero() {
		amount = c.Amount.Shift(2)
	}
	currency := c.Intent.Currency
	if currency == "" {
		currency = c.Currency
	}
	res, err := page.Open(ctx, Widget{
		Kind: WidgetRazorpayCheckout,
		Options: map[string]interface{}{
			"key":         c.Intent.Key,
			"amount":      amount.IntPart(),
			"currency":    currency,
			"order_id":    c.Intent.OrderID,
			"name":        c.StoreName,
			"description": "Order " + c.OrderID,
			"prefill": map[string]string{
				"name":    c.Shopper.Name,
				"email":   c.Shopper.Email,
				"contact": c.Shopper.Phone,
			},
		},
	})
	if err != nil {
		return Result{}, err
	}

	switch res.Event {
	case EventSuccess:
		return Result{
			PaymentID: res.Data["razorpay_payment_id"],
			OrderID:   res.Data["razorpay_order_id"],
			Signature: res.Data["razorpay_signature"],
		}, nil
	case EventDismiss, EventCancel:
		return Result{}, ErrPaymentCancelled
	default:
		return Result{}, vendorError("razorpay", res)
	}
}
