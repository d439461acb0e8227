package payment_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/payment"
	"storefront/internal/payment/paymenttest"
)

type staticClientID struct {
	id  string
	err error
}

func (s staticClientID) PayPalClientID(context.Context, string) (string, error) {
	return s.id, s.err
}

func razorpayCharge() payment.Charge {
	return payment.Charge{
		WebsiteID: "site",
		StoreName: "Demo Store",
		OrderID:   "o-1",
		Amount:    decimal.RequireFromString("250.00"),
		Currency:  "USD",
		Intent:    payment.Intent{Gateway: "razorpay", Key: "rzp_test_x", OrderID: "order_abc"},
		Shopper:   payment.Shopper{Name: "Asha", Email: "asha@example.com", Phone: "9000000000"},
	}
}

func TestRazorpayNormalizesSuccess(t *testing.T) {
	page := paymenttest.NewPage()
	page.Results = []payment.WidgetResult{{
		Event: payment.EventSuccess,
		Data: map[string]string{
			"razorpay_payment_id": "pay_1",
			"razorpay_order_id":   "order_abc",
			"razorpay_signature":  "sig_1",
		},
	}}

	res, err := payment.NewRazorpay(payment.NewLoader(nil)).Pay(context.Background(), page, razorpayCharge())
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if res != (payment.Result{PaymentID: "pay_1", OrderID: "order_abc", Signature: "sig_1"}) {
		t.Fatalf("unexpected result %+v", res)
	}

	opened := page.Opened()
	if len(opened) != 1 || opened[0].Kind != payment.WidgetRazorpayCheckout {
		t.Fatalf("expected razorpay widget, got %+v", opened)
	}
	opts := opened[0].Options
	if opts["key"] != "rzp_test_x" || opts["order_id"] != "order_abc" || opts["amount"] != int64(25000) {
		t.Fatalf("unexpected options %v", opts)
	}
	prefill := opts["prefill"].(map[string]string)
	if prefill["name"] != "Asha" || prefill["email"] != "asha@example.com" || prefill["contact"] != "9000000000" {
		t.Fatalf("unexpected prefill %v", prefill)
	}
}

func TestRazorpayDismissIsCancellation(t *testing.T) {
	page := paymenttest.NewPage("Razorpay")
	page.Results = []payment.WidgetResult{{Event: payment.EventDismiss}}

	_, err := payment.NewRazorpay(payment.NewLoader(nil)).Pay(context.Background(), page, razorpayCharge())
	if !errors.Is(err, payment.ErrPaymentCancelled) {
		t.Fatalf("expected ErrPaymentCancelled, got %v", err)
	}
	if err.Error() != "Payment cancelled by user" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestRazorpayVendorFailureCarriesDescription(t *testing.T) {
	page := paymenttest.NewPage("Razorpay")
	page.Results = []payment.WidgetResult{{Event: payment.EventError, Error: "Card declined"}}

	_, err := payment.NewRazorpay(payment.NewLoader(nil)).Pay(context.Background(), page, razorpayCharge())
	if err == nil || !strings.Contains(err.Error(), "Card declined") {
		t.Fatalf("expected vendor description, got %v", err)
	}
}

func TestRazorpaySDKLoadFailure(t *testing.T) {
	page := paymenttest.NewPage()
	page.FailScripts[payment.RazorpaySDK.URL] = true

	_, err := payment.NewRazorpay(payment.NewLoader(nil)).Pay(context.Background(), page, razorpayCharge())
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(page.Opened()) != 0 {
		t.Fatalf("widget must not open without SDK")
	}
}

func paypalCharge() payment.Charge {
	return payment.Charge{
		WebsiteID: "site",
		OrderID:   "o-2",
		Amount:    decimal.RequireFromString("42.5"),
		Currency:  "USD",
		Intent:    payment.Intent{Gateway: "paypal"},
	}
}

func TestPayPalOverlayRemovedOnEveryPath(t *testing.T) {
	cases := []struct {
		name    string
		result  payment.WidgetResult
		wantErr error
	}{
		{"approve", payment.WidgetResult{Event: payment.EventSuccess, Data: map[string]string{"paymentId": "CAP-1", "orderId": "PP-1"}}, nil},
		{"vendor cancel", payment.WidgetResult{Event: payment.EventCancel}, payment.ErrPaymentCancelled},
		{"cancel button", payment.WidgetResult{Event: payment.EventCancel, Data: map[string]string{"source": "overlay"}}, payment.ErrPaymentCancelled},
		{"vendor error", payment.WidgetResult{Event: payment.EventError, Error: "INSTRUMENT_DECLINED"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := paymenttest.NewPage()
			page.Results = []payment.WidgetResult{tc.result}
			var liveDuringOpen []string
			page.OnOpen = func(p *paymenttest.Page, w payment.Widget) {
				liveDuringOpen = p.Live()
				if w.Container != "paypal-button-container" {
					t.Errorf("unexpected container %q", w.Container)
				}
			}

			res, err := payment.NewPayPal(payment.NewLoader(nil), staticClientID{id: "sb-client"}).Pay(context.Background(), page, paypalCharge())
			switch {
			case tc.result.Event == payment.EventSuccess:
				if err != nil || res.PaymentID != "CAP-1" || res.OrderID != "PP-1" {
					t.Fatalf("unexpected outcome %+v %v", res, err)
				}
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			default:
				if err == nil || !strings.Contains(err.Error(), "INSTRUMENT_DECLINED") {
					t.Fatalf("expected vendor error, got %v", err)
				}
			}

			if len(liveDuringOpen) != 1 || liveDuringOpen[0] != "paypal-overlay-o-2" {
				t.Fatalf("expected overlay mounted while open, got %v", liveDuringOpen)
			}
			if live := page.Live(); len(live) != 0 {
				t.Fatalf("overlay left in page: %v", live)
			}
		})
	}
}

func TestPayPalOverlayRemovedWhenPageFails(t *testing.T) {
	page := paymenttest.NewPage("paypal")
	_, err := payment.NewPayPal(payment.NewLoader(nil), staticClientID{id: "sb-client"}).Pay(context.Background(), page, paypalCharge())
	if err == nil {
		t.Fatalf("expected error when the page goes away")
	}
	if page.Mounts() != 1 || len(page.Live()) != 0 {
		t.Fatalf("expected overlay mounted once and released, mounts=%d live=%v", page.Mounts(), page.Live())
	}
}

func TestPayPalLoadsSDKWithClientID(t *testing.T) {
	page := paymenttest.NewPage()
	page.Results = []payment.WidgetResult{{Event: payment.EventSuccess, Data: map[string]string{"paymentId": "CAP-1"}}}

	if _, err := payment.NewPayPal(payment.NewLoader(nil), staticClientID{id: "sb-client"}).Pay(context.Background(), page, paypalCharge()); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	injected := page.Injected()
	if len(injected) != 1 || !strings.Contains(injected[0], "client-id=sb-client") {
		t.Fatalf("expected paypal sdk with client id, got %v", injected)
	}
	if amount := page.Opened()[0].Options["amount"]; amount != "42.50" {
		t.Fatalf("expected amount 42.50, got %v", amount)
	}
}

func TestPayPalMissingClientID(t *testing.T) {
	page := paymenttest.NewPage()
	_, err := payment.NewPayPal(payment.NewLoader(nil), staticClientID{err: errors.New("paypal client id not configured")}).Pay(context.Background(), page, paypalCharge())
	if err == nil {
		t.Fatalf("expected error")
	}
	if page.Mounts() != 0 || len(page.Injected()) != 0 {
		t.Fatalf("nothing should touch the page without a client id")
	}
}

func TestStripeConfirm(t *testing.T) {
	page := paymenttest.NewPage()
	page.Results = []payment.WidgetResult{{Event: payment.EventSuccess, Data: map[string]string{"paymentIntentId": "pi_1"}}}
	c := paypalCharge()
	c.Intent = payment.Intent{Gateway: "stripe", Key: "pk_test", ClientSecret: "pi_1_secret"}

	res, err := payment.NewStripe(payment.NewLoader(nil)).Pay(context.Background(), page, c)
	if err != nil || res.PaymentID != "pi_1" {
		t.Fatalf("unexpected outcome %+v %v", res, err)
	}
	if _, err := payment.NewStripe(payment.NewLoader(nil)).Pay(context.Background(), page, paypalCharge()); err == nil {
		t.Fatalf("expected error without client secret")
	}
}

func TestStripeCancelAndVendorFailure(t *testing.T) {
	c := paypalCharge()
	c.Intent = payment.Intent{Gateway: "stripe", Key: "pk_test", ClientSecret: "pi_2_secret"}
	page := paymenttest.NewPage("Stripe")
	page.Results = []payment.WidgetResult{
		{Event: payment.EventDismiss},
		{Event: payment.EventError, Error: "card_declined"},
	}
	stripe := payment.NewStripe(payment.NewLoader(nil))
	if stripe.Name() != "stripe" {
		t.Fatalf("unexpected name %q", stripe.Name())
	}

	if _, err := stripe.Pay(context.Background(), page, c); !errors.Is(err, payment.ErrPaymentCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	_, err := stripe.Pay(context.Background(), page, c)
	if err == nil || !strings.Contains(err.Error(), "card_declined") {
		t.Fatalf("expected vendor description, got %v", err)
	}
	if len(page.Injected()) != 0 {
		t.Fatalf("Stripe.js already defined, got injections %v", page.Injected())
	}
	opened := page.Opened()
	if opened[0].Kind != payment.WidgetStripeConfirm || opened[0].Options["clientSecret"] != "pi_2_secret" {
		t.Fatalf("unexpected widget %+v", opened[0])
	}
}

func TestDefaultGatewaysExcludeStripe(t *testing.T) {
	gws := payment.DefaultGateways(payment.NewLoader(nil), staticClientID{})
	for _, name := range []string{"razorpay", "PayPal"} {
		if _, err := gws.Lookup(name); err != nil {
			t.Fatalf("expected %s in default gateways: %v", name, err)
		}
	}
	if _, err := gws.Lookup("stripe"); !errors.Is(err, payment.ErrUnknownGateway) {
		t.Fatalf("expected stripe to be unreachable, got %v", err)
	}
}
