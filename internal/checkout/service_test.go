package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/payment/paymenttest"
	"storefront/internal/service/paymentmethod"
)

// world is an in-memory storefront recording the order of collaborator
// calls.
type world struct {
	calls []string

	cart      *domain.Cart
	cartErr   error
	prices    map[string]int64
	methods   map[string]domain.PaymentMethod
	orders    map[string]*domain.Order
	byKey     map[string]string
	createErr error
	nextID    int
	// beforeCreate runs ahead of every insert, standing in for a concurrent
	// submit that commits first.
	beforeCreate func()

	intent      payment.Intent
	initiateErr error
	initiated   []payment.InitiateRequest
	verified    bool
	verifyErr   error
	verifyReqs  []payment.VerifyRequest
	notified    []string
	notifyErr   error
}

func newWorld() *world {
	return &world{
		cart: &domain.Cart{
			ID:         "cart-1",
			TotalCents: 12000,
			Lines: []domain.CartLine{
				{ProductID: "mug", Quantity: 2, UnitPriceCents: 2500},
				{ProductID: "tee", Quantity: 1, UnitPriceCents: 7000},
			},
		},
		prices: map[string]int64{"mug": 2500, "tee": 7000},
		methods: map[string]domain.PaymentMethod{
			"Cash on Delivery": {Name: "Cash on Delivery", Type: domain.MethodTypeCOD, Enabled: true},
			"Razorpay":         {Name: "Razorpay", Type: domain.MethodTypeRazorpay, Enabled: true},
			"PayPal":           {Name: "PayPal", Type: domain.MethodTypePayPal, Enabled: true, Config: map[string]interface{}{"client_id": "sb"}},
			"Stripe":           {Name: "Stripe", Type: domain.MethodTypeStripe, Enabled: false},
		},
		orders:   map[string]*domain.Order{},
		byKey:    map[string]string{},
		verified: true,
	}
}

func (w *world) Active(context.Context, string, domain.Owner) (*domain.Cart, error) {
	w.calls = append(w.calls, "cart.active")
	if w.cartErr != nil {
		return nil, w.cartErr
	}
	if w.cart == nil {
		return nil, domain.ErrNotFound
	}
	c := *w.cart
	return &c, nil
}

func (w *world) Clear(_ context.Context, cartID string) error {
	w.calls = append(w.calls, "cart.clear")
	if w.cart != nil && w.cart.ID == cartID {
		w.cart.Lines = nil
		w.cart.TotalCents = 0
	}
	return nil
}

func (w *world) CurrentPrices(_ context.Context, _ string, ids []string) (map[string]int64, error) {
	out := map[string]int64{}
	for _, id := range ids {
		if p, ok := w.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (w *world) Resolve(_ context.Context, _, name string) (*domain.PaymentMethod, error) {
	m, ok := w.methods[name]
	if !ok || !m.Enabled {
		return nil, paymentmethod.ErrUnavailable
	}
	return &m, nil
}

func (w *world) Create(_ context.Context, o domain.Order, items []domain.OrderItem) (*domain.Order, error) {
	w.calls = append(w.calls, "orders.create")
	if hook := w.beforeCreate; hook != nil {
		w.beforeCreate = nil
		hook()
	}
	if w.createErr != nil {
		return nil, w.createErr
	}
	if o.IdempotencyKey != "" {
		if _, dup := w.byKey[o.IdempotencyKey]; dup {
			return nil, domain.ErrAlreadyExists
		}
	}
	w.nextID++
	o.ID = fmt.Sprintf("order-%d", w.nextID)
	for _, it := range items {
		it.OrderID = o.ID
		o.Items = append(o.Items, it)
	}
	stored := o
	w.orders[o.ID] = &stored
	if o.IdempotencyKey != "" {
		w.byKey[o.IdempotencyKey] = o.ID
	}
	out := stored
	return &out, nil
}

func (w *world) GetByIdempotencyKey(_ context.Context, _, key string) (*domain.Order, error) {
	id, ok := w.byKey[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *w.orders[id]
	return &out, nil
}

func (w *world) MarkPaid(_ context.Context, _, id, ref string) error {
	w.calls = append(w.calls, "orders.paid")
	o := w.orders[id]
	o.PaymentStatus = domain.PaymentStatusPaid
	o.PaymentReference = ref
	return nil
}

func (w *world) Initiate(_ context.Context, req payment.InitiateRequest) (payment.Intent, error) {
	w.calls = append(w.calls, "initiate")
	w.initiated = append(w.initiated, req)
	return w.intent, w.initiateErr
}

func (w *world) Verify(_ context.Context, req payment.VerifyRequest) (bool, error) {
	w.calls = append(w.calls, "verify")
	w.verifyReqs = append(w.verifyReqs, req)
	return w.verified, w.verifyErr
}

func (w *world) OrderPlaced(_ context.Context, o domain.Order) error {
	w.notified = append(w.notified, o.ID)
	return w.notifyErr
}

func (w *world) PayPalClientID(context.Context, string) (string, error) {
	return "sb", nil
}

func (w *world) service() *Service {
	return New(Deps{
		Carts:     w,
		Prices:    w,
		Methods:   w,
		Orders:    w,
		Initiator: w,
		Verifier:  w,
		Gateways:  payment.DefaultGateways(payment.NewLoader(nil), w),
		Notifier:  w,
		Currency:  "USD",
	})
}

func (w *world) count(call string) int {
	n := 0
	for _, c := range w.calls {
		if c == call {
			n++
		}
	}
	return n
}

func validForm(method string) Form {
	return Form{
		PaymentMethod: method,
		Shipping: domain.ShippingAddress{
			Name: "Asha", Email: "asha@example.com", Phone: "9000000000",
			Street: "1 MG Road", City: "Pune", State: "MH", Zip: "411001", Country: "IN",
		},
	}
}

func guest() domain.Owner { return domain.Owner{AnonymousID: "anon-1"} }

func razorpaySuccess() payment.WidgetResult {
	return payment.WidgetResult{Event: payment.EventSuccess, Data: map[string]string{
		"razorpay_payment_id": "pay_1",
		"razorpay_order_id":   "order_abc",
		"razorpay_signature":  "sig_1",
	}}
}

func TestSubmitCashOnDelivery(t *testing.T) {
	w := newWorld()
	out, err := w.service().Submit(context.Background(), Request{
		WebsiteID: "site",
		Owner:     guest(),
		Form:      validForm("Cash on Delivery"),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(w.orders) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(w.orders))
	}
	o := w.orders[out.OrderID]
	if o.TotalCents != 12000 || o.PaymentMethod != "Cash on Delivery" {
		t.Fatalf("unexpected order %+v", o)
	}
	if o.Status != domain.OrderStatusPending || o.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("expected pending/pending, got %s/%s", o.Status, o.PaymentStatus)
	}
	if len(o.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(o.Items))
	}
	if o.Guest == nil || o.Guest.Email != "asha@example.com" || o.AnonymousID == nil || o.CustomerID != nil {
		t.Fatalf("expected guest ownership, got %+v", o)
	}
	if !w.cart.IsEmpty() {
		t.Fatalf("expected cart cleared")
	}
	if out.State != StateCODComplete || out.Redirect != "/order-success?orderId="+out.OrderID {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if w.count("initiate") != 0 || w.count("verify") != 0 {
		t.Fatalf("COD must not call initiator or verifier: %v", w.calls)
	}
	if len(w.notified) != 1 {
		t.Fatalf("expected one placed notification")
	}
}

func TestSubmitRazorpayVerified(t *testing.T) {
	w := newWorld()
	w.cart.TotalCents = 25000
	w.intent = payment.Intent{Gateway: "razorpay", Key: "rzp_test_x", OrderID: "order_abc"}
	page := paymenttest.NewPage()
	page.Results = []payment.WidgetResult{razorpaySuccess()}

	out, err := w.service().Submit(context.Background(), Request{
		WebsiteID:   "site",
		Owner:       domain.Owner{CustomerID: "cust-1"},
		AccessToken: "cust-token",
		Form:        validForm("Razorpay"),
		Page:        page,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	want := []string{"cart.active", "orders.create", "initiate", "verify", "orders.paid", "cart.clear"}
	if fmt.Sprint(w.calls) != fmt.Sprint(want) {
		t.Fatalf("unexpected call order\n got %v\nwant %v", w.calls, want)
	}

	ir := w.initiated[0]
	if ir.OrderID != out.OrderID || ir.Amount.StringFixed(2) != "250.00" || ir.PaymentMethod != "Razorpay" || ir.AccessToken != "cust-token" {
		t.Fatalf("unexpected initiate request %+v", ir)
	}
	v := w.verifyReqs[0]
	if v.OrderID != out.OrderID || v.PaymentID != "pay_1" || v.GatewayOrderID != "order_abc" || v.Signature != "sig_1" || v.Gateway != "razorpay" {
		t.Fatalf("unexpected verify request %+v", v)
	}
	if out.State != StateComplete || w.orders[out.OrderID].PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected completed paid order, got %+v", out)
	}
	wantTrail := []State{StateCollectingShipping, StateSubmitting, StateAwaitingGateway, StateVerifying, StateComplete}
	if fmt.Sprint(out.Trail) != fmt.Sprint(wantTrail) {
		t.Fatalf("unexpected trail %v", out.Trail)
	}
}

func TestSubmitVerificationRejectedKeepsCart(t *testing.T) {
	w := newWorld()
	w.verified = false
	w.intent = payment.Intent{Gateway: "razorpay", Key: "rzp_test_x", OrderID: "order_abc"}
	page := paymenttest.NewPage()
	page.Results = []payment.WidgetResult{razorpaySuccess(), razorpaySuccess()}
	svc := w.service()

	req := Request{WebsiteID: "site", Owner: guest(), Form: validForm("Razorpay"), Page: page, IdempotencyKey: "attempt-1"}
	_, err := svc.Submit(context.Background(), req)
	if !errors.Is(err, ErrProcessingFailed) || !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected processing failure caused by verification, got %v", err)
	}
	if err.Error() != "Order processing failed. Please try again." {
		t.Fatalf("unexpected message %q", err.Error())
	}
	var perr *ProcessingError
	if !errors.As(err, &perr) || perr.Stage != StateVerifying || perr.OrderID == "" {
		t.Fatalf("expected failure at verifying with order id, got %+v", perr)
	}
	if w.cart.IsEmpty() || w.count("cart.clear") != 0 {
		t.Fatalf("cart must not be cleared when verification fails")
	}
	if w.orders[perr.OrderID].Status != domain.OrderStatusPending {
		t.Fatalf("order must stay pending")
	}

	// Retrying the same attempt reuses the order.
	w.verified = true
	out, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(w.orders) != 1 || out.OrderID != perr.OrderID {
		t.Fatalf("retry must not duplicate the order, orders=%d", len(w.orders))
	}
	if w.count("orders.create") != 1 || len(w.orders[out.OrderID].Items) != 2 {
		t.Fatalf("retry must not duplicate line items")
	}
	if !w.cart.IsEmpty() {
		t.Fatalf("expected cart cleared after verified retry")
	}
}

func TestSubmitReplayOfPaidOrder(t *testing.T) {
	w := newWorld()
	w.intent = payment.Intent{Gateway: "razorpay", Key: "rzp_test_x", OrderID: "order_abc"}
	page := paymenttest.NewPage()
	page.Results = []payment.WidgetResult{razorpaySuccess()}
	svc := w.service()
	req := Request{WebsiteID: "site", Owner: guest(), Form: validForm("Razorpay"), Page: page, IdempotencyKey: "attempt-2"}

	first, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	second, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.OrderID != first.OrderID || second.State != StateComplete {
		t.Fatalf("unexpected replay outcome %+v", second)
	}
	if w.count("initiate") != 1 {
		t.Fatalf("replay of a paid order must not pay again")
	}
}

func TestSubmitPayPalCancelLeavesNoOverlay(t *testing.T) {
	w := newWorld()
	w.intent = payment.Intent{Gateway: "paypal"}
	page := paymenttest.NewPage()
	page.Results = []payment.WidgetResult{{Event: payment.EventCancel, Data: map[string]string{"source": "overlay"}}}

	_, err := w.service().Submit(context.Background(), Request{WebsiteID: "site", Owner: guest(), Form: validForm("PayPal"), Page: page})
	if !errors.Is(err, payment.ErrPaymentCancelled) || !errors.Is(err, ErrProcessingFailed) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if live := page.Live(); len(live) != 0 {
		t.Fatalf("overlay left behind: %v", live)
	}
	if w.count("verify") != 0 || w.count("cart.clear") != 0 {
		t.Fatalf("cancelled payment must not verify or clear: %v", w.calls)
	}
}

func TestSubmitUnknownGateway(t *testing.T) {
	w := newWorld()
	w.intent = payment.Intent{Gateway: "stripe", Key: "pk", ClientSecret: "cs"}
	page := paymenttest.NewPage()

	_, err := w.service().Submit(context.Background(), Request{WebsiteID: "site", Owner: guest(), Form: validForm("Razorpay"), Page: page})
	if !errors.Is(err, payment.ErrUnknownGateway) {
		t.Fatalf("expected unknown gateway, got %v", err)
	}
	if len(page.Opened()) != 0 {
		t.Fatalf("no widget should open")
	}
}

func TestSubmitInitiationFailureAfterPersist(t *testing.T) {
	w := newWorld()
	w.initiateErr = payment.ErrInitiationFailed
	_, err := w.service().Submit(context.Background(), Request{WebsiteID: "site", Owner: guest(), Form: validForm("Razorpay"), Page: paymenttest.NewPage()})
	if !errors.Is(err, payment.ErrInitiationFailed) || !errors.Is(err, ErrProcessingFailed) {
		t.Fatalf("expected initiation failure, got %v", err)
	}
	if len(w.orders) != 1 {
		t.Fatalf("the pending order must be left in place")
	}
	if w.count("initiate") != 1 {
		t.Fatalf("initiation must not be retried")
	}
}

func TestSubmitPersistenceFailureStopsBeforePayment(t *testing.T) {
	w := newWorld()
	w.createErr = errors.New("insert failed")
	_, err := w.service().Submit(context.Background(), Request{WebsiteID: "site", Owner: guest(), Form: validForm("Razorpay"), Page: paymenttest.NewPage()})
	if !errors.Is(err, ErrProcessingFailed) {
		t.Fatalf("expected processing failure, got %v", err)
	}
	if w.count("initiate") != 0 {
		t.Fatalf("payment must not start without persisted items")
	}
}

func TestSubmitReplayOfCODOrderKeepsNewCart(t *testing.T) {
	w := newWorld()
	svc := w.service()
	req := Request{WebsiteID: "site", Owner: guest(), Form: validForm("Cash on Delivery"), IdempotencyKey: "cod-1"}

	first, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// The shopper keeps browsing and fills a new cart.
	w.cart.Lines = []domain.CartLine{{ProductID: "tee", Quantity: 3, UnitPriceCents: 7000}}
	w.cart.TotalCents = 21000

	second, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.OrderID != first.OrderID || second.State != StateCODComplete || second.Redirect != SuccessPath(first.OrderID) {
		t.Fatalf("unexpected replay outcome %+v", second)
	}
	if len(w.cart.Lines) != 1 || w.count("cart.clear") != 1 {
		t.Fatalf("replay must not clear the new cart: lines=%d calls=%v", len(w.cart.Lines), w.calls)
	}
	if len(w.notified) != 1 {
		t.Fatalf("expected one placed notification, got %v", w.notified)
	}
	if len(w.orders) != 1 {
		t.Fatalf("expected one order, got %d", len(w.orders))
	}
}

func TestSubmitConcurrentDuplicateResumesWinner(t *testing.T) {
	w := newWorld()
	w.intent = payment.Intent{Gateway: "razorpay", Key: "rzp_test_x", OrderID: "order_abc"}
	page := paymenttest.NewPage()
	page.Results = []payment.WidgetResult{razorpaySuccess()}
	svc := w.service()
	req := Request{WebsiteID: "site", Owner: guest(), Form: validForm("Razorpay"), Page: page, IdempotencyKey: "race-1"}

	// The other request commits header and items between our key lookup and
	// our insert.
	var winner *domain.Order
	w.beforeCreate = func() {
		o, err := w.Create(context.Background(), domain.Order{
			WebsiteID:      "site",
			TotalCents:     12000,
			PaymentMethod:  "Razorpay",
			PaymentStatus:  domain.PaymentStatusPending,
			Status:         domain.OrderStatusPending,
			IdempotencyKey: "race-1",
		}, []domain.OrderItem{{ProductID: "mug", Quantity: 2, UnitPriceCents: 2500}, {ProductID: "tee", Quantity: 1, UnitPriceCents: 7000}})
		if err != nil {
			t.Fatalf("winner insert: %v", err)
		}
		winner = o
	}

	out, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.OrderID != winner.ID || len(w.orders) != 1 {
		t.Fatalf("expected to resume the winner's order, got %+v orders=%d", out, len(w.orders))
	}
	if got := len(w.orders[winner.ID].Items); got != 2 {
		t.Fatalf("expected the winner's 2 items only, got %d", got)
	}
	if out.State != StateComplete || w.count("initiate") != 1 {
		t.Fatalf("unexpected outcome %+v calls=%v", out, w.calls)
	}
}

func TestSubmitGuards(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		w := newWorld()
		w.cart.Lines = nil
		_, err := w.service().Submit(context.Background(), Request{WebsiteID: "site", Owner: guest(), Form: validForm("Cash on Delivery")})
		if !errors.Is(err, ErrEmptyCart) {
			t.Fatalf("expected ErrEmptyCart, got %v", err)
		}
	})
	t.Run("no cart", func(t *testing.T) {
		w := newWorld()
		w.cart = nil
		_, err := w.service().Submit(context.Background(), Request{WebsiteID: "site", Owner: guest(), Form: validForm("Cash on Delivery")})
		if !errors.Is(err, ErrEmptyCart) {
			t.Fatalf("expected ErrEmptyCart, got %v", err)
		}
	})
	t.Run("blank fields", func(t *testing.T) {
		w := newWorld()
		form := validForm("")
		form.Shipping.Zip = "  "
		_, err := w.service().Submit(context.Background(), Request{WebsiteID: "site", Owner: guest(), Form: form})
		var ferr *FormError
		if !errors.As(err, &ferr) || !errors.Is(err, ErrInvalidForm) {
			t.Fatalf("expected form error, got %v", err)
		}
		if fmt.Sprint(ferr.Fields) != "[zip paymentMethod]" {
			t.Fatalf("unexpected fields %v", ferr.Fields)
		}
		if len(w.orders) != 0 {
			t.Fatalf("no order may be created")
		}
	})
	t.Run("disabled method", func(t *testing.T) {
		w := newWorld()
		_, err := w.service().Submit(context.Background(), Request{WebsiteID: "site", Owner: guest(), Form: validForm("Stripe"), Page: paymenttest.NewPage()})
		if !errors.Is(err, ErrInvalidForm) {
			t.Fatalf("expected ErrInvalidForm, got %v", err)
		}
	})
	t.Run("gateway without page", func(t *testing.T) {
		w := newWorld()
		_, err := w.service().Submit(context.Background(), Request{WebsiteID: "site", Owner: guest(), Form: validForm("Razorpay")})
		if !errors.Is(err, ErrPageRequired) {
			t.Fatalf("expected ErrPageRequired, got %v", err)
		}
		if len(w.orders) != 0 {
			t.Fatalf("no order may be created")
		}
	})
}

func TestSubmitUsesCurrentPriceForItems(t *testing.T) {
	w := newWorld()
	w.prices["mug"] = 3000
	delete(w.prices, "tee")

	out, err := w.service().Submit(context.Background(), Request{WebsiteID: "site", Owner: guest(), Form: validForm("Cash on Delivery")})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	o := w.orders[out.OrderID]
	if o.TotalCents != 12000 {
		t.Fatalf("order total stays the cart subtotal, got %d", o.TotalCents)
	}
	got := map[string]int64{}
	for _, it := range o.Items {
		got[it.ProductID] = it.UnitPriceCents
	}
	if got["mug"] != 3000 || got["tee"] != 7000 {
		t.Fatalf("unexpected item prices %v", got)
	}
}

func TestNotifierFailureIsNotFatal(t *testing.T) {
	w := newWorld()
	w.notifyErr = errors.New("broker down")
	if _, err := w.service().Submit(context.Background(), Request{WebsiteID: "site", Owner: guest(), Form: validForm("Cash on Delivery")}); err != nil {
		t.Fatalf("expected success despite notifier failure, got %v", err)
	}
}
