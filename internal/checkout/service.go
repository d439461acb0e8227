package checkout

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/service/paymentmethod"
)

type Carts interface {
	Active(ctx context.Context, websiteID string, owner domain.Owner) (*domain.Cart, error)
	Clear(ctx context.Context, cartID string) error
}

type Prices interface {
	CurrentPrices(ctx context.Context, websiteID string, productIDs []string) (map[string]int64, error)
}

type Methods interface {
	Resolve(ctx context.Context, websiteID, name string) (*domain.PaymentMethod, error)
}

type Orders interface {
	// Create stores the header and items atomically.
	Create(ctx context.Context, o domain.Order, items []domain.OrderItem) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, websiteID, key string) (*domain.Order, error)
	MarkPaid(ctx context.Context, websiteID, id, paymentReference string) error
}

type Initiator interface {
	Initiate(ctx context.Context, req payment.InitiateRequest) (payment.Intent, error)
}

type Verifier interface {
	Verify(ctx context.Context, req payment.VerifyRequest) (bool, error)
}

// Notifier is told about every completed order. Its failures never fail the
// checkout.
type Notifier interface {
	OrderPlaced(ctx context.Context, o domain.Order) error
}

type Deps struct {
	Carts     Carts
	Prices    Prices
	Methods   Methods
	Orders    Orders
	Initiator Initiator
	Verifier  Verifier
	Gateways  payment.Gateways
	Notifier  Notifier
	Currency  string
	Logger    *log.Logger
}

// Service runs checkout attempts. Each Submit is a single linear sequence;
// nothing is retried and a persisted order is never deleted.
type Service struct {
	carts     Carts
	prices    Prices
	methods   Methods
	orders    Orders
	initiator Initiator
	verifier  Verifier
	gateways  payment.Gateways
	notifier  Notifier
	currency  string
	logger    *log.Logger
}

func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	currency := d.Currency
	if currency == "" {
		currency = "USD"
	}
	return &Service{
		carts:     d.Carts,
		prices:    d.Prices,
		methods:   d.Methods,
		orders:    d.Orders,
		initiator: d.Initiator,
		verifier:  d.Verifier,
		gateways:  d.Gateways,
		notifier:  d.Notifier,
		currency:  currency,
		logger:    logger,
	}
}

// attempt tracks one Submit through its states.
type attempt struct {
	req    Request
	method *domain.PaymentMethod
	cart   *domain.Cart
	order  *domain.Order
	trail  []State
}

func (a *attempt) enter(s State) {
	a.trail = append(a.trail, s)
}

func (a *attempt) current() State {
	return a.trail[len(a.trail)-1]
}

// Submit places the order described by req. Guard failures (ErrEmptyCart,
// ErrInvalidForm, ErrPageRequired) are returned as is; every later failure
// is logged once and returned as a *ProcessingError.
func (s *Service) Submit(ctx context.Context, req Request) (*Outcome, error) {
	a := &attempt{req: req}
	a.enter(StateCollectingShipping)

	if req.IdempotencyKey != "" {
		existing, err := s.orders.GetByIdempotencyKey(ctx, req.WebsiteID, req.IdempotencyKey)
		switch {
		case err == nil:
			return s.resume(ctx, a, existing)
		case !errors.Is(err, domain.ErrNotFound):
			return nil, s.fail(a, err)
		}
	}

	if err := s.guard(ctx, a); err != nil {
		return nil, err
	}

	a.enter(StateSubmitting)
	s.logger.Printf("checkout: submitting website_id=%s method=%q lines=%d", req.WebsiteID, a.method.Name, len(a.cart.Lines))
	order, err := s.place(ctx, a)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// A concurrent submit with the same key won the insert; its items
		// were committed with it.
		existing, getErr := s.orders.GetByIdempotencyKey(ctx, req.WebsiteID, req.IdempotencyKey)
		if getErr != nil {
			return nil, s.fail(a, getErr)
		}
		return s.resume(ctx, a, existing)
	}
	if err != nil {
		return nil, s.fail(a, err)
	}
	a.order = order

	if a.method.IsCOD() {
		return s.finishCOD(ctx, a)
	}
	return s.collect(ctx, a)
}

// guard loads the cart and checks the form. It resolves the payment method.
func (s *Service) guard(ctx context.Context, a *attempt) error {
	req := a.req
	cart, err := s.carts.Active(ctx, req.WebsiteID, req.Owner)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && cart.IsEmpty()) {
		return ErrEmptyCart
	}
	if err != nil {
		return err
	}
	a.cart = cart

	if err := req.Form.Validate(); err != nil {
		return err
	}
	method, err := s.methods.Resolve(ctx, req.WebsiteID, req.Form.PaymentMethod)
	if errors.Is(err, paymentmethod.ErrUnavailable) {
		return &FormError{Fields: []string{"paymentMethod"}}
	}
	if err != nil {
		return err
	}
	a.method = method

	if !method.IsCOD() && req.Page == nil {
		return ErrPageRequired
	}
	return nil
}

// place persists the order header together with its line items. Items take
// the product's price at submit time, which may differ from the price the cart
// line was added at; the order total stays the cart subtotal.
func (s *Service) place(ctx context.Context, a *attempt) (*domain.Order, error) {
	req := a.req
	o := domain.Order{
		WebsiteID:       req.WebsiteID,
		TotalCents:      a.cart.TotalCents,
		Currency:        s.currency,
		Status:          domain.OrderStatusPending,
		PaymentMethod:   a.method.Name,
		PaymentStatus:   domain.PaymentStatusPending,
		ShippingAddress: req.Form.Shipping,
		IdempotencyKey:  req.IdempotencyKey,
	}
	if req.Owner.IsCustomer() {
		o.CustomerID = &req.Owner.CustomerID
	} else {
		anon := req.Owner.AnonymousID
		o.AnonymousID = &anon
		o.Guest = &domain.GuestContact{
			Name:  req.Form.Shipping.Name,
			Email: req.Form.Shipping.Email,
			Phone: req.Form.Shipping.Phone,
		}
	}

	items, err := s.lineItems(ctx, req.WebsiteID, a.cart)
	if err != nil {
		return nil, err
	}
	created, err := s.orders.Create(ctx, o, items)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("checkout: order persisted order_id=%s total_cents=%d items=%d", created.ID, created.TotalCents, len(items))
	return created, nil
}

func (s *Service) lineItems(ctx context.Context, websiteID string, cart *domain.Cart) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	prices, err := s.prices.CurrentPrices(ctx, websiteID, ids)
	if err != nil {
		return nil, err
	}
	items := make([]domain.OrderItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		price, ok := prices[l.ProductID]
		if !ok {
			s.logger.Printf("checkout: product gone, keeping cart price product_id=%s unit_cents=%d", l.ProductID, l.UnitPriceCents)
			price = l.UnitPriceCents
		} else if price != l.UnitPriceCents {
			s.logger.Printf("checkout: price changed since add to cart product_id=%s cart_cents=%d current_cents=%d", l.ProductID, l.UnitPriceCents, price)
		}
		items = append(items, domain.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, UnitPriceCents: price})
	}
	return items, nil
}

func (s *Service) finishCOD(ctx context.Context, a *attempt) (*Outcome, error) {
	if err := s.clearCart(ctx, a); err != nil {
		return nil, s.fail(a, err)
	}
	a.enter(StateCODComplete)
	s.notify(ctx, a.order)
	return s.outcome(a), nil
}

// collect runs initiate, the gateway UI and verification for a persisted
// order.
func (s *Service) collect(ctx context.Context, a *attempt) (*Outcome, error) {
	req := a.req
	o := a.order
	amount := decimal.New(o.TotalCents, -2)

	a.enter(StateAwaitingGateway)
	intent, err := s.initiator.Initiate(ctx, payment.InitiateRequest{
		OrderID:       o.ID,
		Amount:        amount,
		PaymentMethod: o.PaymentMethod,
		AccessToken:   req.AccessToken,
	})
	if err != nil {
		return nil, s.fail(a, err)
	}
	gw, err := s.gateways.Lookup(intent.Gateway)
	if err != nil {
		return nil, s.fail(a, err)
	}
	result, err := gw.Pay(ctx, req.Page, payment.Charge{
		WebsiteID: req.WebsiteID,
		StoreName: req.StoreName,
		OrderID:   o.ID,
		Amount:    amount,
		Currency:  o.Currency,
		Intent:    intent,
		Shopper: payment.Shopper{
			Name:  o.ShippingAddress.Name,
			Email: o.ShippingAddress.Email,
			Phone: o.ShippingAddress.Phone,
		},
	})
	if err != nil {
		return nil, s.fail(a, err)
	}

	a.enter(StateVerifying)
	verified, err := s.verifier.Verify(ctx, payment.VerifyRequest{
		OrderID:        o.ID,
		PaymentID:      result.PaymentID,
		Signature:      result.Signature,
		Gateway:        gw.Name(),
		GatewayOrderID: result.OrderID,
		AccessToken:    req.AccessToken,
	})
	if err != nil {
		return nil, s.fail(a, err)
	}
	if !verified {
		return nil, s.fail(a, ErrNotVerified)
	}

	if err := s.orders.MarkPaid(ctx, req.WebsiteID, o.ID, result.PaymentID); err != nil {
		return nil, s.fail(a, err)
	}
	o.PaymentStatus = domain.PaymentStatusPaid
	o.PaymentReference = result.PaymentID

	if err := s.clearCart(ctx, a); err != nil {
		return nil, s.fail(a, err)
	}
	a.enter(StateComplete)
	s.notify(ctx, o)
	return s.outcome(a), nil
}

// resume continues a submission that already created its order under the
// same idempotency key. No second order or item set is written. A cash on
// delivery order was complete the moment it was stored, so its replay
// touches neither the cart nor the outbox.
func (s *Service) resume(ctx context.Context, a *attempt, existing *domain.Order) (*Outcome, error) {
	a.order = existing
	a.enter(StateSubmitting)
	s.logger.Printf("checkout: resuming order_id=%s payment_status=%s", existing.ID, existing.PaymentStatus)

	if existing.PaymentStatus == domain.PaymentStatusPaid {
		a.enter(StateComplete)
		return s.outcome(a), nil
	}

	method, err := s.methods.Resolve(ctx, a.req.WebsiteID, existing.PaymentMethod)
	if err != nil {
		return nil, s.fail(a, err)
	}
	a.method = method
	if method.IsCOD() {
		a.enter(StateCODComplete)
		return s.outcome(a), nil
	}
	if a.req.Page == nil {
		return nil, ErrPageRequired
	}
	return s.collect(ctx, a)
}

func (s *Service) clearCart(ctx context.Context, a *attempt) error {
	cart := a.cart
	if cart == nil {
		c, err := s.carts.Active(ctx, a.req.WebsiteID, a.req.Owner)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		cart = c
	}
	return s.carts.Clear(ctx, cart.ID)
}

func (s *Service) notify(ctx context.Context, o *domain.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderPlaced(ctx, *o); err != nil {
		s.logger.Printf("checkout: order placed notification failed order_id=%s error=%v", o.ID, err)
	}
}

func (s *Service) fail(a *attempt, err error) error {
	stage := a.current()
	a.enter(StateFailed)
	orderID := ""
	if a.order != nil {
		orderID = a.order.ID
	}
	s.logger.Printf("checkout: failed order_id=%s stage=%s error=%v", orderID, stage, err)
	return &ProcessingError{OrderID: orderID, Stage: stage, Err: err}
}

func (s *Service) outcome(a *attempt) *Outcome {
	return &Outcome{
		State:    a.current(),
		OrderID:  a.order.ID,
		Redirect: SuccessPath(a.order.ID),
		Order:    a.order,
		Trail:    a.trail,
	}
}
