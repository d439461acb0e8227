// Package checkout turns a shopper's cart into an order and, for online
// methods, collects payment for it through a gateway before clearing the
// cart.
package checkout

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/payment"
)

// State is a step of a checkout attempt.
type State string

const (
	StateCollectingShipping State = "collecting-shipping"
	StateSubmitting         State = "submitting"
	StateCODComplete        State = "cod-complete"
	StateAwaitingGateway    State = "awaiting-gateway"
	StateVerifying          State = "verifying"
	StateComplete           State = "complete"
	StateFailed             State = "failed"
)

var (
	// ErrEmptyCart rejects checkout of a missing or empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidForm rejects incomplete shipping data or an unusable method.
	ErrInvalidForm = errors.New("checkout form is incomplete")
	// ErrPageRequired rejects online payment when no checkout page is
	// connected to drive the vendor UI.
	ErrPageRequired = errors.New("checkout page not connected")
	// ErrProcessingFailed marks every failure after the order was submitted.
	ErrProcessingFailed = errors.New("Order processing failed. Please try again.")
	// ErrNotVerified is the cause when the verifier answers verified=false.
	ErrNotVerified = errors.New("payment verification failed")
)

// FormError lists the blank or invalid form fields.
type FormError struct {
	Fields []string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidForm, strings.Join(e.Fields, ", "))
}

func (e *FormError) Unwrap() error { return ErrInvalidForm }

// ProcessingError carries the cause of a failed submission. It matches
// ErrProcessingFailed and its cause under errors.Is.
type ProcessingError struct {
	OrderID string
	Stage   State
	Err     error
}

func (e *ProcessingError) Error() string { return ErrProcessingFailed.Error() }

func (e *ProcessingError) Unwrap() []error { return []error{ErrProcessingFailed, e.Err} }

// Form is what the shopper filled in on the checkout view.
type Form struct {
	Shipping      domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod string                 `json:"paymentMethod"`
}

// Validate reports every blank required field.
func (f Form) Validate() error {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	s := f.Shipping
	check("name", s.Name)
	check("email", s.Email)
	check("phone", s.Phone)
	check("street", s.Street)
	check("city", s.City)
	check("state", s.State)
	check("zip", s.Zip)
	check("country", s.Country)
	check("paymentMethod", f.PaymentMethod)
	if len(missing) > 0 {
		return &FormError{Fields: missing}
	}
	return nil
}

// Request is one submit of the checkout form.
type Request struct {
	WebsiteID string
	StoreName string
	Owner     domain.Owner
	// AccessToken authenticates a signed-in shopper to the payment
	// procedures. Guests leave it empty.
	AccessToken    string
	Form           Form
	IdempotencyKey string
	// Page drives the vendor UI. Only needed for online methods.
	Page payment.Page
}

// Outcome is a successfully finished checkout.
type Outcome struct {
	State    State         `json:"state"`
	OrderID  string        `json:"orderId"`
	Redirect string        `json:"redirect"`
	Order    *domain.Order `json:"order,omitempty"`
	Trail    []State       `json:"trail"`
}

// SuccessPath is where the shopper lands after a completed checkout.
func SuccessPath(orderID string) string {
	return "/order-success?orderId=" + orderID
}
