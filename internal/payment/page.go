// Package payment drives online payments for a placed order: it loads vendor
// SDKs into the shopper's page, asks the remote payment procedures for an
// intent, runs the vendor checkout UI through a gateway adapter and relays
// the outcome for verification.
package payment

import "context"

// Page is the shopper's browser page as seen from the server. Every call
// blocks until the page answers or ctx is done.
type Page interface {
	ID() string
	// HasGlobal reports whether the page already defines the named SDK global.
	HasGlobal(name string) bool
	// InjectScript adds a script element and waits for its load or error
	// event. A nil error means the script loaded and global is now defined.
	InjectScript(ctx context.Context, src, global string) error
	// Mount appends el to the document body. release removes it again and is
	// safe to call more than once.
	Mount(ctx context.Context, el Element) (release func(), err error)
	// Open runs a vendor widget and waits until the shopper settles it.
	Open(ctx context.Context, w Widget) (WidgetResult, error)
}

// Element is a DOM subtree mounted into the page.
type Element struct {
	ID       string            `json:"id,omitempty"`
	Tag      string            `json:"tag"`
	Class    string            `json:"class,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []Element         `json:"children,omitempty"`
}

// Widget kinds understood by the page.
const (
	WidgetRazorpayCheckout = "razorpay.checkout"
	WidgetPayPalButtons    = "paypal.buttons"
	WidgetStripeConfirm    = "stripe.confirmCardPayment"
)

// Widget outcome events.
const (
	EventSuccess = "success"
	EventDismiss = "dismiss"
	EventCancel  = "cancel"
	EventError   = "error"
)

// Widget asks the page to run a vendor UI. Container names the element id the
// widget renders into, for SDKs that cannot open their own modal.
type Widget struct {
	Kind      string                 `json:"kind"`
	Container string                 `json:"container,omitempty"`
	Options   map[string]interface{} `json:"options"`
}

// WidgetResult is how the shopper settled a widget. A click on a mounted
// element carrying data-action="cancel" settles the open widget with
// EventCancel.
type WidgetResult struct {
	Event string            `json:"event"`
	Data  map[string]string `json:"data,omitempty"`
	Error string            `json:"error,omitempty"`
}
