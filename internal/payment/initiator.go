package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// ErrInitiationFailed is returned for any failed create-payment call.
var ErrInitiationFailed = errors.New("payment initiation failed")

// Intent carries the gateway the remote procedure picked and the parameters
// its vendor UI needs.
type Intent struct {
	Gateway      string          `json:"gateway"`
	Key          string          `json:"key,omitempty"`
	OrderID      string          `json:"orderId,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency,omitempty"`
	ClientSecret string          `json:"clientSecret,omitempty"`
}

// InitiateRequest describes the order to collect payment for. Amount is in
// major currency units.
type InitiateRequest struct {
	OrderID       string
	Amount        decimal.Decimal
	PaymentMethod string
	AccessToken   string
}

type initiateBody struct {
	OrderID       string      `json:"orderId"`
	Amount        json.Number `json:"amount"`
	Currency      string      `json:"currency"`
	PaymentMethod string      `json:"paymentMethod"`
}

// Initiator asks the remote create-payment procedure for an intent.
type Initiator struct {
	remote   remote
	currency string
}

func NewInitiator(endpoint, anonKey, currency string, client *http.Client) *Initiator {
	if currency == "" {
		currency = "USD"
	}
	return &Initiator{
		remote:   remote{endpoint: endpoint, anonKey: anonKey, client: client},
		currency: currency,
	}
}

// Initiate makes exactly one call. It does not retry.
func (i *Initiator) Initiate(ctx context.Context, req InitiateRequest) (Intent, error) {
	body := initiateBody{
		OrderID:       req.OrderID,
		Amount:        json.Number(req.Amount.StringFixed(2)),
		Currency:      i.currency,
		PaymentMethod: req.PaymentMethod,
	}
	var intent Intent
	if err := i.remote.post(ctx, req.AccessToken, body, &intent); err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}
	if intent.Gateway == "" {
		return Intent{}, fmt.Errorf("%w: response has no gateway", ErrInitiationFailed)
	}
	return intent, nil
}
