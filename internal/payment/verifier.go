package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrVerificationFailed is returned when the verify-payment call itself
// fails. A completed call answering verified=false is not an error here.
var ErrVerificationFailed = errors.New("payment verification request failed")

// VerifyRequest relays the identifiers a gateway returned. The remote
// procedure does the actual signature and amount checks.
type VerifyRequest struct {
	OrderID        string `json:"orderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
	Gateway        string `json:"gateway"`
	GatewayOrderID string `json:"gatewayOrderId,omitempty"`

	AccessToken string `json:"-"`
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

type Verifier struct {
	remote remote
}

func NewVerifier(endpoint, anonKey string, client *http.Client) *Verifier {
	return &Verifier{remote: remote{endpoint: endpoint, anonKey: anonKey, client: client}}
}

func (v *Verifier) Verify(ctx context.Context, req VerifyRequest) (bool, error) {
	var out verifyResponse
	if err := v.remote.post(ctx, req.AccessToken, req, &out); err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return out.Verified, nil
}
