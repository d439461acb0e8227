package paymentmethod

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
	pmrepo "storefront/internal/repository/paymentmethod"
)

// ErrUnavailable is returned when a method is unknown or disabled.
var ErrUnavailable = errors.New("payment method unavailable")

// PayPalClientIDKey is the config entry holding the public PayPal client id.
const PayPalClientIDKey = "client_id"

type Service struct {
	repo pmrepo.Repository
}

func New(repo pmrepo.Repository) *Service {
	return &Service{repo: repo}
}

// ListEnabled returns the checkout options shown to shoppers.
func (s *Service) ListEnabled(ctx context.Context, websiteID string) ([]domain.PaymentMethod, error) {
	methods, err := s.repo.ListEnabled(ctx, websiteID)
	if err != nil {
		return nil, err
	}
	if methods == nil {
		methods = []domain.PaymentMethod{}
	}
	return methods, nil
}

// Resolve returns the enabled method with the given display name.
func (s *Service) Resolve(ctx context.Context, websiteID, name string) (*domain.PaymentMethod, error) {
	m, err := s.repo.GetByName(ctx, websiteID, strings.TrimSpace(name))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrUnavailable
	}
	if err != nil {
		return nil, err
	}
	if !m.Enabled {
		return nil, ErrUnavailable
	}
	return m, nil
}

// PayPalClientID reads the public client id from the website's enabled
// PayPal method.
func (s *Service) PayPalClientID(ctx context.Context, websiteID string) (string, error) {
	m, err := s.repo.GetEnabledByType(ctx, websiteID, domain.MethodTypePayPal)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("paypal client id: %w", ErrUnavailable)
	}
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(m.ConfigString(PayPalClientIDKey))
	if id == "" {
		return "", errors.New("paypal client id not configured")
	}
	return id, nil
}
