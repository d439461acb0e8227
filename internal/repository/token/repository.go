package token

import (
	"context"
	"time"
)

// Kinds of issued tokens.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Token is an opaque bearer credential bound to a customer of one website.
type Token struct {
	Token       string
	WebsiteID   string
	CustomerID  *string
	AnonymousID *string
	Kind        string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	// DeleteForCustomer revokes every token of the customer and returns how
	// many were removed.
	DeleteForCustomer(ctx context.Context, websiteID, customerID string) (int64, error)
}
