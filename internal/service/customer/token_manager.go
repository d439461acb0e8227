package customer

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
)

type tokenMeta struct {
	CustomerID string
	WebsiteID  string
	ExpiresAt  time.Time
}

type tokenManager struct {
	repo tokenrepo.Repository
	now  func() time.Time
}

func newTokenManager(repo tokenrepo.Repository) *tokenManager {
	return &tokenManager{repo: repo, now: time.Now}
}

func (m *tokenManager) Issue(ctx context.Context, websiteID, customerID, kind string, ttl time.Duration) (string, error) {
	expiresAt := m.now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = m.repo.Create(ctx, tokenrepo.Token{
			Token:      token,
			WebsiteID:  websiteID,
			CustomerID: &customerID,
			Kind:       kind,
			ExpiresAt:  expiresAt,
		})
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return "", err
		}
	}
	return "", errors.New("token collision")
}

// Validate accepts unexpired customer access tokens. Expired tokens are
// deleted on sight.
func (m *tokenManager) Validate(ctx context.Context, token string) (tokenMeta, bool) {
	t, err := m.repo.Get(ctx, token)
	if err != nil {
		return tokenMeta{}, false
	}
	if t.Kind != tokenrepo.KindAccess || t.CustomerID == nil {
		return tokenMeta{}, false
	}
	if t.Expired(m.now()) {
		_ = m.repo.Delete(ctx, token)
		return tokenMeta{}, false
	}
	return tokenMeta{CustomerID: *t.CustomerID, WebsiteID: t.WebsiteID, ExpiresAt: t.ExpiresAt}, true
}

func (m *tokenManager) RevokeAll(ctx context.Context, websiteID, customerID string) (int64, error) {
	return m.repo.DeleteForCustomer(ctx, websiteID, customerID)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
