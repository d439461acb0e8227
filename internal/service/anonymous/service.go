package anonymous

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Session is a freshly issued guest identity.
type Session struct {
	AnonymousID  string
	AccessToken  string
	RefreshToken string
}

type Service struct {
	store      Store
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func New(store Store) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{
		store:      store,
		accessTTL:  3 * time.Hour,
		refreshTTL: 30 * 24 * time.Hour,
		now:        time.Now,
	}
}

// Issue starts a guest session for the website.
func (s *Service) Issue(ctx context.Context, websiteID string) (*Session, error) {
	anonID := uuid.NewString()
	access, err := s.issue(ctx, websiteID, anonID, kindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issue(ctx, websiteID, anonID, kindRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Session{AnonymousID: anonID, AccessToken: access, RefreshToken: refresh}, nil
}

// LookupByToken returns the anonymous id bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, websiteID, token string) (string, error) {
	g, ok, err := s.store.Get(ctx, token)
	if err != nil {
		return "", err
	}
	if !ok || g.Kind != kindAccess || g.WebsiteID != websiteID || s.now().After(g.ExpiresAt) {
		return "", ErrInvalidToken
	}
	return g.AnonymousID, nil
}

func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func (s *Service) issue(ctx context.Context, websiteID, anonID, kind string, ttl time.Duration) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	g := Grant{AnonymousID: anonID, WebsiteID: websiteID, Kind: kind, ExpiresAt: s.now().Add(ttl)}
	if err := s.store.Put(ctx, token, g); err != nil {
		return "", err
	}
	return token, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
