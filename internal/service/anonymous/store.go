package anonymous

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Grant is what a guest token resolves to.
type Grant struct {
	AnonymousID string    `json:"anonymousId"`
	WebsiteID   string    `json:"websiteId"`
	Kind        string    `json:"kind"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Store keeps guest tokens until they expire.
type Store interface {
	Put(ctx context.Context, token string, g Grant) error
	// Get returns ok=false for unknown or expired tokens.
	Get(ctx context.Context, token string) (Grant, bool, error)
}

// sweepInterval bounds how often Put scans for expired grants.
const sweepInterval = time.Minute

type memoryStore struct {
	mu        sync.RWMutex
	grants    map[string]Grant
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryStore keeps guest tokens in process memory. Tokens do not
// survive a restart and are not shared between replicas.
func NewMemoryStore() Store {
	return &memoryStore{grants: make(map[string]Grant), now: time.Now}
}

// Put also drops expired grants, so tokens that are issued and never
// presented again do not pile up.
func (m *memoryStore) Put(_ context.Context, token string, g Grant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now := m.now(); now.Sub(m.lastSweep) >= sweepInterval {
		for t, existing := range m.grants {
			if now.After(existing.ExpiresAt) {
				delete(m.grants, t)
			}
		}
		m.lastSweep = now
	}
	m.grants[token] = g
	return nil
}

func (m *memoryStore) Get(_ context.Context, token string) (Grant, bool, error) {
	m.mu.RLock()
	g, ok := m.grants[token]
	m.mu.RUnlock()
	if !ok {
		return Grant{}, false, nil
	}
	if m.now().After(g.ExpiresAt) {
		m.mu.Lock()
		delete(m.grants, token)
		m.mu.Unlock()
		return Grant{}, false, nil
	}
	return g, true, nil
}

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore keeps guest tokens in Redis with the token TTL as key
// expiry.
func NewRedisStore(client *redis.Client, prefix string) Store {
	return &redisStore{client: client, prefix: prefix}
}

func (r *redisStore) key(token string) string {
	return r.prefix + ":anon:" + token
}

func (r *redisStore) Put(ctx context.Context, token string, g Grant) error {
	ttl := time.Until(g.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(token), payload, ttl).Err()
}

func (r *redisStore) Get(ctx context.Context, token string) (Grant, bool, error) {
	raw, err := r.client.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Grant{}, false, nil
	}
	if err != nil {
		return Grant{}, false, err
	}
	var g Grant
	if err := json.Unmarshal(raw, &g); err != nil {
		return Grant{}, false, err
	}
	return g, true, nil
}
