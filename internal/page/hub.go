package page

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"storefront/internal/payment"
)

// Hub keeps the connected checkout pages by id.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	upgrader websocket.Upgrader
	logger   *log.Logger
}

// NewHub accepts pages from the listed storefront origins. With none listed
// the browser origin must match the request host.
func NewHub(logger *log.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Hub{
		sessions: map[string]*Session{},
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// Accept upgrades the request and serves the page until the browser goes
// away. It blocks for the lifetime of the socket.
func (h *Hub) Accept(w http.ResponseWriter, r *http.Request, websiteID string) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("page: upgrade error=%v", err)
		return
	}
	s := h.Attach(websiteID, ws)
	defer h.remove(s.ID())

	if err := s.Serve(r.Context()); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		h.logger.Printf("page: read page_id=%s error=%v", s.ID(), err)
	}
}

// originChecker returns nil, gorilla's same-host check, when nothing is
// configured. Requests without an Origin header do not come from a browser
// page and are let through.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/"); o != "" {
			set[o] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	if set["*"] {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[strings.ToLower(origin)]
	}
}

// Attach registers a session over an established connection.
func (h *Hub) Attach(websiteID string, c conn) *Session {
	s := newSession(uuid.NewString(), websiteID, c, h.logger)
	h.mu.Lock()
	h.sessions[s.id] = s
	n := len(h.sessions)
	h.mu.Unlock()
	h.logger.Printf("page: connected page_id=%s website_id=%s open=%d", s.id, websiteID, n)
	return s
}

// Get returns the live page of the website with the given id.
func (h *Hub) Get(websiteID, id string) (*Session, bool) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok || s.websiteID != websiteID {
		return nil, false
	}
	select {
	case <-s.done:
		return nil, false
	default:
		return s, true
	}
}

// Lookup is Get for callers that only drive the page.
func (h *Hub) Lookup(websiteID, id string) (payment.Page, bool) {
	s, ok := h.Get(websiteID, id)
	if !ok {
		return nil, false
	}
	return s, true
}

// Shutdown closes every page.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.Lock()
	all := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		all = append(all, s)
	}
	h.sessions = map[string]*Session{}
	h.mu.Unlock()
	for _, s := range all {
		if ctx.Err() != nil {
			return
		}
		s.Close()
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
	h.logger.Printf("page: disconnected page_id=%s", id)
}
