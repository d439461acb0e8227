// Package page bridges a shopper's browser page to the server over a
// websocket. A Session implements payment.Page: each call is sent to the
// browser as a command and blocks until the browser replies.
package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"

	"storefront/internal/payment"
)

// ErrClosed is returned for calls on a page whose socket went away.
var ErrClosed = errors.New("checkout page closed")

// Message types on the wire.
const (
	msgHello   = "hello"
	msgInject  = "inject"
	msgMount   = "mount"
	msgUnmount = "unmount"
	msgOpen    = "open"
	msgCancel  = "cancel"
	msgReply   = "reply"
	msgClick   = "click"
)

// command is sent by the server.
type command struct {
	ID        string           `json:"id,omitempty"`
	Type      string           `json:"type"`
	Page      string           `json:"page,omitempty"`
	Src       string           `json:"src,omitempty"`
	Global    string           `json:"global,omitempty"`
	Element   *payment.Element `json:"element,omitempty"`
	ElementID string           `json:"elementId,omitempty"`
	Widget    *payment.Widget  `json:"widget,omitempty"`
}

// event is sent by the browser.
type event struct {
	ID      string                `json:"id,omitempty"`
	Type    string                `json:"type"`
	Globals []string              `json:"globals,omitempty"`
	OK      bool                  `json:"ok"`
	Error   string                `json:"error,omitempty"`
	Result  *payment.WidgetResult `json:"result,omitempty"`
	Action  string                `json:"action,omitempty"`
}

// conn is the part of *websocket.Conn a session uses.
type conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

type Session struct {
	id        string
	websiteID string
	conn      conn
	logger    *log.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	seq     int
	pending map[string]chan event
	globals map[string]bool
	openID  string

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id, websiteID string, c conn, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{
		id:        id,
		websiteID: websiteID,
		conn:      c,
		logger:    logger,
		pending:   map[string]chan event{},
		globals:   map[string]bool{},
		done:      make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) WebsiteID() string { return s.websiteID }

// Done is closed when the socket is gone.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) HasGlobal(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.globals[name]
}

func (s *Session) InjectScript(ctx context.Context, src, global string) error {
	ev, err := s.call(ctx, command{Type: msgInject, Src: src, Global: global})
	if err != nil {
		return err
	}
	if !ev.OK {
		return fmt.Errorf("script %s: %s", src, ev.Error)
	}
	s.mu.Lock()
	s.globals[global] = true
	s.mu.Unlock()
	return nil
}

func (s *Session) Mount(ctx context.Context, el payment.Element) (func(), error) {
	ev, err := s.call(ctx, command{Type: msgMount, Element: &el})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// The browser may have mounted el before we stopped waiting.
		if uerr := s.send(command{Type: msgUnmount, ElementID: el.ID}); uerr != nil {
			s.logger.Printf("page: unmount after abandoned mount page_id=%s element_id=%s error=%v", s.id, el.ID, uerr)
		}
	}
	if err != nil {
		return nil, err
	}
	if !ev.OK {
		return nil, fmt.Errorf("mount %s: %s", el.ID, ev.Error)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := s.send(command{Type: msgUnmount, ElementID: el.ID}); err != nil {
				s.logger.Printf("page: unmount page_id=%s element_id=%s error=%v", s.id, el.ID, err)
			}
		})
	}, nil
}

// Open runs the widget until the browser settles it. A cancel click on a
// mounted element settles it too. If ctx ends first the browser is told to
// close the widget.
func (s *Session) Open(ctx context.Context, w payment.Widget) (payment.WidgetResult, error) {
	id, ch := s.register()
	s.mu.Lock()
	s.openID = id
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.openID == id {
			s.openID = ""
		}
		s.mu.Unlock()
	}()

	ev, err := s.await(ctx, id, ch, command{ID: id, Type: msgOpen, Widget: &w})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		_ = s.send(command{ID: id, Type: msgCancel})
	}
	if err != nil {
		return payment.WidgetResult{}, err
	}
	if ev.Result == nil {
		return payment.WidgetResult{Event: payment.EventError, Error: ev.Error}, nil
	}
	return *ev.Result, nil
}

// Serve reads browser events until the socket fails or ctx ends. It greets
// the browser with the page id first.
func (s *Session) Serve(ctx context.Context) error {
	defer s.Close()
	if err := s.send(command{Type: msgHello, Page: s.id}); err != nil {
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	for {
		var ev event
		if err := s.conn.ReadJSON(&ev); err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			return err
		}
		s.handle(ev)
	}
}

func (s *Session) handle(ev event) {
	switch ev.Type {
	case msgHello:
		s.mu.Lock()
		for _, g := range ev.Globals {
			s.globals[g] = true
		}
		s.mu.Unlock()
	case msgReply:
		s.deliver(ev.ID, ev)
	case msgClick:
		if ev.Action != payment.EventCancel {
			return
		}
		s.mu.Lock()
		id := s.openID
		s.mu.Unlock()
		if id == "" {
			return
		}
		s.deliver(id, event{ID: id, Type: msgReply, OK: true, Result: &payment.WidgetResult{
			Event: payment.EventCancel,
			Data:  map[string]string{"source": "overlay"},
		}})
	default:
		s.logger.Printf("page: unknown event page_id=%s type=%q", s.id, ev.Type)
	}
}

// Close drops the socket and fails every call still waiting.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *Session) call(ctx context.Context, cmd command) (event, error) {
	id, ch := s.register()
	cmd.ID = id
	return s.await(ctx, id, ch, cmd)
}

func (s *Session) register() (string, chan event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := strconv.Itoa(s.seq)
	ch := make(chan event, 1)
	s.pending[id] = ch
	return id, ch
}

func (s *Session) await(ctx context.Context, id string, ch chan event, cmd command) (event, error) {
	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	if err := s.send(cmd); err != nil {
		return event{}, err
	}
	select {
	case ev := <-ch:
		return ev, nil
	case <-ctx.Done():
		return event{}, ctx.Err()
	case <-s.done:
		return event{}, ErrClosed
	}
}

func (s *Session) deliver(id string, ev event) {
	s.mu.Lock()
	ch, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		s.logger.Printf("page: reply for unknown call page_id=%s id=%s", s.id, id)
		return
	}
	ch <- ev
}

func (s *Session) send(cmd command) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(cmd)
}

var _ payment.Page = (*Session)(nil)
