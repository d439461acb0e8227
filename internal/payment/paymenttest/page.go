// Package paymenttest provides an in-memory payment.Page for tests.
package paymenttest

import (
	"context"
	"errors"
	"sync"

	"storefront/internal/payment"
)

// Page records what gateways do to it and answers widgets from a script.
type Page struct {
	mu sync.Mutex

	id       string
	globals  map[string]bool
	injected []string
	live     map[string]payment.Element
	mounts   int
	opened   []payment.Widget

	// FailScripts makes InjectScript fail for the listed URLs.
	FailScripts map[string]bool
	// Results are returned by Open in order. When exhausted Open fails.
	Results []payment.WidgetResult
	// OnOpen runs before Open answers, with the widget being opened.
	OnOpen func(p *Page, w payment.Widget)
}

func NewPage(globals ...string) *Page {
	p := &Page{
		id:          "page-test",
		globals:     map[string]bool{},
		live:        map[string]payment.Element{},
		FailScripts: map[string]bool{},
	}
	for _, g := range globals {
		p.globals[g] = true
	}
	return p
}

func (p *Page) ID() string { return p.id }

func (p *Page) HasGlobal(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.globals[name]
}

func (p *Page) InjectScript(_ context.Context, src, global string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.injected = append(p.injected, src)
	if p.FailScripts[src] {
		return errors.New("script error")
	}
	p.globals[global] = true
	return nil
}

func (p *Page) Mount(_ context.Context, el payment.Element) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mounts++
	p.live[el.ID] = el
	return func() {
		p.mu.Lock()
		delete(p.live, el.ID)
		p.mu.Unlock()
	}, nil
}

func (p *Page) Open(ctx context.Context, w payment.Widget) (payment.WidgetResult, error) {
	p.mu.Lock()
	p.opened = append(p.opened, w)
	hook := p.OnOpen
	p.mu.Unlock()

	if hook != nil {
		hook(p, w)
	}
	if err := ctx.Err(); err != nil {
		return payment.WidgetResult{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Results) == 0 {
		return payment.WidgetResult{}, errors.New("page closed")
	}
	res := p.Results[0]
	p.Results = p.Results[1:]
	return res, nil
}

// Injected lists every script URL injected so far.
func (p *Page) Injected() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.injected...)
}

// Live returns the ids of mounted elements not yet released.
func (p *Page) Live() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.live))
	for id := range p.live {
		out = append(out, id)
	}
	return out
}

// Mounts counts Mount calls.
func (p *Page) Mounts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mounts
}

// Opened lists the widgets opened so far.
func (p *Page) Opened() []payment.Widget {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]payment.Widget(nil), p.opened...)
}
