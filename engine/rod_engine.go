package engine

import (
	"context"
	"fmt"
	"sync"
)

// RenderSession is one isolated browser context able to render pages.
// It is implemented by the scraper package and injected through a
// SessionOpener so engine never imports scraper.
type RenderSession interface {
	Render(ctx context.Context, req *FetchRequest) (*FetchResult, error)
	Close() error
}

// SessionOpener opens a fresh RenderSession.
type SessionOpener func(ctx context.Context) (RenderSession, error)

// RodEngine renders pages in a browser session that it opens on first use
// and disposes on Close. A RodEngine serves exactly one query session.
type RodEngine struct {
	open SessionOpener

	mu      sync.Mutex
	session RenderSession
	closed  bool
}

// NewRodEngine creates a RodEngine that opens its browser session lazily.
func NewRodEngine(open SessionOpener) *RodEngine {
	return &RodEngine{open: open}
}

func (e *RodEngine) Name() string { return "rod" }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	s, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.Render(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("rod: %w", err)
	}
	result.EngineName = e.Name()
	return result, nil
}

func (e *RodEngine) acquire(ctx context.Context) (RenderSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, fmt.Errorf("rod: engine closed")
	}
	if e.session != nil {
		return e.session, nil
	}
	if e.open == nil {
		return nil, fmt.Errorf("rod: session opener not configured")
	}

	s, err := e.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("rod: open session: %w", err)
	}
	e.session = s
	return s, nil
}

// Close disposes the browser session if one was opened. Safe to call twice.
func (e *RodEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if e.session == nil {
		return nil
	}
	err := e.session.Close()
	e.session = nil
	return err
}
