package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// fakeEngine returns a canned result or error after an optional delay.
type fakeEngine struct {
	name   string
	delay  time.Duration
	result *FetchResult
	err    error

	calls  atomic.Int32
	closed atomic.Int32
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	res := *f.result
	if res.FinalURL == "" {
		res.FinalURL = req.URL
	}
	res.EngineName = f.name
	return &res, nil
}

func (f *fakeEngine) Close() error {
	f.closed.Add(1)
	return nil
}

func okEngine(name string, delay time.Duration) *fakeEngine {
	return &fakeEngine{
		name:   name,
		delay:  delay,
		result: &FetchResult{HTML: "<div class=\"MjjYud\">" + name + "</div>", StatusCode: 200},
	}
}

func failEngine(name string, delay time.Duration) *fakeEngine {
	return &fakeEngine{name: name, delay: delay, err: errors.New(name + " failed")}
}

// fakeRenderSession records renders and closes.
type fakeRenderSession struct {
	mu     sync.Mutex
	urls   []string
	closed int
	err    error
}

func (s *fakeRenderSession) Render(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.urls = append(s.urls, req.URL)
	return &FetchResult{HTML: "<html></html>", StatusCode: 200, FinalURL: req.URL}, nil
}

func (s *fakeRenderSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}
