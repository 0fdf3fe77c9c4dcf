package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/use-agent/serprank/models"
	"github.com/use-agent/serprank/rank"
)

// FetchMode selects the engines behind each session.
type FetchMode string

const (
	FetchModeBrowser FetchMode = "browser"
	FetchModeHTTP    FetchMode = "http"
	FetchModeAuto    FetchMode = "auto"
)

// ParseFetchMode validates a configured fetch mode.
func ParseFetchMode(s string) (FetchMode, error) {
	switch m := FetchMode(s); m {
	case FetchModeBrowser, FetchModeHTTP, FetchModeAuto:
		return m, nil
	case "":
		return FetchModeBrowser, nil
	default:
		return "", fmt.Errorf("unknown fetch mode %q (want browser, http or auto)", s)
	}
}

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	FetchMode        FetchMode
	MaxSessions      int
	Search           SearchOptions
	FetchTimeout     time.Duration
	EscalationDelays []time.Duration
	HTTP             HTTPOptions

	// Detectors flag challenge pages. nil means DefaultDetectors.
	Detectors []Detector
}

// Provider hands out query-scoped listing sessions. At most MaxSessions are
// open at once; Acquire blocks until one frees up or ctx ends.
type Provider struct {
	cfg        ProviderConfig
	sem        *semaphore.Weighted
	active     atomic.Int64
	memory     *HostMemory
	newEngines func() []Engine
}

// NewProvider creates a Provider. open is required for the browser and auto
// modes; memory may be nil.
func NewProvider(cfg ProviderConfig, open SessionOpener, memory *HostMemory) (*Provider, error) {
	mode, err := ParseFetchMode(string(cfg.FetchMode))
	if err != nil {
		return nil, err
	}
	cfg.FetchMode = mode
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1
	}
	if cfg.Detectors == nil {
		cfg.Detectors = DefaultDetectors()
	}
	if mode != FetchModeHTTP && open == nil {
		return nil, fmt.Errorf("fetch mode %q needs a browser session opener", mode)
	}

	p := &Provider{
		cfg:    cfg,
		sem:    semaphore.NewWeighted(int64(cfg.MaxSessions)),
		memory: memory,
	}
	p.newEngines = func() []Engine {
		switch mode {
		case FetchModeHTTP:
			return []Engine{NewHTTPEngine(cfg.HTTP)}
		case FetchModeAuto:
			return []Engine{NewHTTPEngine(cfg.HTTP), NewRodEngine(open)}
		default:
			return []Engine{NewRodEngine(open)}
		}
	}
	return p, nil
}

// Acquire opens a new session with its own engines. Browser contexts are
// only created once a session actually renders a page.
func (p *Provider) Acquire(ctx context.Context) (rank.Session, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for free session: %w", err)
	}
	n := p.active.Add(1)
	slog.Debug("fetch session acquired", "active", n, "max", p.cfg.MaxSessions)

	engines := p.newEngines()
	return &listingSession{
		provider:   p,
		engines:    engines,
		dispatcher: NewDispatcher(engines, p.cfg.EscalationDelays, p.memory, p.cfg.Detectors),
	}, nil
}

// Stats reports session usage for the health endpoint.
func (p *Provider) Stats() models.SessionStats {
	return models.SessionStats{
		MaxSessions:    p.cfg.MaxSessions,
		ActiveSessions: int(p.active.Load()),
		FetchMode:      string(p.cfg.FetchMode),
	}
}

func (p *Provider) release() {
	n := p.active.Add(-1)
	p.sem.Release(1)
	slog.Debug("fetch session released", "active", n)
}

// listingSession implements rank.Session on top of a Dispatcher.
type listingSession struct {
	provider   *Provider
	engines    []Engine
	dispatcher *Dispatcher

	once     sync.Once
	closeErr error
}

func (s *listingSession) FetchListing(ctx context.Context, query string, offset int) (*models.Listing, error) {
	cfg := s.provider.cfg
	target := SearchURL(cfg.Search, query, offset)

	if cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.FetchTimeout)
		defer cancel()
	}

	res, err := s.dispatcher.Dispatch(ctx, &FetchRequest{URL: target, Timeout: cfg.FetchTimeout})
	if err != nil {
		return nil, err
	}

	listingURL := res.FinalURL
	if listingURL == "" {
		listingURL = target
	}
	return &models.Listing{
		Content: res.HTML,
		URL:     listingURL,
		Engine:  res.EngineName,
	}, nil
}

func (s *listingSession) Close() error {
	s.once.Do(func() {
		var errs []error
		for _, e := range s.engines {
			if err := e.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s engine: %w", e.Name(), err))
			}
		}
		s.closeErr = errors.Join(errs...)
		s.provider.release()
	})
	return s.closeErr
}
