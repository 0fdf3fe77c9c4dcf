package scraper

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/use-agent/serprank/engine"
	"github.com/use-agent/serprank/models"
)

// Session is one incognito browser context with a single page. It renders
// the listing pages of one query, one at a time.
type Session struct {
	owner   *Scraper
	context *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter

	navTimeout    time.Duration
	readyTimeout  time.Duration
	readySelector string

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Render navigates to req.URL and returns the rendered document.
//
//  1. Navigate        – bounded by the navigation timeout
//  2. Ready wait      – first result block, best-effort
//  3. DOM stable      – best-effort
//  4. Extract         – HTML, title, final URL, status
func (s *Session) Render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	p := s.page.Context(ctx)

	nav := p
	if s.navTimeout > 0 {
		nav = p.Timeout(s.navTimeout)
	}
	if err := nav.Navigate(req.URL); err != nil {
		return nil, categorizeError(ctx, err, "navigation to listing page failed")
	}

	if s.readySelector != "" && s.readyTimeout > 0 {
		// A page without results never matches; that is not an error.
		if err := p.Timeout(s.readyTimeout).WaitElementsMoreThan(s.readySelector, 0); err != nil {
			slog.Debug("result blocks did not appear", "url", req.URL, "error", err)
		}
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		if ctx.Err() != nil {
			return nil, categorizeError(ctx, err, "page did not settle")
		}
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(ctx, err, "failed to extract page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" || strings.HasPrefix(finalURL, "about:") {
		finalURL = req.URL
	}

	return &engine.FetchResult{
		HTML:       rawHTML,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: navigationStatus(p),
		FinalURL:   finalURL,
	}, nil
}

// Close stops request interception and disposes the browser context along
// with its cookies. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.router != nil {
			if err := s.router.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := s.page.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := s.context.Close(); err != nil {
			errs = append(errs, err)
		}
		s.closeErr = errors.Join(errs...)
		n := s.owner.contexts.Add(-1)
		slog.Debug("browser session closed", "open", n)
	})
	return s.closeErr
}

// navigationStatus reads the main document's HTTP status from the
// Navigation Timing API. Event listeners on the Network domain conflict
// with request hijacking, so this is read after the fact.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// primaryLanguage returns the first tag of an Accept-Language value.
func primaryLanguage(acceptLanguage string) string {
	first, _, _ := strings.Cut(acceptLanguage, ",")
	first, _, _ = strings.Cut(first, ";")
	return strings.TrimSpace(first)
}

// categorizeError types a browser failure. An ended query context wins
// over whatever rod reported.
func categorizeError(ctx context.Context, err error, msg string) *models.RankError {
	switch {
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		return models.NewRankError(models.ErrCodeCancelled, "render cancelled", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return models.NewRankError(models.ErrCodeTimeout, msg, err)
	default:
		return models.NewRankError(models.ErrCodeFetchFailed, msg, err)
	}
}
