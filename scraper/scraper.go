// Package scraper owns the headless browser and opens the isolated browser
// sessions that render listing pages.
package scraper

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/use-agent/serprank/config"
	"github.com/use-agent/serprank/engine"
	"github.com/use-agent/serprank/models"
)

// Scraper manages the global browser process. It is safe for concurrent use.
type Scraper struct {
	browser  *rod.Browser
	cfg      config.BrowserConfig
	contexts atomic.Int32
}

// New launches the browser and connects to it.
func New(cfg config.BrowserConfig) (*Scraper, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	if cfg.AcceptLanguage != "" {
		l.Set(flags.Flag("lang"), primaryLanguage(cfg.AcceptLanguage))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewRankError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewRankError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	return &Scraper{browser: browser, cfg: cfg}, nil
}

// OpenSession creates an incognito browser context with one stealth page.
// Cookies and storage live and die with the session, so concurrent queries
// never observe each other's state.
//
// Setup order matters: stealth script and resource blocking must be in
// place before the first navigation.
func (s *Scraper) OpenSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	incognito, err := s.browser.Incognito()
	if err != nil {
		return nil, models.NewRankError(models.ErrCodeBrowserCrash, "failed to create browser context", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, models.NewRankError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}
	if s.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      s.cfg.UserAgent,
			AcceptLanguage: s.cfg.AcceptLanguage,
		}); err != nil {
			slog.Warn("user agent override failed", "error", err)
		}
	}
	if s.cfg.AcceptLanguage != "" {
		if err := (proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Accept-Language": s.cfg.AcceptLanguage}),
		}).Call(page); err != nil {
			slog.Warn("extra headers failed", "error", err)
		}
	}

	n := s.contexts.Add(1)
	slog.Debug("browser session opened", "open", n)

	return &Session{
		owner:        s,
		context:      incognito,
		page:         page,
		router:       setupHijack(page, s.cfg.BlockedResourceTypes, s.cfg.BlockTrackers),
		navTimeout:   s.cfg.NavigationTimeout,
		readyTimeout: s.cfg.ReadyTimeout,
	}, nil
}

// Opener adapts OpenSession to the engine's session opener. readySelector
// is awaited after every navigation; empty skips the wait.
func (s *Scraper) Opener(readySelector string) engine.SessionOpener {
	return func(ctx context.Context) (engine.RenderSession, error) {
		sess, err := s.OpenSession(ctx)
		if err != nil {
			return nil, err
		}
		sess.readySelector = readySelector
		return sess, nil
	}
}

// OpenContexts returns the number of browser contexts currently open.
func (s *Scraper) OpenContexts() int {
	return int(s.contexts.Load())
}

// Close kills the browser process. Call it on graceful shutdown to prevent
// zombie Chrome processes.
func (s *Scraper) Close() {
	if n := s.contexts.Load(); n > 0 {
		slog.Warn("closing browser with open sessions", "open", n)
	}
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("browser shutdown complete")
}
