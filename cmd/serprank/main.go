package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/serprank/api"
	"github.com/use-agent/serprank/config"
	"github.com/use-agent/serprank/engine"
	"github.com/use-agent/serprank/models"
	"github.com/use-agent/serprank/parser"
	"github.com/use-agent/serprank/rank"
	"github.com/use-agent/serprank/scraper"
)

func main() {
	if err := run(); err != nil {
		slog.Error("serprank failed", "error", err)
		os.Exit(1)
	}
}

// run wires the server and blocks until a shutdown signal or a server
// error. Returning instead of exiting lets every deferred close run.
func run() error {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("serprank starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"fetchMode", cfg.Engine.FetchMode,
		"maxSessions", cfg.Browser.MaxSessions,
	)

	// ── 3. Listing parser ───────────────────────────────────────────
	p, err := parser.New(parser.Options{
		BlockSelector: cfg.Parser.BlockSelector,
		TitleSelector: cfg.Parser.TitleSelector,
		LinkSelector:  cfg.Parser.LinkSelector,
		AdSelector:    cfg.Parser.AdSelector,
		Placeholder:   cfg.Parser.Placeholder,
		Strictness:    models.Strictness(cfg.Parser.Strictness),
		DedupeURLs:    cfg.Parser.DedupeURLs,
	})
	if err != nil {
		return fmt.Errorf("invalid parser configuration: %w", err)
	}

	fetchMode, err := engine.ParseFetchMode(cfg.Engine.FetchMode)
	if err != nil {
		return fmt.Errorf("invalid engine configuration: %w", err)
	}

	// ── 4. Browser (not needed for pure HTTP fetching) ──────────────
	var opener engine.SessionOpener
	if fetchMode != engine.FetchModeHTTP {
		sc, err := scraper.New(cfg.Browser)
		if err != nil {
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		defer sc.Close()
		// engine never imports scraper; the opener closure bridges them.
		opener = sc.Opener(cfg.Parser.BlockSelector)
	}

	// ── 5. Session provider + rank controller ───────────────────────
	memory := engine.NewHostMemory(cfg.Engine.HostMemoryTTL)
	defer memory.Stop()

	provider, err := engine.NewProvider(engine.ProviderConfig{
		FetchMode:        fetchMode,
		MaxSessions:      cfg.Browser.MaxSessions,
		Search:           searchOptions(cfg),
		FetchTimeout:     cfg.Search.FetchTimeout,
		EscalationDelays: cfg.Engine.EscalationDelays,
		HTTP: engine.HTTPOptions{
			UserAgent:      cfg.Browser.UserAgent,
			AcceptLanguage: cfg.Browser.AcceptLanguage,
		},
	}, opener, memory)
	if err != nil {
		return fmt.Errorf("failed to initialise session provider: %w", err)
	}

	controller := rank.NewController(provider, p,
		rank.WithPageSize(cfg.Rank.PageSize),
		rank.WithPageLimit(cfg.Rank.PageLimit),
	)

	// ── 6. Setup router ─────────────────────────────────────────────
	handler := api.NewHandler(controller, provider.Stats, cfg, time.Now())

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case runErr = <-serveErr:
		slog.Error("HTTP server error", "error", runErr)
	}

	// In-flight rank queries get a few seconds; cancelled ones release
	// their browser contexts on the way out.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("serprank stopped")
	return runErr
}

// searchOptions shapes listing URLs. num always equals the page size so
// consecutive start offsets tile the result list without gaps.
func searchOptions(cfg *config.Config) engine.SearchOptions {
	return engine.SearchOptions{
		BaseURL:  cfg.Search.BaseURL,
		Language: cfg.Search.Language,
		Country:  cfg.Search.Country,
		Num:      cfg.Rank.PageSize,
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
