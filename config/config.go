package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Search    SearchConfig
	Rank      RankConfig
	Parser    ParserConfig
	Engine    EngineConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Batch     BatchConfig
	CORS      CORSConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance and its per-query sessions.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxSessions caps concurrently open query sessions.
	MaxSessions int // default: 4

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserAgent overrides the browser user agent. Empty keeps Chrome's own.
	UserAgent string

	// AcceptLanguage is sent with every request.
	AcceptLanguage string // default: "en-US,en;q=0.9"

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 15s

	// ReadyTimeout bounds the wait for the first result block to render.
	ReadyTimeout time.Duration // default: 5s

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockTrackers blocks well-known analytics and ad hosts.
	BlockTrackers bool // default: true
}

// SearchConfig controls how listing pages are requested.
type SearchConfig struct {
	// BaseURL is the search endpoint.
	BaseURL string // default: "https://www.google.com/search"

	// Language and Country become the hl and gl parameters when set.
	Language string
	Country  string

	// FetchTimeout bounds a single listing page fetch.
	FetchTimeout time.Duration // default: 30s

	// QueryTimeout bounds a whole rank query.
	QueryTimeout time.Duration // default: 120s
}

// RankConfig controls pagination.
type RankConfig struct {
	// PageSize is the result offset step between pages.
	PageSize int // default: 10

	// PageLimit clamps maxPages.
	PageLimit int // default: 10
}

// ParserConfig controls listing extraction.
type ParserConfig struct {
	BlockSelector string // default: ".MjjYud"
	TitleSelector string // default: "h3"
	LinkSelector  string // default: "a[href]"
	AdSelector    string // default: "#tads, #tadsb, #bottomads, [data-text-ad]"
	Placeholder   string // default: "(no title)"

	// Strictness is "lenient" (title OR url) or "strict" (title AND url).
	Strictness string // default: "lenient"

	DedupeURLs bool // default: false
}

// EngineConfig controls which fetch engines serve a session.
type EngineConfig struct {
	// FetchMode is "browser", "http" or "auto" (http first, browser escalation).
	FetchMode string // default: "browser"

	// EscalationDelays is the staged start delay for each engine tier in auto mode.
	EscalationDelays []time.Duration // default: [0s, 3s]

	// HostMemoryTTL is how long the winning engine is remembered per host.
	HostMemoryTTL time.Duration // default: 1h
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting of rank requests.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// BatchConfig controls POST /api/v1/rank/batch.
type BatchConfig struct {
	// Concurrency is how many queries of one batch run at once.
	Concurrency int // default: 2
}

// CORSConfig controls cross-origin access.
type CORSConfig struct {
	AllowedOrigins []string // default: ["*"]
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SERPRANK_HOST", "0.0.0.0"),
			Port: envIntOr("SERPRANK_PORT", 8080),
			Mode: envOr("SERPRANK_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:          envBoolOr("SERPRANK_HEADLESS", true),
			MaxSessions:       envIntOr("SERPRANK_MAX_SESSIONS", 4),
			DefaultProxy:      os.Getenv("SERPRANK_PROXY"),
			NoSandbox:         envBoolOr("SERPRANK_NO_SANDBOX", false),
			BrowserBin:        os.Getenv("SERPRANK_BROWSER_BIN"),
			UserAgent:         os.Getenv("SERPRANK_USER_AGENT"),
			AcceptLanguage:    envOr("SERPRANK_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			NavigationTimeout: envDurationOr("SERPRANK_NAV_TIMEOUT", 15*time.Second),
			ReadyTimeout:      envDurationOr("SERPRANK_READY_TIMEOUT", 5*time.Second),
			BlockedResourceTypes: envSliceOr("SERPRANK_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockTrackers: envBoolOr("SERPRANK_BLOCK_TRACKERS", true),
		},
		Search: SearchConfig{
			BaseURL:      envOr("SERPRANK_SEARCH_URL", "https://www.google.com/search"),
			Language:     os.Getenv("SERPRANK_HL"),
			Country:      os.Getenv("SERPRANK_GL"),
			FetchTimeout: envDurationOr("SERPRANK_FETCH_TIMEOUT", 30*time.Second),
			QueryTimeout: envDurationOr("SERPRANK_QUERY_TIMEOUT", 120*time.Second),
		},
		Rank: RankConfig{
			PageSize:  envIntOr("SERPRANK_PAGE_SIZE", 10),
			PageLimit: envIntOr("SERPRANK_PAGE_LIMIT", 10),
		},
		Parser: ParserConfig{
			BlockSelector: envOr("SERPRANK_BLOCK_SELECTOR", ".MjjYud"),
			TitleSelector: envOr("SERPRANK_TITLE_SELECTOR", "h3"),
			LinkSelector:  envOr("SERPRANK_LINK_SELECTOR", "a[href]"),
			AdSelector:    envOr("SERPRANK_AD_SELECTOR", "#tads, #tadsb, #bottomads, [data-text-ad]"),
			Placeholder:   envOr("SERPRANK_TITLE_PLACEHOLDER", "(no title)"),
			Strictness:    envOr("SERPRANK_FILTER_STRICTNESS", "lenient"),
			DedupeURLs:    envBoolOr("SERPRANK_DEDUPE_URLS", false),
		},
		Engine: EngineConfig{
			FetchMode:        envOr("SERPRANK_FETCH_MODE", "browser"),
			EscalationDelays: envDurationSliceOr("SERPRANK_ESCALATION_DELAYS", []time.Duration{0, 3 * time.Second}),
			HostMemoryTTL:    envDurationOr("SERPRANK_HOST_MEMORY_TTL", time.Hour),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SERPRANK_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SERPRANK_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SERPRANK_RATE_RPS", 1.0),
			Burst:             envIntOr("SERPRANK_RATE_BURST", 3),
		},
		Batch: BatchConfig{
			Concurrency: envIntOr("SERPRANK_BATCH_CONCURRENCY", 2),
		},
		CORS: CORSConfig{
			AllowedOrigins: envSliceOr("SERPRANK_CORS_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level:  envOr("SERPRANK_LOG_LEVEL", "info"),
			Format: envOr("SERPRANK_LOG_FORMAT", "json"),
		},
	}
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
