package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 || cfg.Server.Mode != "release" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Browser.MaxSessions != 4 || !cfg.Browser.Headless {
		t.Errorf("browser = %+v", cfg.Browser)
	}
	if want := []string{"Image", "Font", "Media"}; !reflect.DeepEqual(cfg.Browser.BlockedResourceTypes, want) {
		t.Errorf("blocked resources = %v, want %v", cfg.Browser.BlockedResourceTypes, want)
	}
	if cfg.Search.BaseURL != "https://www.google.com/search" {
		t.Errorf("search url = %q", cfg.Search.BaseURL)
	}
	if cfg.Rank.PageSize != 10 || cfg.Rank.PageLimit != 10 {
		t.Errorf("rank = %+v", cfg.Rank)
	}
	if cfg.Parser.BlockSelector != ".MjjYud" || cfg.Parser.Strictness != "lenient" || cfg.Parser.DedupeURLs {
		t.Errorf("parser = %+v", cfg.Parser)
	}
	if want := []time.Duration{0, 3 * time.Second}; !reflect.DeepEqual(cfg.Engine.EscalationDelays, want) {
		t.Errorf("escalation delays = %v, want %v", cfg.Engine.EscalationDelays, want)
	}
	if cfg.Engine.FetchMode != "browser" {
		t.Errorf("fetch mode = %q", cfg.Engine.FetchMode)
	}
	if cfg.Auth.Enabled || cfg.Auth.APIKeys != nil {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if want := []string{"*"}; !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Errorf("cors origins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERPRANK_PORT", "9090")
	t.Setenv("SERPRANK_HEADLESS", "false")
	t.Setenv("SERPRANK_MAX_SESSIONS", "8")
	t.Setenv("SERPRANK_FETCH_TIMEOUT", "45s")
	t.Setenv("SERPRANK_FILTER_STRICTNESS", "strict")
	t.Setenv("SERPRANK_API_KEYS", " key-a , ,key-b ")
	t.Setenv("SERPRANK_ESCALATION_DELAYS", "0s, 1500ms, bogus")
	t.Setenv("SERPRANK_RATE_RPS", "2.5")
	t.Setenv("SERPRANK_HL", "ko")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Browser.Headless {
		t.Error("headless should be false")
	}
	if cfg.Browser.MaxSessions != 8 {
		t.Errorf("max sessions = %d", cfg.Browser.MaxSessions)
	}
	if cfg.Search.FetchTimeout != 45*time.Second {
		t.Errorf("fetch timeout = %v", cfg.Search.FetchTimeout)
	}
	if cfg.Parser.Strictness != "strict" {
		t.Errorf("strictness = %q", cfg.Parser.Strictness)
	}
	if want := []string{"key-a", "key-b"}; !reflect.DeepEqual(cfg.Auth.APIKeys, want) {
		t.Errorf("api keys = %v, want %v", cfg.Auth.APIKeys, want)
	}
	if want := []time.Duration{0, 1500 * time.Millisecond}; !reflect.DeepEqual(cfg.Engine.EscalationDelays, want) {
		t.Errorf("escalation delays = %v, want %v", cfg.Engine.EscalationDelays, want)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("rps = %v", cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.Search.Language != "ko" {
		t.Errorf("hl = %q", cfg.Search.Language)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERPRANK_PORT", "eighty")
	t.Setenv("SERPRANK_HEADLESS", "maybe")
	t.Setenv("SERPRANK_QUERY_TIMEOUT", "soon")
	t.Setenv("SERPRANK_ESCALATION_DELAYS", "x,y")

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want fallback 8080", cfg.Server.Port)
	}
	if !cfg.Browser.Headless {
		t.Error("headless should fall back to true")
	}
	if cfg.Search.QueryTimeout != 120*time.Second {
		t.Errorf("query timeout = %v, want 2m", cfg.Search.QueryTimeout)
	}
	if len(cfg.Engine.EscalationDelays) != 2 {
		t.Errorf("escalation delays = %v, want defaults", cfg.Engine.EscalationDelays)
	}
}
