package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/use-agent/serprank/config"
	"github.com/use-agent/serprank/models"
)

type stubRunner struct{}

func (stubRunner) Run(ctx context.Context, q models.RankQuery) (*models.RankQueryResult, error) {
	return &models.RankQueryResult{Keyword: q.Keyword, Target: q.Target, Mode: models.ModeMulti, State: models.StateExhausted}, nil
}

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.RateLimit.RequestsPerSecond = 0
	return cfg
}

func stats() models.SessionStats {
	return models.SessionStats{MaxSessions: 4, ActiveSessions: 1, FetchMode: "browser"}
}

func TestHandler_Preflight(t *testing.T) {
	h := NewHandler(stubRunner{}, stats, testConfig(), time.Now())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/rank", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}

func TestHandler_CORSOnResponses(t *testing.T) {
	h := NewHandler(stubRunner{}, stats, testConfig(), time.Now())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rank?keyword=golang&target=go.dev", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v, ok := body["activeRank"]; !ok || v != nil {
		t.Errorf("activeRank = %v (present %v), want explicit null", v, ok)
	}
}

func TestHandler_HealthSkipsAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []string{"secret"}
	h := NewHandler(stubRunner{}, stats, cfg, time.Now())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rank?keyword=a&target=b", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("rank without key status = %d, want 401", w.Code)
	}
}
