package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/use-agent/serprank/api/handler"
	"github.com/use-agent/serprank/api/middleware"
	"github.com/use-agent/serprank/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	Rank:    Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(runner handler.Runner, stats handler.StatsFunc, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(stats, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	rankHandler := handler.Rank(runner, cfg.Search.QueryTimeout)
	protected.GET("/rank", rankHandler)
	protected.POST("/rank", rankHandler)
	protected.POST("/rank/batch", handler.RankBatch(runner, cfg.Batch.Concurrency, cfg.Search.QueryTimeout))

	return r
}

// NewHandler wraps the router with CORS. Preflight requests are answered
// with 204 before they reach auth or rate limiting.
func NewHandler(runner handler.Runner, stats handler.StatsFunc, cfg *config.Config, startTime time.Time) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:       cfg.CORS.AllowedOrigins,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type", "X-API-Key", "Authorization"},
		MaxAge:               300,
		OptionsSuccessStatus: http.StatusNoContent,
	})
	return c.Handler(NewRouter(runner, stats, cfg, startTime))
}
