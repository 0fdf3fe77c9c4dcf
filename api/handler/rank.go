package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/serprank/models"
)

// Runner resolves one rank query. *rank.Controller implements it.
type Runner interface {
	Run(ctx context.Context, q models.RankQuery) (*models.RankQueryResult, error)
}

// Rank returns a handler for GET and POST /api/v1/rank.
//
// GET reads keyword, target, pages (or maxPages) and mode from the query
// string; POST reads the same fields from a JSON body. The query runs under
// the request context bounded by timeout, so a client disconnect cancels it.
func Rank(r Runner, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RankRequest
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, models.NewRankError(models.ErrCodeInvalidInput, "invalid request", err))
			return
		}

		ctx, cancel := withTimeout(c.Request.Context(), timeout)
		defer cancel()

		result, err := r.Run(ctx, req.ToQuery())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewRankResponse(result))
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
