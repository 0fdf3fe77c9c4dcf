package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/use-agent/serprank/models"
)

// RankBatch returns a handler for POST /api/v1/rank/batch.
//
// Each keyword runs as an independent query against the same target, at
// most concurrency at a time. A failing keyword does not affect the others:
// the response is 200 with a per-keyword result or error.
func RankBatch(r Runner, concurrency int, timeout time.Duration) gin.HandlerFunc {
	if concurrency <= 0 {
		concurrency = 1
	}
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewRankError(models.ErrCodeInvalidInput, "invalid request", err))
			return
		}
		if len(req.Keywords) > models.MaxBatchKeywords {
			respondError(c, models.NewRankError(models.ErrCodeInvalidInput,
				fmt.Sprintf("maximum %d keywords per batch", models.MaxBatchKeywords), nil))
			return
		}
		if strings.TrimSpace(req.Target) == "" {
			respondError(c, models.NewRankError(models.ErrCodeInvalidInput, "target is required", nil))
			return
		}

		start := time.Now()
		items := make([]models.BatchItem, len(req.Keywords))

		var g errgroup.Group
		g.SetLimit(concurrency)
		for i, keyword := range req.Keywords {
			g.Go(func() error {
				ctx, cancel := withTimeout(c.Request.Context(), timeout)
				defer cancel()

				item := models.BatchItem{Keyword: keyword}
				result, err := r.Run(ctx, models.RankQuery{
					Keyword:  keyword,
					Target:   req.Target,
					MaxPages: req.MaxPages,
					Mode:     models.Mode(req.Mode),
				})
				if err != nil {
					resp := asRankError(err).ToResponse()
					item.Error = &resp
				} else {
					item.Result = models.NewRankResponse(result)
				}
				items[i] = item
				return nil
			})
		}
		_ = g.Wait()

		resp := models.BatchResponse{
			Target: req.Target,
			Total:  len(items),
			Items:  items,
		}
		for _, item := range items {
			if item.Error != nil {
				resp.Failed++
			} else {
				resp.Succeeded++
			}
		}

		slog.Info("rank batch finished",
			"target", req.Target,
			"total", resp.Total,
			"succeeded", resp.Succeeded,
			"failed", resp.Failed,
			"duration", time.Since(start),
		)
		c.JSON(http.StatusOK, resp)
	}
}
