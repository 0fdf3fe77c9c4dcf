// Package rank resolves where a target domain ranks for a keyword by walking
// search listing pages in order and stopping at the first match.
package rank

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/serprank/models"
	"github.com/use-agent/serprank/parser"
)

// DefaultPageSize is the result offset step between listing pages.
const DefaultPageSize = 10

// Controller drives the pagination state machine for rank queries.
// It is safe for concurrent use: every Run owns its own session and
// accumulator.
type Controller struct {
	provider  SessionProvider
	parser    parser.Parser
	pageSize  int
	pageLimit int
}

// Option customises a Controller.
type Option func(*Controller)

// WithPageSize sets the offset step between pages.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithPageLimit sets the upper clamp for a query's page count.
func WithPageLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageLimit = n
		}
	}
}

// NewController creates a Controller fetching through provider and parsing
// with p.
func NewController(provider SessionProvider, p parser.Parser, opts ...Option) *Controller {
	c := &Controller{
		provider:  provider,
		parser:    p,
		pageSize:  DefaultPageSize,
		pageLimit: models.MaxPagesLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run resolves one query.
//
// Lifecycle:
//
//  1. Validate         – no session is acquired for an invalid query
//  2. Acquire session  – released by defer on every exit path
//  3. Per page         – cancellation check, fetch at (page-1)*pageSize,
//     parse, append, look for the target
//  4. Stop             – MATCHED on the first match, EXHAUSTED after MaxPages
//
// Any failure aborts the whole query: the result is nil and the error is a
// *models.RankError with code INVALID_INPUT, FETCH_FAILED, BLOCKED,
// PARSE_FAILED, CANCELLED or TIMEOUT.
func (c *Controller) Run(ctx context.Context, q models.RankQuery) (*models.RankQueryResult, error) {
	q, err := q.Normalize(c.pageLimit)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log := slog.With("keyword", q.Keyword, "target", q.Target, "maxPages", q.MaxPages, "mode", q.Mode)

	session, err := c.provider.Acquire(ctx)
	if err != nil {
		return nil, c.fail(log, fetchError(ctx, "failed to acquire fetch session", err))
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.Warn("failed to release fetch session", "error", closeErr)
		}
	}()

	acc := NewAccumulator()
	state := models.StateFetching
	pages := 0
	var match models.ResultRecord

	for page := 1; state == models.StateFetching; page++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, c.fail(log, cancelError(ctxErr).AtPage(page))
		}

		offset := (page - 1) * c.pageSize
		listing, err := session.FetchListing(ctx, q.Keyword, offset)
		if err != nil {
			return nil, c.fail(log, fetchError(ctx, "failed to fetch listing page", err).AtPage(page))
		}
		pages++

		entries, err := c.parser.Parse(listing)
		if err != nil {
			return nil, c.fail(log, parseError(err).AtPage(page))
		}

		added := acc.Append(entries)
		log.Debug("listing page processed",
			"page", page,
			"offset", offset,
			"added", len(added),
			"total", acc.Len(),
			"engine", listing.Engine,
		)

		if rec, ok := acc.FindTarget(q.Target); ok {
			match = rec
			state = models.StateMatched
		} else if page >= q.MaxPages {
			state = models.StateExhausted
		}
	}

	result := &models.RankQueryResult{
		Keyword:      q.Keyword,
		Target:       q.Target,
		Mode:         q.Mode,
		Top10Count:   acc.CountTop10(q.Target),
		Results:      acc.Records(),
		PagesFetched: pages,
		State:        state,
	}
	if state == models.StateMatched {
		rank, sourceURL := match.Rank, match.URL
		result.ActiveRank = &rank
		result.SourceURL = &sourceURL
	}

	log.Info("rank query finished",
		"state", state,
		"activeRank", match.Rank,
		"top10Count", result.Top10Count,
		"pages", pages,
		"results", len(result.Results),
		"duration", time.Since(start),
	)
	return result, nil
}

func (c *Controller) fail(log *slog.Logger, err *models.RankError) *models.RankError {
	log.Warn("rank query failed",
		"state", models.StateFailed,
		"code", err.Code,
		"page", err.Page,
		"error", err,
	)
	return err
}

// fetchError classifies a fetch-side failure. When the query context has
// ended the failure is reported as a cancellation, not a fetch problem.
// Challenge and browser-crash errors keep their own code.
func fetchError(ctx context.Context, msg string, err error) *models.RankError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		e := cancelError(ctxErr)
		e.Err = errors.Join(ctxErr, err)
		return e
	}
	var re *models.RankError
	if errors.As(err, &re) && (re.Code == models.ErrCodeBlocked || re.Code == models.ErrCodeBrowserCrash) {
		return re
	}
	return models.NewRankError(models.ErrCodeFetchFailed, msg, err)
}

func cancelError(ctxErr error) *models.RankError {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return models.NewRankError(models.ErrCodeTimeout, "query deadline exceeded", ctxErr)
	}
	return models.NewRankError(models.ErrCodeCancelled, "query cancelled", ctxErr)
}

func parseError(err error) *models.RankError {
	var re *models.RankError
	if errors.As(err, &re) && re.Code == models.ErrCodeParseFailed {
		return re
	}
	return models.NewRankError(models.ErrCodeParseFailed, "failed to parse listing page", err)
}
