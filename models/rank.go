package models

import "strings"

// Mode selects how many listing pages a query may walk by default.
type Mode string

const (
	// ModeMulti walks up to MaxPages listing pages and stops on the first match.
	ModeMulti Mode = "multi"

	// ModeTop10 inspects only the first listing page.
	ModeTop10 Mode = "top10"
)

// Page bounds shared by every query.
const (
	DefaultMultiPages = 5
	DefaultTop10Pages = 1
	MaxPagesLimit     = 10
	Top10Rank         = 10
)

// ResultRecord is one organic listing entry with its global rank.
type ResultRecord struct {
	Title string `json:"title"`
	URL   string `json:"url"`

	// Rank is the 1-based position across all pages fetched in the query.
	Rank int `json:"rank"`
}

// RankQuery is the input of one rank resolution.
type RankQuery struct {
	Keyword  string
	Target   string
	MaxPages int
	Mode     Mode
}

// Normalize trims the text fields and resolves MaxPages against the mode
// defaults and the given upper limit. It returns a ValidationError when the
// query cannot run.
func (q RankQuery) Normalize(limit int) (RankQuery, error) {
	if limit <= 0 {
		limit = MaxPagesLimit
	}
	q.Keyword = strings.TrimSpace(q.Keyword)
	q.Target = strings.TrimSpace(q.Target)

	if q.Keyword == "" {
		return q, NewRankError(ErrCodeInvalidInput, "keyword is required", nil)
	}
	if q.Target == "" {
		return q, NewRankError(ErrCodeInvalidInput, "target is required", nil)
	}
	if q.MaxPages < 0 {
		return q, NewRankError(ErrCodeInvalidInput, "maxPages must be a positive integer", nil)
	}

	switch q.Mode {
	case "", ModeMulti:
		q.Mode = ModeMulti
		if q.MaxPages == 0 {
			q.MaxPages = DefaultMultiPages
		}
	case ModeTop10:
		q.MaxPages = DefaultTop10Pages
	default:
		return q, NewRankError(ErrCodeInvalidInput, "mode must be one of: multi, top10", nil)
	}

	if q.MaxPages > limit {
		q.MaxPages = limit
	}
	return q, nil
}

// State is a pagination controller state.
type State string

const (
	StateFetching  State = "FETCHING"
	StateMatched   State = "MATCHED"
	StateExhausted State = "EXHAUSTED"
	StateFailed    State = "FAILED"
)

// RankQueryResult is the aggregated outcome of a finished query.
type RankQueryResult struct {
	Keyword string
	Target  string
	Mode    Mode

	// ActiveRank is nil when the target was not found.
	ActiveRank *int

	// SourceURL is nil when the target was not found.
	SourceURL *string

	Top10Count   int
	Results      []ResultRecord
	PagesFetched int
	State        State
}

// Found reports whether the target matched a record.
func (r *RankQueryResult) Found() bool {
	return r.ActiveRank != nil
}
