package models

// RankResponse is the response for a successful rank query.
type RankResponse struct {
	Keyword string `json:"keyword"`
	Target  string `json:"target"`

	// ActiveRank is the global rank of the first matching result, or null.
	ActiveRank *int `json:"activeRank"`

	// SourceURL is the url of the first matching result, or null.
	SourceURL *string `json:"sourceUrl"`

	// Top10Count is how many results ranked 1-10 contain the target.
	Top10Count int `json:"top10Count"`

	// Results lists every accumulated result in rank order.
	Results []ResultRecord `json:"results"`

	// PagesFetched is the number of listing pages actually fetched.
	PagesFetched int `json:"pagesFetched"`

	Mode Mode `json:"mode"`
}

// NewRankResponse builds the API view of a query result.
func NewRankResponse(r *RankQueryResult) *RankResponse {
	results := r.Results
	if results == nil {
		results = []ResultRecord{}
	}
	return &RankResponse{
		Keyword:      r.Keyword,
		Target:       r.Target,
		ActiveRank:   r.ActiveRank,
		SourceURL:    r.SourceURL,
		Top10Count:   r.Top10Count,
		Results:      results,
		PagesFetched: r.PagesFetched,
		Mode:         r.Mode,
	}
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string       `json:"status"` // "healthy" or "degraded"
	Uptime   string       `json:"uptime"`
	Sessions SessionStats `json:"sessions"`
	Version  string       `json:"version"`
}

// SessionStats reports how many fetch sessions are in use.
type SessionStats struct {
	MaxSessions    int    `json:"max_sessions"`
	ActiveSessions int    `json:"active_sessions"`
	FetchMode      string `json:"fetch_mode"`
}
