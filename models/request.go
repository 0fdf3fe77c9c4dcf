package models

// RankRequest is the payload for GET/POST /api/v1/rank.
type RankRequest struct {
	// Keyword is the search query. Required.
	Keyword string `json:"keyword" form:"keyword"`

	// Target is the domain (or any url substring) to look for. Required.
	Target string `json:"target" form:"target"`

	// MaxPages bounds how many listing pages are fetched.
	// Default: 5 in multi mode, 1 in top10 mode. Max: 10.
	MaxPages int `json:"maxPages,omitempty" form:"maxPages"`

	// Pages is the legacy query-string name of MaxPages.
	Pages int `json:"-" form:"pages"`

	// Mode selects "multi" (default) or "top10".
	Mode string `json:"mode,omitempty" form:"mode"`
}

// ToQuery converts the request into a core RankQuery.
func (r *RankRequest) ToQuery() RankQuery {
	pages := r.MaxPages
	if pages == 0 {
		pages = r.Pages
	}
	return RankQuery{
		Keyword:  r.Keyword,
		Target:   r.Target,
		MaxPages: pages,
		Mode:     Mode(r.Mode),
	}
}
