package models

// MaxBatchKeywords caps the keywords accepted by one batch request.
const MaxBatchKeywords = 20

// BatchRequest is the payload for POST /api/v1/rank/batch.
type BatchRequest struct {
	// Keywords are checked independently against the same target. Required.
	Keywords []string `json:"keywords" binding:"required,min=1"`

	Target   string `json:"target"`
	MaxPages int    `json:"maxPages,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

// BatchItem is the outcome for one keyword of a batch.
type BatchItem struct {
	Keyword string         `json:"keyword"`
	Result  *RankResponse  `json:"result,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// BatchResponse is the response for POST /api/v1/rank/batch.
type BatchResponse struct {
	Target    string      `json:"target"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items"`
}
