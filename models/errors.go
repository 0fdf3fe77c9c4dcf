package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeFetchFailed  = "FETCH_FAILED"
	ErrCodeParseFailed  = "PARSE_FAILED"
	ErrCodeCancelled    = "CANCELLED"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeBlocked      = "BLOCKED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	// Error is a human-readable summary.
	Error string `json:"error"`

	// Details carries the underlying cause message.
	Details string `json:"details"`

	// Code is the machine-readable error code.
	Code string `json:"code"`

	// Page is the listing page that failed, when the failure is page-specific.
	Page int `json:"page,omitempty"`
}

// RankError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type RankError struct {
	Code    string
	Message string
	Page    int   // listing page being processed, 0 when not page-specific
	Err     error // wrapped original error
}

func (e *RankError) Error() string {
	prefix := e.Code
	if e.Page > 0 {
		prefix = fmt.Sprintf("%s (page %d)", e.Code, e.Page)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *RankError) Unwrap() error {
	return e.Err
}

// NewRankError creates a new RankError.
func NewRankError(code, message string, err error) *RankError {
	return &RankError{Code: code, Message: message, Err: err}
}

// AtPage returns a copy of the error annotated with the page number.
func (e *RankError) AtPage(page int) *RankError {
	c := *e
	c.Page = page
	return &c
}

// Details returns the underlying cause message, or the summary when there
// is no wrapped error.
func (e *RankError) Details() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// ToResponse converts an internal error to the API-facing error body.
func (e *RankError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Details: e.Details(), Code: e.Code, Page: e.Page}
}

// CodeOf returns the code of the outermost RankError in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var re *RankError
	if errors.As(err, &re) {
		return re.Code
	}
	return ErrCodeInternal
}
