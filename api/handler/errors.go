package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/serprank/models"
)

// statusClientClosedRequest is the nginx convention for a request whose
// client went away before the response was ready.
const statusClientClosedRequest = 499

// respondError maps an error to its HTTP status and writes the JSON body.
func respondError(c *gin.Context, err error) {
	rankErr := asRankError(err)
	c.JSON(mapErrorToStatus(rankErr), rankErr.ToResponse())
}

func asRankError(err error) *models.RankError {
	var rankErr *models.RankError
	if errors.As(err, &rankErr) {
		return rankErr
	}
	return models.NewRankError(models.ErrCodeInternal, "internal error", err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.RankError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeCancelled:
		return statusClientClosedRequest // 499
	case models.ErrCodeFetchFailed, models.ErrCodeParseFailed, models.ErrCodeBlocked:
		return http.StatusBadGateway // 502
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}
