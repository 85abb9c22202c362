package server

import (
	"errors"
	"net/http"

	"talent-sourcing/internal/api/ranking"
	"talent-sourcing/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps the domain taxonomy to HTTP. Messages stay user-safe;
// balances and internals are only ever logged.
func (s *Server) respondError(c *gin.Context, err error) {
	var status int
	var code, message string

	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		status, code, message = http.StatusUnauthorized, "unauthenticated", "missing or invalid session"

	case errors.Is(err, models.ErrForbidden):
		status, code, message = http.StatusForbidden, "forbidden", "you do not have access to this vacancy"

	case errors.Is(err, models.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", "resource not found or unpublished"

	case errors.Is(err, models.ErrRateLimited):
		status, code, message = http.StatusTooManyRequests, "rate_limited", "dry run limit reached, try again later"

	case errors.Is(err, models.ErrNoCandidates):
		// a valid terminal state, not a system fault: distinct code so the
		// client can tell it from a missing posting
		status, code, message = http.StatusNotFound, "no_candidates", "no eligible candidates available for this vacancy"

	case errors.Is(err, models.ErrInsufficientCredits):
		status, code, message = http.StatusPaymentRequired, "insufficient_credits", "not enough credits for this operation"

	case errors.Is(err, models.ErrInvalidTransition):
		status, code, message = http.StatusConflict, "invalid_transition", "contact status transition not allowed"

	case errors.Is(err, ranking.ErrThrottled):
		status, code, message = http.StatusTooManyRequests, "ranking_throttled", "ranking engine is busy, try again shortly"

	case errors.Is(err, ranking.ErrQuotaExceeded):
		status, code, message = http.StatusPaymentRequired, "ranking_quota_exceeded", "ranking engine quota exhausted"

	case errors.Is(err, ranking.ErrParse):
		status, code, message = http.StatusInternalServerError, "ranking_error", "ranking engine returned an unusable response"

	default:
		// storage and unexpected failures may imply inconsistent state
		// needing reconciliation; keep them distinguishable in logs
		s.logger.Error("unhandled request error", zap.Error(err))
		status, code, message = http.StatusInternalServerError, "internal_error", "internal error"
	}

	c.JSON(status, gin.H{
		"success": false,
		"code":    code,
		"error":   message,
	})
}
