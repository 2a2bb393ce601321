// Package httperr maps scheduling failures onto response envelopes.
package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/scheduling"
	"github.com/aura-events/backend/pkg/response"
)

// Status returns the HTTP status for an engine error kind.
func Status(kind scheduling.Kind) int {
	switch kind {
	case scheduling.KindValidation:
		return http.StatusBadRequest
	case scheduling.KindConflict:
		return http.StatusConflict
	case scheduling.KindAuthorization, scheduling.KindTemporal:
		return http.StatusForbidden
	case scheduling.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Write sends err as a failure envelope. Internal failures are logged and their detail hidden.
func Write(c *gin.Context, logger *zap.Logger, err error) {
	var e *scheduling.Error
	if !errors.As(err, &e) || e.Kind == scheduling.KindInternal {
		if logger != nil {
			logger.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		}
		response.Internal(c, "internal error")
		return
	}
	response.Fail(c, Status(e.Kind), string(e.Code), e.Message)
}
