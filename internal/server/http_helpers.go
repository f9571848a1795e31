package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"title-party/internal/game"
)

const unavailableMessage = "service temporarily unavailable"

// statusForError maps an engine error kind to an HTTP status.
func statusForError(err error) int {
	switch game.Kind(err) {
	case game.ErrValidation:
		return http.StatusBadRequest
	case game.ErrInvalidTarget:
		return http.StatusUnprocessableEntity
	case game.ErrNotFound:
		return http.StatusNotFound
	case game.ErrConflict:
		return http.StatusConflict
	case game.ErrForbidden:
		return http.StatusForbidden
	case game.ErrConfiguration, game.ErrUnavailable:
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError responds with the status for err. Server-side failures are
// logged and hidden behind a single message.
func (s *Server) writeError(c *gin.Context, err error) {
	status := statusForError(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("room_id", c.Param("roomID")),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": unavailableMessage})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
