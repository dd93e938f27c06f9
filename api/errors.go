package api

import (
	"net/http"

	"hearly/transcription-api/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortError maps a classified error onto the wire. Unclassified and
// service errors become opaque 500s; their detail only goes to the log.
func abortError(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	var status int
	switch apperr.KindOf(err) {
	case apperr.KindNotFound, apperr.KindIntegrity:
		status = http.StatusNotFound
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindValidation:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("requestID", requestID),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":     apperr.Message(err),
		"requestID": requestID,
	})
}
