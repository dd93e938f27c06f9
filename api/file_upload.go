package api

import (
	"io"
	"net/http"
	"strings"

	"hearly/transcription-api/auth"
	"hearly/transcription-api/middleware"
	"hearly/transcription-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) Upload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	ident := c.MustGet(middleware.IdentityKey).(auth.Identity)

	if !strings.HasPrefix(c.Request.Header.Get("Content-Type"), "multipart/form-data") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request",
			"requestID": requestID,
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to parse multipart form", zap.Error(err))
		return
	}

	files := form.File["file"]
	if len(files) <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	fh := files[0]

	code, f, err := validators.AudioValidator(fh)
	if err != nil {
		if code == http.StatusInternalServerError {
			zap.L().Error("Failed to validate file", zap.Error(err))
			err = validators.ErrNoFile
		}

		c.AbortWithStatusJSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}
	defer f.Close()

	// The hash and the inspector both need the full content, so the
	// upload is buffered once here
	raw, err := io.ReadAll(f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read upload", zap.Error(err))
		return
	}

	res, err := a.Files.Ingest(c.Request.Context(), ident, fh.Filename, raw)
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
