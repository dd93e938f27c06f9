package api

import (
	"net/http"

	"hearly/transcription-api/auth"
	"hearly/transcription-api/middleware"

	"github.com/gin-gonic/gin"
)

func (a *API) FileDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	ident := c.MustGet(middleware.IdentityKey).(auth.Identity)

	fileID := c.Param("fileID")
	if fileID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "ID is missing",
			"requestID": requestID,
		})
		return
	}

	res, err := a.Files.Delete(c.Request.Context(), ident, fileID)
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
