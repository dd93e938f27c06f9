package api

import (
	"net/http"
	"strconv"

	"hearly/transcription-api/auth"
	"hearly/transcription-api/middleware"

	"github.com/gin-gonic/gin"
)

func (a *API) Transcription(c *gin.Context) {
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

	checkStatus, _ := strconv.ParseBool(c.Query("check_status"))

	res, err := a.Files.Poll(c.Request.Context(), ident, fileID, checkStatus)
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
