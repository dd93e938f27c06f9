package api

import (
	"net/http"

	"hearly/transcription-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) UserVerify(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data model.UserVerify
	if err := c.ShouldBindJSON(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := a.Cognito.ConfirmSignUp(c.Request.Context(), data.Username, data.ConfirmationCode); err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account verified successfully",
	})
}
