package api

import (
	"net/http"

	"hearly/transcription-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) UserRegister(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data model.UserSignup
	if err := c.ShouldBindJSON(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	res, err := a.Cognito.SignUp(c.Request.Context(), &data)
	if err != nil {
		abortError(c, err)
		return
	}

	// The profile row is convenience data next to the files table; the
	// account already exists with the provider, so a failure here is
	// logged but doesn't undo the signup
	err = a.Users.PutUser(c.Request.Context(), &model.UserProfile{
		Username:    res.Username,
		Email:       data.Email,
		FirstName:   data.FirstName,
		LastName:    data.LastName,
		PhoneNumber: data.PhoneNumber,
		Birthdate:   data.Birthdate,
	})
	if err != nil {
		zap.L().Error("Failed to save user profile", zap.String("username", res.Username), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "User signed up successfully",
		"user_sub": res.UserSub,
		"username": res.Username,
	})
}
