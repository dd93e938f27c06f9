package api

import (
	"net/http"

	"hearly/transcription-api/auth"
	"hearly/transcription-api/middleware"

	"github.com/gin-gonic/gin"
)

func (a *API) FileList(c *gin.Context) {
	ident := c.MustGet(middleware.IdentityKey).(auth.Identity)

	recs, err := a.Files.List(c.Request.Context(), ident)
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusOK, recs)
}
