package api

import (
	"net/http"

	"hearly/transcription-api/auth"

	"github.com/gin-gonic/gin"
)

// The stats routes take the username straight from the path. They're
// deliberately public (matching the shipped contract), so the identity
// is minted as trusted rather than token-verified.

func (a *API) LanguageDistribution(c *gin.Context) {
	dist, err := a.Stats.LanguageDistribution(c.Request.Context(), auth.Trusted(c.Param("username")))
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusOK, dist)
}

func (a *API) RecentActivity(c *gin.Context) {
	activity, err := a.Stats.RecentActivity(c.Request.Context(), auth.Trusted(c.Param("username")))
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

func (a *API) TotalDuration(c *gin.Context) {
	total, err := a.Stats.TotalDuration(c.Request.Context(), auth.Trusted(c.Param("username")))
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusOK, total)
}
