package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessCreate starts the OAuth dance for one social network and hands the
// authorization URL back to the frontend, which redirects the browser there
func (a *API) AccessCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	mediaID, err := strconv.Atoi(c.Param("socialMedia"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid social media id",
			"requestID": requestID,
		})
		return
	}

	provider, ok := a.Social.Get(uint(mediaID))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Unknown social media",
			"requestID": requestID,
		})
		return
	}

	url, err := provider.AuthURL(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to build authorization URL", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
