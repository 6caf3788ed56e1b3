package api

import (
	"errors"
	"net/http"
	"net/url"

	"artmux/portfolio-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TwitterCallback is where Twitter redirects the browser after authorization.
// No JWT here, the user is correlated through the state token
func (a *API) TwitterCallback(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	provider, _ := a.Social.Get(service.TwitterID)
	a.finishCallback(c, requestID, provider, c.Request.URL.Query())
}

// RedditCallback receives the state and code from the frontend, which the
// browser handed it on Reddit's redirect
func (a *API) RedditCallback(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var body struct {
		State string `json:"state"`
		Code  string `json:"code"`
	}

	if err := c.ShouldBindJSON(&body); err != nil || body.State == "" || body.Code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Missing state or code",
			"requestID": requestID,
		})
		return
	}

	query := url.Values{}
	query.Set("state", body.State)
	query.Set("code", body.Code)

	provider, _ := a.Social.Get(service.RedditID)
	a.finishCallback(c, requestID, provider, query)
}

func (a *API) finishCallback(c *gin.Context, requestID string, provider service.Provider, query url.Values) {
	access, err := provider.ExchangeCallback(query)
	if err != nil {
		if errors.Is(err, service.ErrAuthDenied) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Authorization was denied or has expired",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("OAuth exchange failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := a.DB.Create(access).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to store access", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": access.ID})
}
