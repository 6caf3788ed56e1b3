package api

import (
	"net/http"

	"artmux/portfolio-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TagList returns every tag used by at least one of the caller's artworks
func (a *API) TagList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	var tags []model.Tag
	err := a.DB.
		Distinct("tags.*").
		Joins("JOIN artwork_has_tags ON artwork_has_tags.tag_id = tags.id").
		Joins("JOIN artworks ON artworks.id = artwork_has_tags.artwork_id").
		Where("artworks.user_id = ?", userID).
		Order("tags.name").
		Find(&tags).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list tags", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, tags)
}
