package api

import (
	"errors"
	"net/http"

	"artmux/portfolio-api/model"
	"artmux/portfolio-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var artworkOrderFields = []string{"updated_at", "created_at", "title"}

// ArtworkSearch lists the caller's artworks with pagination, ordering and
// composable filters. Filters on the same field are OR'd, different fields
// are AND'd.
func (a *API) ArtworkSearch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	params, err := service.ParseSearchParams(c, userID, artworkOrderFields)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	q := a.DB.
		Model(model.Artwork{}).
		Where("user_id = ?", params.UserID)

	q, err = service.ApplyFilters(q, a.DB, params.Filters)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count artworks", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var results []model.Artwork
	err = q.
		Preload("Tags").
		Order(params.Order + " " + params.Direction).
		Limit(params.PerPage).
		Offset((params.Page - 1) * params.PerPage).
		Find(&results).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to search artworks", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	works := make([]gin.H, len(results))
	for i := range results {
		works[i] = artworkResponse(&results[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"totalWorks": total,
		"works":      works,
	})
}

func (a *API) ArtworkFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	artwork, err := findArtwork(a.DB, userID, c.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Artwork not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch artwork", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, artworkResponse(artwork))
}
