package api

import (
	"errors"
	"net/http"

	"artmux/portfolio-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArtworkDelete removes the row and moves its three image files to the
// trash directory. The bytes stay recoverable there until the sweeper's
// retention runs out.
func (a *API) ArtworkDelete(c *gin.Context) {
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

	imgtrx := service.NewImageTransaction()

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(artwork).Association("Tags").Clear(); err != nil {
			return err
		}

		if err := tx.Model(artwork).Association("Publications").Clear(); err != nil {
			return err
		}

		if err := tx.Delete(artwork).Error; err != nil {
			return err
		}

		return imgtrx.Trash(
			artwork.ImgPathOriginal,
			artwork.ImgPathMedium,
			artwork.ImgPathThumbnail,
		)
	})
	if err != nil {
		imgtrx.Rollback()

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete artwork", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusNoContent)
}
