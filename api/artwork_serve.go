package api

import (
	"errors"
	"net/http"
	"os"

	"artmux/portfolio-api/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ArtworkServeImage serves one variant file straight off disk
func (a *API) ArtworkServeImage(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	size := c.Param("size")
	if _, ok := (service.ImagePaths{}).Path(size); !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid image size " + size,
			"requestID": requestID,
		})
		return
	}

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
		return
	}

	paths := service.ImagePaths{
		Original:  artwork.ImgPathOriginal,
		Medium:    artwork.ImgPathMedium,
		Thumbnail: artwork.ImgPathThumbnail,
	}

	p, _ := paths.Path(size)
	if _, err := os.Stat(p); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Image does not exist",
			"requestID": requestID,
		})
		return
	}

	c.File(p)
}
