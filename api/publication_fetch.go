package api

import (
	"errors"
	"net/http"

	"artmux/portfolio-api/model"
	"artmux/portfolio-api/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func publicationResponse(p *model.Publication, withArtworks bool) gin.H {
	out := gin.H{
		"id":        p.ID,
		"slug":      util.MakeNumberedSlug(p.Slug, p.SlugNum),
		"title":     p.Title,
		"text":      p.Text,
		"createdAt": p.CreatedAt,
		"updatedAt": p.UpdatedAt,
	}

	if withArtworks {
		works := make([]gin.H, len(p.Artworks))
		for i := range p.Artworks {
			works[i] = artworkResponse(&p.Artworks[i])
		}
		out["artworks"] = works
	}

	return out
}

func findPublication(db *gorm.DB, userID uint, fullSlug string, preload bool) (*model.Publication, error) {
	slug, num := util.ParseNumberedSlug(fullSlug)

	q := db.Where("user_id = ? AND slug = ? AND slug_num = ?", userID, slug, num)
	if preload {
		q = q.Preload("Artworks").Preload("Artworks.Tags")
	}

	var pub model.Publication
	if err := q.First(&pub).Error; err != nil {
		return nil, err
	}

	return &pub, nil
}

func (a *API) PublicationList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	var pubs []model.Publication
	err := a.DB.
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&pubs).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list publications", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	out := make([]gin.H, len(pubs))
	for i := range pubs {
		out[i] = publicationResponse(&pubs[i], false)
	}

	c.JSON(http.StatusOK, out)
}

func (a *API) PublicationFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	pub, err := findPublication(a.DB, userID, c.Param("slug"), true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Publication not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch publication", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, publicationResponse(pub, true))
}
