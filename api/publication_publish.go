package api

import (
	"errors"
	"net/http"

	"artmux/portfolio-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type publishBody struct {
	Accesses []uint `json:"accesses"`
}

// PublicationPublish cross-posts a publication through each of the given
// linked accounts. Every access publishes independently; the response says
// which ones went through.
func (a *API) PublicationPublish(c *gin.Context) {
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

	var data publishBody
	if err := c.ShouldBind(&data); err != nil || len(data.Accesses) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No accesses provided",
			"requestID": requestID,
		})
		return
	}

	// The first artwork's original rides along where the provider supports
	// media uploads
	imagePath := ""
	if len(pub.Artworks) > 0 {
		imagePath = pub.Artworks[0].ImgPathOriginal
	}

	published := []uint{}
	failed := []gin.H{}

	for _, accessID := range data.Accesses {
		var access model.Access
		err := a.DB.Where("id = ? AND user_id = ?", accessID, userID).First(&access).Error
		if err != nil {
			failed = append(failed, gin.H{"access": accessID, "error": "access not found"})
			continue
		}

		provider, ok := a.Social.Get(access.SocialMediaID)
		if !ok {
			failed = append(failed, gin.H{"access": accessID, "error": "unknown social media"})
			continue
		}

		if err := provider.Publish(&access, pub, imagePath); err != nil {
			zap.L().Error("Failed to publish",
				zap.Uint("accessID", accessID),
				zap.Uint("publicationID", pub.ID),
				zap.Error(err))

			failed = append(failed, gin.H{"access": accessID, "error": "publish failed"})
			continue
		}

		record := model.PublicationInSocialMedia{
			PublicationID: pub.ID,
			AccessID:      access.ID,
			SocialMediaID: access.SocialMediaID,
		}
		if err := a.DB.Create(&record).Error; err != nil {
			zap.L().Error("Failed to record publication in social media", zap.Error(err))
		}

		published = append(published, accessID)
	}

	status := http.StatusOK
	if len(published) == 0 {
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{
		"published": published,
		"failed":    failed,
	})
}

// PublicationPublished returns where a publication has been cross-posted
func (a *API) PublicationPublished(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	pub, err := findPublication(a.DB, userID, c.Param("slug"), false)
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
		return
	}

	var records []model.PublicationInSocialMedia
	err = a.DB.
		Where("publication_id = ?", pub.ID).
		Order("created_at desc").
		Find(&records).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list publish records", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, records)
}
