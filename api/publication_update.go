package api

import (
	"errors"
	"net/http"
	"strings"

	"artmux/portfolio-api/model"
	"artmux/portfolio-api/service"
	"artmux/portfolio-api/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (a *API) PublicationUpdate(c *gin.Context) {
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

		zap.L().Error("Failed to fetch publication", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var data publicationBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	data.Title = strings.TrimSpace(data.Title)
	data.Text = strings.TrimSpace(data.Text)

	if data.Title == "" || data.Text == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Missing field title or text",
			"requestID": requestID,
		})
		return
	}

	newSlug := util.MakeSlug(data.Title)
	if newSlug == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Title must contain at least one letter or digit",
			"requestID": requestID,
		})
		return
	}

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		if newSlug != pub.Slug {
			num, err := service.NextSlugNum(tx, "publications", userID, newSlug)
			if err != nil {
				return err
			}

			pub.Slug = newSlug
			pub.SlugNum = num
		}

		pub.Title = data.Title
		pub.Text = data.Text

		if data.Artworks != nil {
			var artworks []model.Artwork
			err := tx.Where("user_id = ? AND id IN ?", userID, data.Artworks).Find(&artworks).Error
			if err != nil {
				return err
			}

			if err := tx.Model(pub).Association("Artworks").Replace(artworks); err != nil {
				return err
			}
		}

		return tx.Save(pub).Error
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update publication", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slug": util.MakeNumberedSlug(pub.Slug, pub.SlugNum),
	})
}

func (a *API) PublicationDelete(c *gin.Context) {
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

		zap.L().Error("Failed to fetch publication", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(pub).Association("Artworks").Clear(); err != nil {
			return err
		}

		if err := tx.Where("publication_id = ?", pub.ID).
			Delete(model.PublicationInSocialMedia{}).Error; err != nil {
			return err
		}

		return tx.Delete(pub).Error
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete publication", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusNoContent)
}
