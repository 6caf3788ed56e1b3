package api

import (
	"net/http"
	"strings"

	"artmux/portfolio-api/model"
	"artmux/portfolio-api/service"
	"artmux/portfolio-api/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type publicationBody struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	Artworks []uint `json:"artworks"`
}

func (a *API) PublicationCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

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

	if data.Title == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Missing field title",
			"requestID": requestID,
		})
		return
	}

	if data.Text == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Missing field text",
			"requestID": requestID,
		})
		return
	}

	slug := util.MakeSlug(data.Title)
	if slug == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Title must contain at least one letter or digit",
			"requestID": requestID,
		})
		return
	}

	pub := model.Publication{
		UserID: userID,
		Title:  data.Title,
		Text:   data.Text,
		Slug:   slug,
	}

	err := a.DB.Transaction(func(tx *gorm.DB) error {
		num, err := service.NextSlugNum(tx, "publications", userID, slug)
		if err != nil {
			return err
		}
		pub.SlugNum = num

		if len(data.Artworks) > 0 {
			// Only the caller's own artworks may be grouped
			var artworks []model.Artwork
			err := tx.Where("user_id = ? AND id IN ?", userID, data.Artworks).Find(&artworks).Error
			if err != nil {
				return err
			}
			pub.Artworks = artworks
		}

		return tx.Create(&pub).Error
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create publication", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":   pub.ID,
		"slug": util.MakeNumberedSlug(pub.Slug, pub.SlugNum),
	})
}
