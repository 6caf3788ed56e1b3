package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"artmux/portfolio-api/service"
	"artmux/portfolio-api/util"
	"artmux/portfolio-api/validators"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArtworkUpdate edits title, observations and tags, optionally replacing the
// image. Three filesystem shapes fall out of it:
//   - new image: old variants move to trash, new ones are materialized
//   - no new image but the title changed the slug: variants are renamed
//   - neither: no filesystem work at all
func (a *API) ArtworkUpdate(c *gin.Context) {
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

	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request",
			"requestID": requestID,
		})
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Missing title",
			"requestID": requestID,
		})
		return
	}

	newSlug := util.MakeSlug(title)
	if newSlug == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Title must contain at least one letter or digit",
			"requestID": requestID,
		})
		return
	}

	tagNames, err := parseTagsField(c.PostForm("tags"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	var newImage *struct {
		temp string
		ext  string
	}

	if files := form.File["image"]; len(files) > 0 {
		fh := files[0]

		code, ext, err := validators.ImageValidator(fh)
		if err != nil {
			if code == http.StatusInternalServerError {
				zap.L().Error("Failed to validate file", zap.Error(err))
				err = validators.ErrFileTypeUnsupported
			}

			c.AbortWithStatusJSON(code, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
			return
		}

		tempName, _ := gonanoid.New(12)
		temp := filepath.Join(viper.GetString("images.directory"), "upload-"+tempName+"."+ext)

		if err := c.SaveUploadedFile(fh, temp); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to store uploaded file", zap.Error(err))
			return
		}

		newImage = &struct {
			temp string
			ext  string
		}{temp, ext}
	}

	slugChanged := newSlug != artwork.Slug
	oldPaths := service.ImagePaths{
		Original:  artwork.ImgPathOriginal,
		Medium:    artwork.ImgPathMedium,
		Thumbnail: artwork.ImgPathThumbnail,
	}

	imgtrx := service.NewImageTransaction()

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		num := artwork.SlugNum
		if slugChanged {
			var err error
			num, err = service.NextSlugNum(tx, "artworks", userID, newSlug)
			if err != nil {
				return err
			}
		}

		fullSlug := util.MakeNumberedSlug(newSlug, num)

		artwork.Title = title
		artwork.Observations = c.PostForm("observations")
		artwork.Slug = newSlug
		artwork.SlugNum = num

		switch {
		case newImage != nil:
			if err := imgtrx.StageUpload(newImage.temp); err != nil {
				return err
			}

			if err := imgtrx.Trash(oldPaths.All()...); err != nil {
				return err
			}

			paths := service.MakeImagePaths(userID, fullSlug, newImage.ext)
			if err := imgtrx.Materialize(paths); err != nil {
				return err
			}

			artwork.ImgPathOriginal = paths.Original
			artwork.ImgPathMedium = paths.Medium
			artwork.ImgPathThumbnail = paths.Thumbnail

		case slugChanged:
			paths := service.MakeImagePaths(userID, fullSlug, fileExt(oldPaths.Original))
			if err := imgtrx.Rename(oldPaths, paths); err != nil {
				return err
			}

			artwork.ImgPathOriginal = paths.Original
			artwork.ImgPathMedium = paths.Medium
			artwork.ImgPathThumbnail = paths.Thumbnail
		}

		tags, err := resolveTags(tx, tagNames)
		if err != nil {
			return err
		}

		if err := tx.Model(artwork).Association("Tags").Replace(tags); err != nil {
			return err
		}
		artwork.Tags = tags

		return tx.Save(artwork).Error
	})
	if err != nil {
		imgtrx.Rollback()

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update artwork", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slug": util.MakeNumberedSlug(artwork.Slug, artwork.SlugNum),
	})
}
