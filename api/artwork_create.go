package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"artmux/portfolio-api/model"
	"artmux/portfolio-api/service"
	"artmux/portfolio-api/util"
	"artmux/portfolio-api/validators"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (a *API) ArtworkCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	if !strings.HasPrefix(c.Request.Header.Get("Content-Type"), "multipart/form-data") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request",
			"requestID": requestID,
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to parse multipart form", zap.Error(err))
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	files := form.File["image"]

	missing := []string{}
	if title == "" {
		missing = append(missing, "title")
	}
	if len(files) == 0 {
		missing = append(missing, "image")
	}
	if len(missing) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Missing " + strings.Join(missing, ", "),
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

	slug := util.MakeSlug(title)
	if slug == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Title must contain at least one letter or digit",
			"requestID": requestID,
		})
		return
	}

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

	// Staged inside the images directory so materializing is a plain rename
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

	imgtrx := service.NewImageTransaction()
	if err := imgtrx.StageUpload(temp); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to stage upload", zap.Error(err))
		return
	}

	artwork := model.Artwork{
		UUID:         uuid.NewString(),
		UserID:       userID,
		Title:        title,
		Observations: c.PostForm("observations"),
	}

	// Both transactions open before any mutation, both unwound together
	// on any failure
	err = a.DB.Transaction(func(tx *gorm.DB) error {
		num, err := service.NextSlugNum(tx, "artworks", userID, slug)
		if err != nil {
			return err
		}

		artwork.Slug = slug
		artwork.SlugNum = num

		paths := service.MakeImagePaths(userID, util.MakeNumberedSlug(slug, num), ext)
		if err := imgtrx.Materialize(paths); err != nil {
			return err
		}

		artwork.ImgPathOriginal = paths.Original
		artwork.ImgPathMedium = paths.Medium
		artwork.ImgPathThumbnail = paths.Thumbnail

		artwork.Tags, err = resolveTags(tx, tagNames)
		if err != nil {
			return err
		}

		return tx.Create(&artwork).Error
	})
	if err != nil {
		imgtrx.Rollback()

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create artwork", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"uuid": artwork.UUID,
		"slug": util.MakeNumberedSlug(artwork.Slug, artwork.SlugNum),
	})
}
