package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"artmux/portfolio-api/model"
	"artmux/portfolio-api/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// artworkResponse shapes an artwork the way the frontend consumes it:
// numbered slug, image variants as endpoints rather than raw paths
func artworkResponse(a *model.Artwork) gin.H {
	full := util.MakeNumberedSlug(a.Slug, a.SlugNum)

	tags := a.Tags
	if tags == nil {
		tags = []model.Tag{}
	}

	return gin.H{
		"id":           a.ID,
		"uuid":         a.UUID,
		"slug":         full,
		"title":        a.Title,
		"observations": a.Observations,
		"tags":         tags,
		"createdAt":    a.CreatedAt,
		"updatedAt":    a.UpdatedAt,
		"imagePaths": gin.H{
			"original":  artworkImageEndpoint(full, "original"),
			"medium":    artworkImageEndpoint(full, "medium"),
			"thumbnail": artworkImageEndpoint(full, "thumbnail"),
		},
	}
}

func artworkImageEndpoint(fullSlug, size string) string {
	return fmt.Sprintf("/artworks/%s/images/%s", fullSlug, size)
}

// findArtwork resolves a numbered slug to the caller's artwork row
func findArtwork(db *gorm.DB, userID uint, fullSlug string) (*model.Artwork, error) {
	slug, num := util.ParseNumberedSlug(fullSlug)

	var artwork model.Artwork
	err := db.
		Preload("Tags").
		Where("user_id = ? AND slug = ? AND slug_num = ?", userID, slug, num).
		First(&artwork).
		Error
	if err != nil {
		return nil, err
	}

	return &artwork, nil
}

// parseTagsField decodes the tags multipart field, a JSON array of tag names
func parseTagsField(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, errors.New("malformed tags, expected a JSON array of names")
	}

	out := names[:0]
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			out = append(out, n)
		}
	}

	return out, nil
}

// resolveTags finds or creates the tag rows for a set of names
func resolveTags(tx *gorm.DB, names []string) ([]model.Tag, error) {
	tags := make([]model.Tag, len(names))

	for i, name := range names {
		if err := tx.Where("name = ?", name).FirstOrCreate(&tags[i], model.Tag{Name: name}).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve tag %s, %w", name, err)
		}
	}

	return tags, nil
}

// fileExt returns the lowercased extension of a stored image path,
// without the dot
func fileExt(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}
