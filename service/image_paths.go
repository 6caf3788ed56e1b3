// Package service contains the application logic sitting between the
// HTTP handlers and the database/filesystem
package service

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// ImageSize is one of the three variants kept per artwork
type ImageSize string

const (
	SizeOriginal  ImageSize = "original"
	SizeMedium    ImageSize = "medium"
	SizeThumbnail ImageSize = "thumbnail"
)

// MaxSidePx caps the longer side of each variant. Images are never upscaled
var MaxSidePx = map[ImageSize]int{
	SizeOriginal:  8192,
	SizeMedium:    1024,
	SizeThumbnail: 256,
}

// ImagePaths holds the on-disk location of all three variants of one artwork
type ImagePaths struct {
	Original  string
	Medium    string
	Thumbnail string
}

// MakeImagePath builds {dir}/{userID}_{fullSlug}_{size}.{ext}
func MakeImagePath(userID uint, fullSlug string, size ImageSize, ext string) string {
	return filepath.Join(
		viper.GetString("images.directory"),
		fmt.Sprintf("%d_%s_%s.%s", userID, fullSlug, size, ext),
	)
}

func MakeImagePaths(userID uint, fullSlug, ext string) ImagePaths {
	return ImagePaths{
		Original:  MakeImagePath(userID, fullSlug, SizeOriginal, ext),
		Medium:    MakeImagePath(userID, fullSlug, SizeMedium, ext),
		Thumbnail: MakeImagePath(userID, fullSlug, SizeThumbnail, ext),
	}
}

// Path returns the variant for a size string taken from the URL,
// or false when the size isn't one of the three tiers
func (p ImagePaths) Path(size string) (string, bool) {
	switch ImageSize(size) {
	case SizeOriginal:
		return p.Original, true
	case SizeMedium:
		return p.Medium, true
	case SizeThumbnail:
		return p.Thumbnail, true
	}
	return "", false
}

// All returns the three paths in tier order
func (p ImagePaths) All() []string {
	return []string{p.Original, p.Medium, p.Thumbnail}
}
