package validators

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrFileNoExtension     = errors.New("provided file has no extension")
	ErrNoFile              = errors.New("no file provided")
)

// Formats the resizer can both decode and save again
var allowedExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff"}

const maxFileNameSize = 255

// ImageValidator checks an uploaded artwork image and returns the HTTP
// status to answer with on failure, plus the normalized file extension
func ImageValidator(fh *multipart.FileHeader) (int, string, error) {
	if fh == nil {
		return http.StatusBadRequest, "", ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, "", ErrFileNameTooLong
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fh.Filename), "."))
	if ext == "" {
		return http.StatusBadRequest, "", ErrFileNoExtension
	}

	if !slices.Contains(allowedExtensions, ext) {
		return http.StatusBadRequest, "", ErrFileTypeUnsupported
	}

	if fh.Size > viper.GetInt64("images.max_upload_size") {
		return http.StatusRequestEntityTooLarge, "", ErrFileTooLarge
	}

	// Headers and file names are easy to spoof, so sniff the actual bytes too
	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, "", err
	}
	defer f.Close()

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return http.StatusInternalServerError, "", err
	}

	if !strings.HasPrefix(mime.String(), "image/") {
		return http.StatusBadRequest, "", ErrFileTypeUnsupported
	}

	return 0, ext, nil
}
