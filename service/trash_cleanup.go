package service

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// TrashCleanup periodically deletes trashed image files for good once they
// are older than the configured retention. Deletes from the live request
// path only ever move files here, so this sweeper is the single place where
// artwork bytes actually disappear.
func TrashCleanup(t time.Duration) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Trash cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			trashDir := viper.GetString("images.trash_directory")
			retention := viper.GetDuration("images.trash_retention")

			entries, err := os.ReadDir(trashDir)
			if err != nil {
				zap.L().Error("Failed to read trash directory", zap.Error(err))
				continue
			}

			for _, e := range entries {
				if e.IsDir() {
					continue
				}

				info, err := e.Info()
				if err != nil {
					continue
				}

				if time.Since(info.ModTime()) < retention {
					continue
				}

				p := filepath.Join(trashDir, e.Name())
				if err := os.Remove(p); err != nil {
					zap.L().Error("Failed to remove trashed file", zap.String("path", p), zap.Error(err))
					continue
				}

				zap.L().Debug("Removed trashed file", zap.String("path", p))
			}
		}
	}()
}
