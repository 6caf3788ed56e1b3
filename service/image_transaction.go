package service

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// ErrNoStagedUpload means Materialize ran before StageUpload
	ErrNoStagedUpload = errors.New("no uploaded file staged for this transaction")
	// ErrUploadAlreadyStaged means StageUpload ran twice on one transaction
	ErrUploadAlreadyStaged = errors.New("an uploaded file is already staged")
	// ErrImageProcessing wraps any decode/resize/save failure
	ErrImageProcessing = errors.New("image processing failed")
)

type trashedFile struct {
	from      string // Original location, restored here on rollback
	trashPath string
}

type renamedPair struct {
	from string
	to   string
}

// ImageTransaction is an in-memory undo log for the filesystem side of an
// artwork write. The database gives us real transactions, the filesystem
// doesn't, so every mutation done here is recorded and can be unwound with
// Rollback when the surrounding database transaction fails.
//
// Commit is implicit: a transaction whose Rollback is never called simply
// leaves its effects in place.
type ImageTransaction struct {
	uploadedFile string
	materialized bool

	mu      sync.Mutex
	created []string
	trashed []trashedFile
	renamed []renamedPair
}

func NewImageTransaction() *ImageTransaction {
	return &ImageTransaction{}
}

// StageUpload records the temporary file the HTTP layer already received.
// Must be called exactly once before Materialize.
func (t *ImageTransaction) StageUpload(tempPath string) error {
	if t.uploadedFile != "" {
		return ErrUploadAlreadyStaged
	}

	t.uploadedFile = tempPath
	return nil
}

// Materialize moves the staged upload to paths.Original, downscales it in
// place if it exceeds the original tier's bounding box, then derives the
// medium and thumbnail variants concurrently. Every file is recorded in the
// undo log the moment it lands on disk, so a failure halfway through still
// rolls back the files produced so far.
func (t *ImageTransaction) Materialize(paths ImagePaths) error {
	if t.uploadedFile == "" {
		return ErrNoStagedUpload
	}

	now := time.Now()

	if err := os.Rename(t.uploadedFile, paths.Original); err != nil {
		return fmt.Errorf("%w: failed to move staged upload into place, %v", ErrImageProcessing, err)
	}
	t.materialized = true
	t.recordCreated(paths.Original)

	img, err := imaging.Open(paths.Original)
	if err != nil {
		return fmt.Errorf("%w: failed to decode %s, %v", ErrImageProcessing, paths.Original, err)
	}

	// The original is resized first since both smaller variants derive from it
	if longerSide(img) > MaxSidePx[SizeOriginal] {
		img = imaging.Fit(img, MaxSidePx[SizeOriginal], MaxSidePx[SizeOriginal], imaging.Lanczos)
		if err := imaging.Save(img, paths.Original); err != nil {
			return fmt.Errorf("%w: failed to save resized original, %v", ErrImageProcessing, err)
		}
	}

	variants := []struct {
		size ImageSize
		dest string
	}{
		{SizeMedium, paths.Medium},
		{SizeThumbnail, paths.Thumbnail},
	}

	errChan := make(chan error, len(variants))

	for _, v := range variants {
		v := v
		go func() {
			resized := imaging.Fit(img, MaxSidePx[v.size], MaxSidePx[v.size], imaging.Lanczos)
			if err := imaging.Save(resized, v.dest); err != nil {
				errChan <- fmt.Errorf("%w: failed to save %s variant, %v", ErrImageProcessing, v.size, err)
				return
			}

			t.recordCreated(v.dest)
			errChan <- nil
		}()
	}

	// Both goroutines must finish before this returns: every file a
	// goroutine creates is recorded before it reports, and Rollback may
	// run the moment the caller sees the error. Bailing on the first
	// failure would let the other variant land unrecorded.
	var firstErr error
	for range variants {
		if err := <-errChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return firstErr
	}

	zap.L().Debug("Materialized artwork variants",
		zap.String("original", paths.Original),
		zap.Duration("took", time.Since(now)))

	return nil
}

// Trash moves each existing file into the trash directory. Nothing is
// permanently deleted here so a rollback can put everything back; the trash
// sweeper handles permanent cleanup later.
func (t *ImageTransaction) Trash(paths ...string) error {
	trashDir := viper.GetString("images.trash_directory")

	for _, p := range paths {
		id, err := gonanoid.New(8)
		if err != nil {
			return fmt.Errorf("failed to generate trash file name, %w", err)
		}

		dest := filepath.Join(trashDir, id+"_"+filepath.Base(p))
		if err := os.Rename(p, dest); err != nil {
			return fmt.Errorf("failed to trash %s, %w", p, err)
		}

		t.mu.Lock()
		t.trashed = append(t.trashed, trashedFile{from: p, trashPath: dest})
		t.mu.Unlock()
	}

	return nil
}

// Rename moves all three variants from their old to their new names.
// Used when a title edit changes the slug but the image bytes don't change.
func (t *ImageTransaction) Rename(old, new ImagePaths) error {
	pairs := []renamedPair{
		{old.Original, new.Original},
		{old.Medium, new.Medium},
		{old.Thumbnail, new.Thumbnail},
	}

	for _, p := range pairs {
		if err := os.Rename(p.from, p.to); err != nil {
			return fmt.Errorf("failed to rename %s to %s, %w", p.from, p.to, err)
		}

		t.mu.Lock()
		t.renamed = append(t.renamed, p)
		t.mu.Unlock()
	}

	return nil
}

// Rollback unwinds everything the transaction did, in a fixed order that is
// independent of the order the operations ran in:
//
//  1. delete created files (they never existed before this transaction)
//  2. move trashed files back where they came from
//  3. reverse renames
//
// The order is load-bearing. An update that trashes old files and creates
// new ones under the same names must delete the new files before restoring
// the trashed ones, or the restore would be clobbered.
//
// Rollback is best-effort cleanup: a failed undo step is logged and the
// remaining steps still run. It never returns an error.
func (t *ImageTransaction) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A staged upload that never got renamed into place is invisible to
	// the undo log and the trash sweeper, so it is cleaned up here
	if t.uploadedFile != "" && !t.materialized {
		if err := os.Remove(t.uploadedFile); err != nil {
			zap.L().Warn("Rollback failed to remove staged upload", zap.String("path", t.uploadedFile), zap.Error(err))
		}
		t.uploadedFile = ""
	}

	for _, p := range t.created {
		if err := os.Remove(p); err != nil {
			zap.L().Warn("Rollback failed to remove created file", zap.String("path", p), zap.Error(err))
		}
	}

	for _, f := range t.trashed {
		if err := os.Rename(f.trashPath, f.from); err != nil {
			zap.L().Warn("Rollback failed to restore trashed file", zap.String("path", f.from), zap.Error(err))
		}
	}

	for _, p := range t.renamed {
		if err := os.Rename(p.to, p.from); err != nil {
			zap.L().Warn("Rollback failed to reverse rename", zap.String("path", p.from), zap.Error(err))
		}
	}

	t.created = nil
	t.trashed = nil
	t.renamed = nil
}

func (t *ImageTransaction) recordCreated(path string) {
	t.mu.Lock()
	t.created = append(t.created, path)
	t.mu.Unlock()
}

func longerSide(img image.Image) int {
	b := img.Bounds()
	return max(b.Dx(), b.Dy())
}
