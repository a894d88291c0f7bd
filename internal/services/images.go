package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/storage"
)

// ImageUpload is an image file received from a client
type ImageUpload struct {
	Body io.ReadSeeker
	Size int64
}

// ImageReplacedHook is told about an image key that a saved row no longer uses
type ImageReplacedHook interface {
	ImageReplaced(ctx context.Context, oldKey, newKey string)
}

// storeUpload checks the size and type of an upload and stores it under a
// fresh key below prefix
func storeUpload(ctx context.Context, images storage.ImageStore, prefix string, upload ImageUpload) (string, error) {
	if upload.Size <= 0 || upload.Size > storage.MaxImageBytes {
		return "", fmt.Errorf("%w: image must be between 1 byte and %d bytes", ErrValidation, storage.MaxImageBytes)
	}

	mt, err := storage.SniffImage(upload.Body)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return "", err
	}

	key := storage.NewKey(prefix, mt.Extension())
	if err := images.Put(ctx, key, upload.Body, upload.Size, mt.String()); err != nil {
		return "", fmt.Errorf("store image %s: %w", key, err)
	}
	return key, nil
}

// discardUpload removes a stored image whose key could not be saved
func discardUpload(ctx context.Context, images storage.ImageStore, key string) {
	if err := images.Delete(ctx, key); err != nil {
		log.WithError(err).WithField("image_key", key).Error("Failed to remove unused image")
	}
}
