// Package storage keeps recipe images outside the database and owns the
// lifecycle hooks that remove them when recipes change.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageBytes bounds a single uploaded image
const MaxImageBytes = 5 << 20

var ErrUnsupportedImage = errors.New("unsupported image type")

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ImageStore persists image blobs under opaque keys
type ImageStore interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NopImageStore is used when image storage is disabled: uploads are refused
// and deletes succeed trivially.
type NopImageStore struct{}

func (NopImageStore) Put(context.Context, string, io.ReadSeeker, int64, string) error {
	return errors.New("image storage is disabled")
}

func (NopImageStore) Delete(context.Context, string) error { return nil }

func (NopImageStore) URL(string) string { return "" }

// SniffImage detects the image type from the leading bytes and rewinds body
func SniffImage(body io.ReadSeeker) (*mimetype.MIME, error) {
	mt, err := mimetype.DetectReader(body)
	if err != nil {
		return nil, fmt.Errorf("detect image type: %w", err)
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind image: %w", err)
	}
	for _, allowed := range allowedImageTypes {
		if mt.Is(allowed) {
			return mt, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mt.String())
}

// NewKey returns a fresh object key under prefix with the given extension
func NewKey(prefix, ext string) string {
	return path.Join(prefix, uuid.NewString()+ext)
}
