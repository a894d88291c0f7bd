package storage

import (
	"context"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// ImageHooks removes stored images once the recipe or user row stops
// referencing them. Failures are logged; the database change stands.
type ImageHooks struct {
	store ImageStore
}

func NewImageHooks(store ImageStore) *ImageHooks {
	return &ImageHooks{store: store}
}

// ImageReplaced runs after a recipe or user was saved with a new image key
func (h *ImageHooks) ImageReplaced(ctx context.Context, oldKey, newKey string) {
	if oldKey == "" || oldKey == newKey {
		return
	}
	h.remove(ctx, oldKey)
}

// RecipeDeleted runs after a recipe row was deleted
func (h *ImageHooks) RecipeDeleted(ctx context.Context, recipe *models.Recipe) {
	if recipe.ImageKey == "" {
		return
	}
	h.remove(ctx, recipe.ImageKey)
}

func (h *ImageHooks) remove(ctx context.Context, key string) {
	if err := h.store.Delete(ctx, key); err != nil {
		log.WithError(err).WithField("image_key", key).Error("Failed to delete image")
		return
	}
	log.WithField("image_key", key).Debug("Image deleted")
}
