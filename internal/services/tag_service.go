package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// TagCount is a tag with the number of recipes labelled with it
type TagCount struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	RecipeCount int64  `json:"recipe_count"`
}

// TagDetail is a tag with one page of its recipes
type TagDetail struct {
	TagCount
	Recipes *RecipePage `json:"recipes"`
}

type TagInput struct {
	Name string `json:"name" binding:"required,max=50" example:"Vegetarian"`
	Slug string `json:"slug" binding:"omitempty,max=50" example:"vegetarian"`
}

type TagService interface {
	ListTags(ctx context.Context) ([]TagCount, error)
	GetTag(ctx context.Context, id uint, page int) (*TagDetail, error)
	CreateTag(ctx context.Context, caller auth.AuthContext, input TagInput) (*models.Tag, error)
}

type tagService struct {
	recipeReader
}

func NewTagService(db *gorm.DB, images storage.ImageStore) TagService {
	return &tagService{recipeReader{db: db, images: images}}
}

func (s *tagService) ListTags(ctx context.Context) ([]TagCount, error) {
	var tags []TagCount
	err := s.db.WithContext(ctx).Model(&models.Tag{}).
		Select("tags.id, tags.name, tags.slug, COUNT(rt.recipe_id) AS recipe_count").
		Joins("LEFT JOIN " + models.RecipeTagsTable + " rt ON rt.tag_id = tags.id").
		Group("tags.id, tags.name, tags.slug").
		Order("tags.name").
		Scan(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *tagService) GetTag(ctx context.Context, id uint, page int) (*TagDetail, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tag %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load tag %d: %w", id, err)
	}

	recipes, err := s.page(ctx, BuildQueryPlan(RecipeCriteria{TagID: &tag.ID, Page: page}))
	if err != nil {
		return nil, err
	}

	return &TagDetail{
		TagCount: TagCount{ID: tag.ID, Name: tag.Name, Slug: tag.Slug, RecipeCount: recipes.Total},
		Recipes:  recipes,
	}, nil
}

func (s *tagService) CreateTag(ctx context.Context, caller auth.AuthContext, input TagInput) (*models.Tag, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("creating tags requires the admin role: %w", ErrForbidden)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("%w: slug %q may only contain letters, digits, hyphens and underscores", ErrValidation, slug)
	}

	tag := models.Tag{Name: name, Slug: slug}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Tag{}).Where("name = ? OR slug = ?", name, slug).Count(&n).Error; err != nil {
			return fmt.Errorf("check tag: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("tag %q (%s): %w", name, slug, ErrConflict)
		}
		if err := tx.Create(&tag).Error; err != nil {
			return fmt.Errorf("create tag: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"tag_id": tag.ID, "slug": slug}).Info("Tag created")
	return &tag, nil
}

// Slugify lowercases s, drops characters outside [a-z0-9 _-] and joins
// words with single hyphens
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			pendingDash = true
		}
	}
	return b.String()
}
