package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CategoryCount is a category with the number of recipes filed under it
type CategoryCount struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	RecipeCount int64  `json:"recipe_count"`
}

// CategoryDetail is a category with one page of its recipes
type CategoryDetail struct {
	CategoryCount
	Recipes *RecipePage `json:"recipes"`
}

type CategoryInput struct {
	Name        string `json:"name" binding:"required,max=100" example:"Desserts"`
	Description string `json:"description"`
}

type CategoryService interface {
	ListCategories(ctx context.Context) ([]CategoryCount, error)
	GetCategory(ctx context.Context, id uint, page int) (*CategoryDetail, error)
	CreateCategory(ctx context.Context, caller auth.AuthContext, input CategoryInput) (*models.Category, error)
	// DeleteCategory removes the category and leaves its recipes uncategorized
	DeleteCategory(ctx context.Context, caller auth.AuthContext, id uint) error
}

type categoryService struct {
	recipeReader
}

func NewCategoryService(db *gorm.DB, images storage.ImageStore) CategoryService {
	return &categoryService{recipeReader{db: db, images: images}}
}

func (s *categoryService) ListCategories(ctx context.Context) ([]CategoryCount, error) {
	var categories []CategoryCount
	err := s.db.WithContext(ctx).Model(&models.Category{}).
		Select("categories.id, categories.name, categories.description, COUNT(recipes.id) AS recipe_count").
		Joins("LEFT JOIN recipes ON recipes.category_id = categories.id").
		Group("categories.id, categories.name, categories.description").
		Order("categories.name").
		Scan(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) GetCategory(ctx context.Context, id uint, page int) (*CategoryDetail, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load category %d: %w", id, err)
	}

	recipes, err := s.page(ctx, BuildQueryPlan(RecipeCriteria{CategoryID: &category.ID, Page: page}))
	if err != nil {
		return nil, err
	}

	return &CategoryDetail{
		CategoryCount: CategoryCount{
			ID:          category.ID,
			Name:        category.Name,
			Description: category.Description,
			RecipeCount: recipes.Total,
		},
		Recipes: recipes,
	}, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, caller auth.AuthContext, input CategoryInput) (*models.Category, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("creating categories requires the admin role: %w", ErrForbidden)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	category := models.Category{Name: name, Description: strings.TrimSpace(input.Description)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Category{}).Where("LOWER(name) = LOWER(?)", name).Count(&n).Error; err != nil {
			return fmt.Errorf("check category name: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("category %q: %w", name, ErrConflict)
		}
		if err := tx.Create(&category).Error; err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"category_id": category.ID, "name": name}).Info("Category created")
	return &category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, caller auth.AuthContext, id uint) error {
	if !caller.IsAdmin() {
		return fmt.Errorf("deleting categories requires the admin role: %w", ErrForbidden)
	}

	var detached int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Recipe{}).Where("category_id = ?", id).Update("category_id", nil)
		if res.Error != nil {
			return fmt.Errorf("detach recipes from category %d: %w", id, res.Error)
		}
		detached = res.RowsAffected

		res = tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete category %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"category_id": id, "recipes_detached": detached}).Info("Category deleted")
	return nil
}
