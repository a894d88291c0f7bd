package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

const (
	homeRecentCount  = 6
	homePopularCount = 3
	relatedCount     = 3
	maxTitleLength   = 200
	recipeImagePath  = "recipes"
)

// RecipeImageHooks is notified after recipe changes that orphan a stored image
type RecipeImageHooks interface {
	ImageReplacedHook
	RecipeDeleted(ctx context.Context, recipe *models.Recipe)
}

// RecipeService provides the recipe listing, detail and authoring operations
type RecipeService interface {
	// ListRecipes returns one page of recipes matching the criteria
	ListRecipes(ctx context.Context, criteria RecipeCriteria) (*RecipePage, error)
	// GetRecipeDetail returns a recipe with comments, rating and related recipes
	GetRecipeDetail(ctx context.Context, id uint, caller auth.AuthContext) (*RecipeDetail, error)
	// GetHome returns the most recent and most commented recipes plus totals
	GetHome(ctx context.Context) (*HomeOverview, error)
	CreateRecipe(ctx context.Context, caller auth.AuthContext, input RecipeInput) (*RecipeDetail, error)
	UpdateRecipe(ctx context.Context, caller auth.AuthContext, id uint, input RecipeInput) (*RecipeDetail, error)
	DeleteRecipe(ctx context.Context, caller auth.AuthContext, id uint) error
	SetRecipeImage(ctx context.Context, caller auth.AuthContext, id uint, upload ImageUpload) (*RecipeDetail, error)
}

// CategoryRef is the category projection embedded in recipe summaries
type CategoryRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// TagRef is the tag projection embedded in recipe summaries
type TagRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// RecipeSummary is a recipe as shown in listings, with its comment aggregates
type RecipeSummary struct {
	ID            uint               `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	CookingTime   int                `json:"cooking_time"`
	Servings      int                `json:"servings"`
	ImageURL      string             `json:"image_url,omitempty"`
	Author        models.UserSummary `json:"author"`
	Category      *CategoryRef       `json:"category"`
	Tags          []TagRef           `json:"tags"`
	CommentCount  int64              `json:"comment_count"`
	AverageRating *float64           `json:"average_rating"`
	CreatedAt     time.Time          `json:"created_at"`
}

// RecipePage is one page of a recipe listing
type RecipePage struct {
	Items      []RecipeSummary `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
	Filters    ActiveFilters   `json:"filters"`
}

// CommentView is a comment with its author
type CommentView struct {
	ID        uint               `json:"id"`
	Author    models.UserSummary `json:"author"`
	Content   string             `json:"content"`
	Rating    *int               `json:"rating"`
	CreatedAt time.Time          `json:"created_at"`
}

// RecipeDetail is the full recipe page
type RecipeDetail struct {
	RecipeSummary
	Ingredients  string          `json:"ingredients"`
	Instructions string          `json:"instructions"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Comments     []CommentView   `json:"comments"`
	IsAuthor     bool            `json:"is_author"`
	IsFavorite   bool            `json:"is_favorite"`
	Related      []RecipeSummary `json:"related"`
}

// HomeOverview backs the landing page
type HomeOverview struct {
	Recent       []RecipeSummary `json:"recent"`
	Popular      []RecipeSummary `json:"popular"`
	TotalRecipes int64           `json:"total_recipes"`
	TotalUsers   int64           `json:"total_users"`
}

// RecipeInput is the writable part of a recipe
type RecipeInput struct {
	Title        string `json:"title" binding:"required,max=200" example:"Sachertorte"`
	Description  string `json:"description" binding:"required"`
	Ingredients  string `json:"ingredients" binding:"required"`
	Instructions string `json:"instructions" binding:"required"`
	CookingTime  int    `json:"cooking_time" binding:"required,min=1" example:"90"`
	Servings     int    `json:"servings" binding:"omitempty,min=1" example:"8"`
	CategoryID   *uint  `json:"category_id"`
	TagIDs       []uint `json:"tag_ids"`
}

// normalize trims the text fields, applies defaults and checks the bounds
func (in *RecipeInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Ingredients = strings.TrimSpace(in.Ingredients)
	in.Instructions = strings.TrimSpace(in.Instructions)

	switch {
	case in.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case utf8.RuneCountInString(in.Title) > maxTitleLength:
		return fmt.Errorf("%w: title must be at most %d characters", ErrValidation, maxTitleLength)
	case in.Description == "":
		return fmt.Errorf("%w: description is required", ErrValidation)
	case in.Ingredients == "":
		return fmt.Errorf("%w: ingredients are required", ErrValidation)
	case in.Instructions == "":
		return fmt.Errorf("%w: instructions are required", ErrValidation)
	case in.CookingTime < 1:
		return fmt.Errorf("%w: cooking_time must be at least 1", ErrValidation)
	case in.Servings < 0:
		return fmt.Errorf("%w: servings must be at least 1", ErrValidation)
	}
	if in.Servings == 0 {
		in.Servings = 1
	}

	seen := make(map[uint]bool, len(in.TagIDs))
	ids := in.TagIDs[:0]
	for _, id := range in.TagIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	in.TagIDs = ids
	return nil
}

// recipeStatsRow is one candidate recipe with its comment aggregates
type recipeStatsRow struct {
	ID           uint
	CommentCount int64
	RatingCount  int64
	RatingSum    int64
}

// recipeReader loads recipe summaries for any query plan. It is shared by
// every service that lists recipes.
type recipeReader struct {
	db     *gorm.DB
	images storage.ImageStore
}

// summaries runs the plan in two steps: ids and aggregates in plan order,
// then the recipes with their relations
func (r recipeReader) summaries(ctx context.Context, plan QueryPlan) ([]RecipeSummary, error) {
	var rows []recipeStatsRow
	q := r.db.WithContext(ctx).Table("recipes").
		Select("recipes.id AS id, "+colCommentCount+" AS comment_count, "+
			colRatingCount+" AS rating_count, "+colRatingSum+" AS rating_sum").
		Joins("LEFT JOIN (?) AS stats ON stats.recipe_id = recipes.id", commentStats(r.db))
	q = plan.order(plan.filter(q)).Limit(plan.Limit).Offset(plan.Offset)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	if len(rows) == 0 {
		return []RecipeSummary{}, nil
	}

	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	var recipes []models.Recipe
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Where("id IN ?", ids).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	byID := make(map[uint]*models.Recipe, len(recipes))
	for i := range recipes {
		byID[recipes[i].ID] = &recipes[i]
	}

	items := make([]RecipeSummary, 0, len(rows))
	for _, row := range rows {
		recipe, ok := byID[row.ID]
		if !ok {
			continue
		}
		summary := r.summarize(recipe)
		summary.CommentCount = row.CommentCount
		summary.AverageRating = RatingSummary{Sum: row.RatingSum, Count: row.RatingCount}.Average()
		items = append(items, summary)
	}
	return items, nil
}

// count returns how many recipes match the plan filters, ignoring the window
func (r recipeReader) count(ctx context.Context, plan QueryPlan) (int64, error) {
	var total int64
	if err := plan.filter(r.db.WithContext(ctx).Model(&models.Recipe{})).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return total, nil
}

func (r recipeReader) page(ctx context.Context, plan QueryPlan) (*RecipePage, error) {
	total, err := r.count(ctx, plan)
	if err != nil {
		return nil, err
	}
	items, err := r.summaries(ctx, plan)
	if err != nil {
		return nil, err
	}

	return &RecipePage{
		Items:      items,
		Total:      total,
		Page:       plan.Page,
		PageSize:   plan.Limit,
		TotalPages: int((total + int64(plan.Limit) - 1) / int64(plan.Limit)),
		Filters:    plan.Filters,
	}, nil
}

// summarize projects a recipe with preloaded relations, without aggregates
func (r recipeReader) summarize(recipe *models.Recipe) RecipeSummary {
	summary := RecipeSummary{
		ID:          recipe.ID,
		Title:       recipe.Title,
		Description: recipe.Description,
		CookingTime: recipe.CookingTime,
		Servings:    recipe.Servings,
		Author:      recipe.Author.Summary(),
		Tags:        make([]TagRef, 0, len(recipe.Tags)),
		CreatedAt:   recipe.CreatedAt,
	}
	if recipe.ImageKey != "" {
		summary.ImageURL = r.images.URL(recipe.ImageKey)
	}
	if recipe.Category != nil {
		summary.Category = &CategoryRef{ID: recipe.Category.ID, Name: recipe.Category.Name}
	}
	for _, tag := range recipe.Tags {
		summary.Tags = append(summary.Tags, TagRef{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
	}
	return summary
}

func findRecipe(ctx context.Context, db *gorm.DB, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// recipeService is the implementation of the RecipeService interface
type recipeService struct {
	recipeReader
	hooks RecipeImageHooks
}

// NewRecipeService creates a new instance of RecipeService
func NewRecipeService(db *gorm.DB, images storage.ImageStore, hooks RecipeImageHooks) RecipeService {
	return &recipeService{
		recipeReader: recipeReader{db: db, images: images},
		hooks:        hooks,
	}
}

func (s *recipeService) ListRecipes(ctx context.Context, criteria RecipeCriteria) (*RecipePage, error) {
	return s.page(ctx, BuildQueryPlan(criteria))
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, id uint, caller auth.AuthContext) (*RecipeDetail, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at DESC").Order("comments.id DESC")
		}).
		Preload("Comments.Author").
		First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load recipe %d: %w", id, err)
	}

	detail := &RecipeDetail{
		RecipeSummary: s.summarize(&recipe),
		Ingredients:   recipe.Ingredients,
		Instructions:  recipe.Instructions,
		UpdatedAt:     recipe.UpdatedAt,
		Comments:      make([]CommentView, 0, len(recipe.Comments)),
		IsAuthor:      caller.Owns(recipe.AuthorID),
		Related:       []RecipeSummary{},
	}

	ratings := make([]*int, 0, len(recipe.Comments))
	for _, c := range recipe.Comments {
		detail.Comments = append(detail.Comments, commentView(c))
		ratings = append(ratings, c.Rating)
	}
	detail.CommentCount = int64(len(recipe.Comments))
	detail.AverageRating = AverageRating(ratings)

	if caller.IsAuthenticated() {
		var n int64
		err := s.db.WithContext(ctx).Table(models.FavoritesTable).
			Where("user_id = ? AND recipe_id = ?", caller.UserID, recipe.ID).
			Count(&n).Error
		if err != nil {
			return nil, fmt.Errorf("check favorite: %w", err)
		}
		detail.IsFavorite = n > 0
	}

	if recipe.CategoryID != nil {
		plan := BuildQueryPlan(RecipeCriteria{CategoryID: recipe.CategoryID}).
			And(excludeRecipePredicate(recipe.ID)).
			WithLimit(relatedCount)
		if detail.Related, err = s.summaries(ctx, plan); err != nil {
			return nil, err
		}
	}

	return detail, nil
}

func (s *recipeService) GetHome(ctx context.Context) (*HomeOverview, error) {
	recent, err := s.summaries(ctx, BuildQueryPlan(RecipeCriteria{Sort: SortNewest}).WithLimit(homeRecentCount))
	if err != nil {
		return nil, err
	}
	popular, err := s.summaries(ctx, BuildQueryPlan(RecipeCriteria{Sort: SortPopular}).WithLimit(homePopularCount))
	if err != nil {
		return nil, err
	}

	home := &HomeOverview{Recent: recent, Popular: popular}
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Count(&home.TotalRecipes).Error; err != nil {
		return nil, fmt.Errorf("count recipes: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&home.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	return home, nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, caller auth.AuthContext, input RecipeInput) (*RecipeDetail, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}

	recipe := models.Recipe{AuthorID: caller.UserID}
	input.apply(&recipe)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveRecipeRefs(tx, input)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		return replaceTags(tx, &recipe, tags)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"recipe_id": recipe.ID, "author_id": caller.UserID}).Info("Recipe created")
	return s.GetRecipeDetail(ctx, recipe.ID, caller)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, caller auth.AuthContext, id uint, input RecipeInput) (*RecipeDetail, error) {
	recipe, err := s.editableRecipe(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}
	input.apply(recipe)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveRecipeRefs(tx, input)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(recipe).Error; err != nil {
			return fmt.Errorf("update recipe %d: %w", id, err)
		}
		return replaceTags(tx, recipe, tags)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"recipe_id": id, "author_id": caller.UserID}).Info("Recipe updated")
	return s.GetRecipeDetail(ctx, id, caller)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, caller auth.AuthContext, id uint) error {
	recipe, err := s.editableRecipe(ctx, caller, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments of recipe %d: %w", id, err)
		}
		if err := tx.Exec("DELETE FROM "+models.RecipeTagsTable+" WHERE recipe_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete tags of recipe %d: %w", id, err)
		}
		if err := tx.Exec("DELETE FROM "+models.FavoritesTable+" WHERE recipe_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete favorites of recipe %d: %w", id, err)
		}
		if err := tx.Delete(&models.Recipe{}, id).Error; err != nil {
			return fmt.Errorf("delete recipe %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"recipe_id": id, "author_id": caller.UserID}).Info("Recipe deleted")
	s.hooks.RecipeDeleted(ctx, recipe)
	return nil
}

func (s *recipeService) SetRecipeImage(ctx context.Context, caller auth.AuthContext, id uint, upload ImageUpload) (*RecipeDetail, error) {
	recipe, err := s.editableRecipe(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	key, err := storeUpload(ctx, s.images, recipeImagePath, upload)
	if err != nil {
		return nil, fmt.Errorf("recipe %d image: %w", id, err)
	}

	oldKey := recipe.ImageKey
	if err := s.db.WithContext(ctx).Model(recipe).Update("image_key", key).Error; err != nil {
		discardUpload(ctx, s.images, key)
		return nil, fmt.Errorf("save image key for recipe %d: %w", id, err)
	}

	log.WithFields(logrus.Fields{"recipe_id": id, "image_key": key}).Info("Recipe image replaced")
	s.hooks.ImageReplaced(ctx, oldKey, key)
	return s.GetRecipeDetail(ctx, id, caller)
}

// editableRecipe loads a recipe the caller is allowed to change
func (s *recipeService) editableRecipe(ctx context.Context, caller auth.AuthContext, id uint) (*models.Recipe, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	recipe, err := findRecipe(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(recipe.AuthorID) {
		return nil, fmt.Errorf("recipe %d belongs to another user: %w", id, ErrForbidden)
	}
	return recipe, nil
}

func (in RecipeInput) apply(recipe *models.Recipe) {
	recipe.Title = in.Title
	recipe.Description = in.Description
	recipe.Ingredients = in.Ingredients
	recipe.Instructions = in.Instructions
	recipe.CookingTime = in.CookingTime
	recipe.Servings = in.Servings
	recipe.CategoryID = in.CategoryID
}

// resolveRecipeRefs checks the referenced category and loads the tags
func resolveRecipeRefs(tx *gorm.DB, input RecipeInput) ([]models.Tag, error) {
	if input.CategoryID != nil {
		var n int64
		if err := tx.Model(&models.Category{}).Where("id = ?", *input.CategoryID).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("check category: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: category %d does not exist", ErrValidation, *input.CategoryID)
		}
	}

	if len(input.TagIDs) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := tx.Where("id IN ?", input.TagIDs).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	if len(tags) != len(input.TagIDs) {
		return nil, fmt.Errorf("%w: unknown tag id in %v", ErrValidation, input.TagIDs)
	}
	return tags, nil
}

func replaceTags(tx *gorm.DB, recipe *models.Recipe, tags []models.Tag) error {
	assoc := tx.Model(recipe).Association("Tags")
	var err error
	if len(tags) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(tags)
	}
	if err != nil {
		return fmt.Errorf("set tags of recipe %d: %w", recipe.ID, err)
	}
	return nil
}

func commentView(c models.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		Author:    c.Author.Summary(),
		Content:   c.Content,
		Rating:    c.Rating,
		CreatedAt: c.CreatedAt,
	}
}
