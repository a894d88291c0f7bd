package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CommentInput is a new comment, optionally carrying a 1-5 rating
type CommentInput struct {
	Content string `json:"content" binding:"required" example:"Rich and moist"`
	Rating  *int   `json:"rating" binding:"omitempty,min=1,max=5" example:"5"`
}

func (in *CommentInput) normalize() error {
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	if in.Rating != nil && (*in.Rating < models.MinRating || *in.Rating > models.MaxRating) {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, models.MinRating, models.MaxRating)
	}
	return nil
}

type CommentService interface {
	AddComment(ctx context.Context, caller auth.AuthContext, recipeID uint, input CommentInput) (*CommentView, error)
	ListComments(ctx context.Context, recipeID uint) ([]CommentView, error)
}

type commentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) CommentService {
	return &commentService{db: db}
}

func (s *commentService) AddComment(ctx context.Context, caller auth.AuthContext, recipeID uint, input CommentInput) (*CommentView, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}
	if _, err := findRecipe(ctx, s.db, recipeID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		RecipeID: recipeID,
		AuthorID: caller.UserID,
		Content:  input.Content,
		Rating:   input.Rating,
	}
	if err := s.db.WithContext(ctx).Omit("Author").Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, comment.ID).Error; err != nil {
		return nil, fmt.Errorf("reload comment %d: %w", comment.ID, err)
	}

	log.WithFields(logrus.Fields{"recipe_id": recipeID, "comment_id": comment.ID, "rated": input.Rating != nil}).Info("Comment added")
	view := commentView(comment)
	return &view, nil
}

// ListComments returns the comments of a recipe, newest first
func (s *commentService) ListComments(ctx context.Context, recipeID uint) ([]CommentView, error) {
	if _, err := findRecipe(ctx, s.db, recipeID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("recipe_id = ?", recipeID).
		Order("created_at DESC").Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments of recipe %d: %w", recipeID, err)
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView(c))
	}
	return views, nil
}
