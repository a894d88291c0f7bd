package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	maxBioLength      = 500
	profileImagePath  = "users"
)

type RegisterInput struct {
	Username string `json:"username" binding:"required,max=150" example:"anna"`
	Email    string `json:"email" binding:"required,email" example:"anna@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"correct-horse"`
	Bio      string `json:"bio" binding:"omitempty,max=500"`
}

// ProfileInput is the part of an account its owner may change
type ProfileInput struct {
	Email string `json:"email" binding:"required,email,max=254" example:"anna@example.com"`
	Bio   string `json:"bio" binding:"omitempty,max=500"`
}

// UserProfile is the public profile page of a user
type UserProfile struct {
	ID              uint            `json:"id"`
	Username        string          `json:"username"`
	Bio             string          `json:"bio"`
	ProfileImageURL string          `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Recipes         []RecipeSummary `json:"recipes"`
}

// MyProfile is the signed-in user's own profile page
type MyProfile struct {
	UserProfile
	Email         string          `json:"email"`
	Role          string          `json:"role"`
	Favorites     []RecipeSummary `json:"favorites"`
	TotalRecipes  int64           `json:"total_recipes"`
	TotalComments int64           `json:"total_comments"`
}

type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	// Authenticate checks a username or email and password pair
	Authenticate(ctx context.Context, login, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetProfile(ctx context.Context, id uint) (*UserProfile, error)
	// ToggleFavorite flips the favorite flag and returns the new state
	ToggleFavorite(ctx context.Context, caller auth.AuthContext, recipeID uint) (bool, error)
	ListFavorites(ctx context.Context, caller auth.AuthContext) ([]RecipeSummary, error)
	// GetMyProfile returns the caller's profile with favorites and totals
	GetMyProfile(ctx context.Context, caller auth.AuthContext) (*MyProfile, error)
	UpdateProfile(ctx context.Context, caller auth.AuthContext, input ProfileInput) (*MyProfile, error)
	SetProfileImage(ctx context.Context, caller auth.AuthContext, upload ImageUpload) (*MyProfile, error)
}

type userService struct {
	recipeReader
	hooks ImageReplacedHook
}

func NewUserService(db *gorm.DB, images storage.ImageStore, hooks ImageReplacedHook) UserService {
	return &userService{recipeReader: recipeReader{db: db, images: images}, hooks: hooks}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	user := models.User{
		Username: username,
		Email:    email,
		Bio:      strings.TrimSpace(input.Bio),
		Role:     models.RoleUser,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ? OR email = ?", username, email).Count(&n).Error; err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("user %q: %w", username, ErrConflict)
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"user_id": user.ID, "username": username}).Info("User registered")
	return &user, nil
}

func (s *userService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.CheckPassword(password) {
		log.WithField("user_id", user.ID).Warn("Failed login attempt")
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

func (s *userService) GetProfile(ctx context.Context, id uint) (*UserProfile, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	recipes, err := s.authoredBy(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.profile(user, recipes), nil
}

func (s *userService) authoredBy(ctx context.Context, userID uint) ([]RecipeSummary, error) {
	plan := BuildQueryPlan(RecipeCriteria{}).And(authorPredicate(userID))
	return s.summaries(ctx, plan.WithLimit(-1))
}

func (s *userService) profile(user *models.User, recipes []RecipeSummary) *UserProfile {
	p := &UserProfile{
		ID:        user.ID,
		Username:  user.Username,
		Bio:       user.Bio,
		CreatedAt: user.CreatedAt,
		Recipes:   recipes,
	}
	if user.ProfileImageKey != "" {
		p.ProfileImageURL = s.images.URL(user.ProfileImageKey)
	}
	return p
}

func (s *userService) ToggleFavorite(ctx context.Context, caller auth.AuthContext, recipeID uint) (bool, error) {
	if !caller.IsAuthenticated() {
		return false, ErrUnauthenticated
	}
	if _, err := findRecipe(ctx, s.db, recipeID); err != nil {
		return false, err
	}

	var favorite bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec("DELETE FROM "+models.FavoritesTable+" WHERE user_id = ? AND recipe_id = ?", caller.UserID, recipeID)
		if res.Error != nil {
			return fmt.Errorf("remove favorite: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}
		if err := tx.Exec("INSERT INTO "+models.FavoritesTable+" (user_id, recipe_id) VALUES (?, ?)", caller.UserID, recipeID).Error; err != nil {
			return fmt.Errorf("add favorite: %w", err)
		}
		favorite = true
		return nil
	})
	if err != nil {
		return false, err
	}

	log.WithFields(logrus.Fields{"user_id": caller.UserID, "recipe_id": recipeID, "favorite": favorite}).Debug("Favorite toggled")
	return favorite, nil
}

func (s *userService) ListFavorites(ctx context.Context, caller auth.AuthContext) ([]RecipeSummary, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	plan := BuildQueryPlan(RecipeCriteria{}).And(favoritedByPredicate(caller.UserID))
	return s.summaries(ctx, plan.WithLimit(-1))
}

func (s *userService) GetMyProfile(ctx context.Context, caller auth.AuthContext) (*MyProfile, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	user, err := s.GetUserByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	recipes, err := s.authoredBy(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	favorites, err := s.ListFavorites(ctx, caller)
	if err != nil {
		return nil, err
	}

	var comments int64
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("author_id = ?", user.ID).Count(&comments).Error; err != nil {
		return nil, fmt.Errorf("count comments of user %d: %w", user.ID, err)
	}

	return &MyProfile{
		UserProfile:   *s.profile(user, recipes),
		Email:         user.Email,
		Role:          user.Role,
		Favorites:     favorites,
		TotalRecipes:  int64(len(recipes)),
		TotalComments: comments,
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, caller auth.AuthContext, input ProfileInput) (*MyProfile, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	bio := strings.TrimSpace(input.Bio)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if utf8.RuneCountInString(bio) > maxBioLength {
		return nil, fmt.Errorf("%w: bio must be at most %d characters", ErrValidation, maxBioLength)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, caller.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %d: %w", caller.UserID, ErrNotFound)
			}
			return fmt.Errorf("load user %d: %w", caller.UserID, err)
		}

		var taken int64
		if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&taken).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken > 0 {
			return fmt.Errorf("email %q: %w", email, ErrConflict)
		}

		if err := tx.Model(&user).Updates(map[string]interface{}{"email": email, "bio": bio}).Error; err != nil {
			return fmt.Errorf("update user %d: %w", user.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithField("user_id", caller.UserID).Info("Profile updated")
	return s.GetMyProfile(ctx, caller)
}

func (s *userService) SetProfileImage(ctx context.Context, caller auth.AuthContext, upload ImageUpload) (*MyProfile, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	user, err := s.GetUserByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	key, err := storeUpload(ctx, s.images, profileImagePath, upload)
	if err != nil {
		return nil, fmt.Errorf("profile image of user %d: %w", user.ID, err)
	}

	oldKey := user.ProfileImageKey
	if err := s.db.WithContext(ctx).Model(user).Update("profile_image", key).Error; err != nil {
		discardUpload(ctx, s.images, key)
		return nil, fmt.Errorf("save profile image of user %d: %w", user.ID, err)
	}

	log.WithFields(logrus.Fields{"user_id": user.ID, "image_key": key}).Info("Profile image replaced")
	s.hooks.ImageReplaced(ctx, oldKey, key)
	return s.GetMyProfile(ctx, caller)
}
