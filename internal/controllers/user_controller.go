package controllers

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/middleware"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/services"
	"github.com/gin-gonic/gin"
)

type UserController struct {
	service services.UserService
}

func NewUserController(service services.UserService) *UserController {
	return &UserController{service: service}
}

// GetProfile godoc
// @Summary User profile
// @Description Public profile with the recipes the user authored
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} services.UserProfile
// @Failure 404 {object} models.APIError
// @Router /api/v1/public/users/{id} [get]
func (uc *UserController) GetProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	profile, err := uc.service.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, models.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ToggleFavorite godoc
// @Summary Toggle favorite
// @Description Adds the recipe to the caller's favorites, or removes it when already there
// @Tags users
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/recipes/{id}/favorite [post]
func (uc *UserController) ToggleFavorite(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	favorite, err := uc.service.ToggleFavorite(c.Request.Context(), middleware.AuthFromContext(c), id)
	if err != nil {
		respondError(c, err, models.ErrRecipeNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe_id": id, "is_favorite": favorite})
}

// ListFavorites godoc
// @Summary List favorites
// @Description The caller's favorite recipes, newest first
// @Tags users
// @Produce json
// @Success 200 {array} services.RecipeSummary
// @Security BearerAuth
// @Router /api/v1/protected/favorites [get]
func (uc *UserController) ListFavorites(c *gin.Context) {
	favorites, err := uc.service.ListFavorites(c.Request.Context(), middleware.AuthFromContext(c))
	if err != nil {
		respondError(c, err, models.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, favorites)
}

// GetMyProfile godoc
// @Summary Own profile
// @Description Profile of the caller with authored recipes, favorites and totals
// @Tags users
// @Produce json
// @Success 200 {object} services.MyProfile
// @Failure 401 {object} models.OAuth2Error
// @Security BearerAuth
// @Router /api/v1/protected/me [get]
func (uc *UserController) GetMyProfile(c *gin.Context) {
	profile, err := uc.service.GetMyProfile(c.Request.Context(), middleware.AuthFromContext(c))
	if err != nil {
		respondError(c, err, models.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update own profile
// @Description Change email and bio. The email must not belong to another user.
// @Tags users
// @Accept json
// @Produce json
// @Param profile body services.ProfileInput true "Profile"
// @Success 200 {object} services.MyProfile
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/me [put]
func (uc *UserController) UpdateProfile(c *gin.Context) {
	var input services.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err, models.ErrValidationFailed)
		return
	}

	profile, err := uc.service.UpdateProfile(c.Request.Context(), middleware.AuthFromContext(c), input)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			c.JSON(http.StatusConflict, models.NewAPIError(models.ErrUserAlreadyExists, "Email already registered"))
			return
		}
		respondError(c, err, models.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UploadProfileImage godoc
// @Summary Replace own profile image
// @Description JPEG, PNG, GIF or WebP up to 5 MiB. The previous image is removed.
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file"
// @Success 200 {object} services.MyProfile
// @Failure 400 {object} models.APIError
// @Failure 500 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/me/image [put]
func (uc *UserController) UploadProfileImage(c *gin.Context) {
	file, size, ok := formImage(c)
	if !ok {
		return
	}
	defer file.Close()

	profile, err := uc.service.SetProfileImage(c.Request.Context(), middleware.AuthFromContext(c),
		services.ImageUpload{Body: file, Size: size})
	if err != nil {
		respondImageError(c, err, models.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, profile)
}
