package controllers

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/middleware"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/services"
	"github.com/gin-gonic/gin"
)

// RecipeController handles HTTP requests related to recipes
type RecipeController struct {
	service services.RecipeService
}

// NewRecipeController creates a new instance of RecipeController
func NewRecipeController(service services.RecipeService) *RecipeController {
	return &RecipeController{service: service}
}

// ListRecipes godoc
// @Summary List recipes
// @Description Search, filter and sort recipes, 12 per page
// @Tags recipes
// @Produce json
// @Param query query string false "Case-insensitive text matched against title, description and ingredients"
// @Param category query int false "Category ID"
// @Param tag query int false "Tag ID"
// @Param sort query string false "newest (default), oldest, popular or rating"
// @Param page query int false "1-based page number"
// @Success 200 {object} services.RecipePage
// @Failure 400 {object} models.APIError
// @Router /api/v1/public/recipes [get]
func (rc *RecipeController) ListRecipes(c *gin.Context) {
	categoryID, ok := queryID(c, "category")
	if !ok {
		return
	}
	tagID, ok := queryID(c, "tag")
	if !ok {
		return
	}

	page, err := rc.service.ListRecipes(c.Request.Context(), services.RecipeCriteria{
		Query:      c.Query("query"),
		CategoryID: categoryID,
		TagID:      tagID,
		Sort:       services.ParseSortMode(c.Query("sort")),
		Page:       queryPage(c),
	})
	if err != nil {
		respondError(c, err, models.ErrRecipeNotFound)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetRecipe godoc
// @Summary Get recipe by ID
// @Description Recipe with comments, average rating and related recipes
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} services.RecipeDetail
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/v1/public/recipes/{id} [get]
func (rc *RecipeController) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := rc.service.GetRecipeDetail(c.Request.Context(), id, middleware.AuthFromContext(c))
	if err != nil {
		respondError(c, err, models.ErrRecipeNotFound)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Home godoc
// @Summary Landing page data
// @Description Six most recent recipes, three most commented recipes and totals
// @Tags recipes
// @Produce json
// @Success 200 {object} services.HomeOverview
// @Router /api/v1/public/home [get]
func (rc *RecipeController) Home(c *gin.Context) {
	home, err := rc.service.GetHome(c.Request.Context())
	if err != nil {
		respondError(c, err, models.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, home)
}

// CreateRecipe godoc
// @Summary Create a recipe
// @Description The authenticated user becomes the author
// @Tags recipes
// @Accept json
// @Produce json
// @Param recipe body services.RecipeInput true "Recipe"
// @Success 201 {object} services.RecipeDetail
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.OAuth2Error
// @Failure 429 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/recipes [post]
func (rc *RecipeController) CreateRecipe(c *gin.Context) {
	var input services.RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err, models.ErrRecipeInvalidData)
		return
	}

	detail, err := rc.service.CreateRecipe(c.Request.Context(), middleware.AuthFromContext(c), input)
	if err != nil {
		respondError(c, err, models.ErrRecipeNotFound)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// UpdateRecipe godoc
// @Summary Update a recipe
// @Description Only the author may edit a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param recipe body services.RecipeInput true "Recipe"
// @Success 200 {object} services.RecipeDetail
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/recipes/{id} [put]
func (rc *RecipeController) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input services.RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err, models.ErrRecipeInvalidData)
		return
	}

	detail, err := rc.service.UpdateRecipe(c.Request.Context(), middleware.AuthFromContext(c), id, input)
	if err != nil {
		respondRecipeWriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Description Removes the recipe with its comments, tag links and favorites
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/recipes/{id} [delete]
func (rc *RecipeController) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := rc.service.DeleteRecipe(c.Request.Context(), middleware.AuthFromContext(c), id); err != nil {
		respondRecipeWriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage godoc
// @Summary Replace the recipe image
// @Description JPEG, PNG, GIF or WebP up to 5 MiB. The previous image is removed.
// @Tags recipes
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Recipe ID"
// @Param image formData file true "Image file"
// @Success 200 {object} services.RecipeDetail
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 500 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/recipes/{id}/image [put]
func (rc *RecipeController) UploadImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	file, size, ok := formImage(c)
	if !ok {
		return
	}
	defer file.Close()

	detail, err := rc.service.SetRecipeImage(c.Request.Context(), middleware.AuthFromContext(c), id,
		services.ImageUpload{Body: file, Size: size})
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			respondRecipeWriteError(c, err)
			return
		}
		respondImageError(c, err, models.ErrRecipeNotFound)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func respondRecipeWriteError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrForbidden) {
		c.JSON(http.StatusForbidden, models.NewAPIError(models.ErrRecipeEditForbidden, "Only the author can change this recipe"))
		return
	}
	respondError(c, err, models.ErrRecipeNotFound)
}
