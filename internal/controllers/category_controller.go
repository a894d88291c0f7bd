package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/middleware"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/services"
	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	service services.CategoryService
}

func NewCategoryController(service services.CategoryService) *CategoryController {
	return &CategoryController{service: service}
}

// ListCategories godoc
// @Summary List categories
// @Description All categories with their recipe counts, by name
// @Tags categories
// @Produce json
// @Success 200 {array} services.CategoryCount
// @Router /api/v1/public/categories [get]
func (cc *CategoryController) ListCategories(c *gin.Context) {
	categories, err := cc.service.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, models.ErrCategoryNotFound)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// GetCategory godoc
// @Summary Get category
// @Description Category with one page of its recipes, newest first
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Param page query int false "1-based page number"
// @Success 200 {object} services.CategoryDetail
// @Failure 404 {object} models.APIError
// @Router /api/v1/public/categories/{id} [get]
func (cc *CategoryController) GetCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	category, err := cc.service.GetCategory(c.Request.Context(), id, queryPage(c))
	if err != nil {
		respondError(c, err, models.ErrCategoryNotFound)
		return
	}
	c.JSON(http.StatusOK, category)
}

// CreateCategory godoc
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body services.CategoryInput true "Category"
// @Success 201 {object} models.Category
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/categories [post]
func (cc *CategoryController) CreateCategory(c *gin.Context) {
	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err, models.ErrValidationFailed)
		return
	}

	category, err := cc.service.CreateCategory(c.Request.Context(), middleware.AuthFromContext(c), input)
	if err != nil {
		respondError(c, err, models.ErrCategoryNotFound)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// DeleteCategory godoc
// @Summary Delete category
// @Description Recipes of the category stay, uncategorized
// @Tags categories
// @Param id path int true "Category ID"
// @Success 204
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/categories/{id} [delete]
func (cc *CategoryController) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := cc.service.DeleteCategory(c.Request.Context(), middleware.AuthFromContext(c), id); err != nil {
		respondError(c, err, models.ErrCategoryNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}
