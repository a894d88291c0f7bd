package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/middleware"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/services"
	"github.com/gin-gonic/gin"
)

type TagController struct {
	service services.TagService
}

func NewTagController(service services.TagService) *TagController {
	return &TagController{service: service}
}

// ListTags godoc
// @Summary List tags
// @Description All tags with their recipe counts, by name
// @Tags tags
// @Produce json
// @Success 200 {array} services.TagCount
// @Router /api/v1/public/tags [get]
func (tc *TagController) ListTags(c *gin.Context) {
	tags, err := tc.service.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err, models.ErrTagNotFound)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// GetTag godoc
// @Summary Get tag
// @Description Tag with one page of its recipes, newest first
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Param page query int false "1-based page number"
// @Success 200 {object} services.TagDetail
// @Failure 404 {object} models.APIError
// @Router /api/v1/public/tags/{id} [get]
func (tc *TagController) GetTag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	tag, err := tc.service.GetTag(c.Request.Context(), id, queryPage(c))
	if err != nil {
		respondError(c, err, models.ErrTagNotFound)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// CreateTag godoc
// @Summary Create tag
// @Description The slug is derived from the name when omitted
// @Tags tags
// @Accept json
// @Produce json
// @Param tag body services.TagInput true "Tag"
// @Success 201 {object} models.Tag
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/tags [post]
func (tc *TagController) CreateTag(c *gin.Context) {
	var input services.TagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err, models.ErrValidationFailed)
		return
	}

	tag, err := tc.service.CreateTag(c.Request.Context(), middleware.AuthFromContext(c), input)
	if err != nil {
		respondError(c, err, models.ErrTagNotFound)
		return
	}
	c.JSON(http.StatusCreated, tag)
}
