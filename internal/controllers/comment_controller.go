package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/middleware"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/services"
	"github.com/gin-gonic/gin"
)

type CommentController struct {
	service services.CommentService
}

func NewCommentController(service services.CommentService) *CommentController {
	return &CommentController{service: service}
}

// ListComments godoc
// @Summary List recipe comments
// @Description Comments of a recipe, newest first
// @Tags comments
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {array} services.CommentView
// @Failure 404 {object} models.APIError
// @Router /api/v1/public/recipes/{id}/comments [get]
func (cc *CommentController) ListComments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	comments, err := cc.service.ListComments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, models.ErrRecipeNotFound)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// AddComment godoc
// @Summary Comment on a recipe
// @Description Adds a comment with an optional 1-5 rating
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param comment body services.CommentInput true "Comment"
// @Success 201 {object} services.CommentView
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/recipes/{id}/comments [post]
func (cc *CommentController) AddComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input services.CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err, models.ErrCommentInvalidData)
		return
	}

	comment, err := cc.service.AddComment(c.Request.Context(), middleware.AuthFromContext(c), id, input)
	if err != nil {
		respondError(c, err, models.ErrRecipeNotFound)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
