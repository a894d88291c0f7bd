package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/services"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// respondError maps a service error to its HTTP status. notFoundCode names
// the missing resource in 404 responses.
func respondError(c *gin.Context, err error, notFoundCode string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error()))
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, err.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrInvalidCredentials, "Invalid login or password"))
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden, err.Error()))
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.NewAPIError(notFoundCode, err.Error()))
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, models.NewAPIError(models.ErrConflict, err.Error()))
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Internal server error"))
	}
}

// isServiceError reports whether err carries one of the service sentinels
func isServiceError(err error) bool {
	for _, target := range []error{
		services.ErrValidation, services.ErrUnauthenticated, services.ErrInvalidCredentials,
		services.ErrForbidden, services.ErrNotFound, services.ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondBindError reports a request body that failed to bind or validate
func respondBindError(c *gin.Context, err error, code string) {
	c.JSON(http.StatusBadRequest, models.NewAPIError(code, "Invalid request body", map[string]interface{}{
		"error": err.Error(),
	}))
}

// pathID parses a numeric path parameter, responding 400 when malformed
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "Invalid "+name+" format"))
		return 0, false
	}
	return uint(id), true
}

// queryID parses an optional numeric query parameter. Absent or empty yields nil.
func queryID(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "Invalid "+name+" id", map[string]interface{}{
			name: raw,
		}))
		return nil, false
	}
	v := uint(id)
	return &v, true
}

// queryPage reads the 1-based page number; malformed values mean page 1
func queryPage(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// formImage opens the multipart "image" file, responding 400 when it is
// missing. The caller closes the returned file.
func formImage(c *gin.Context) (multipart.File, int64, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxImageBytes+(1<<20))
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrInvalidImageSubmitted, "Form field 'image' with a file is required"))
		return nil, 0, false
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrInvalidImageSubmitted, "Uploaded file could not be read"))
		return nil, 0, false
	}
	return file, header.Size, true
}

// respondImageError reports a failed image replacement; storage failures are 500
func respondImageError(c *gin.Context, err error, notFoundCode string) {
	if isServiceError(err) {
		respondError(c, err, notFoundCode)
		return
	}
	log.WithError(err).WithField("path", c.FullPath()).Error("Image upload failed")
	c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrImageUploadFailed, "Image could not be stored"))
}
