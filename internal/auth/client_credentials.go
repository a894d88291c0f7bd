package auth

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/go-oauth2/oauth2/v4"
	oauth2errors "github.com/go-oauth2/oauth2/v4/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// HandleToken handles the token endpoint for the client credentials grant
// @Summary Token Endpoint
// @Description Obtain an access token using client credentials
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "Grant type: client_credentials"
// @Param client_id formData string true "Client ID"
// @Param client_secret formData string true "Client Secret"
// @Param scope formData string false "Requested scope, a subset of the client's scopes"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.OAuth2Error
// @Failure 401 {object} models.OAuth2Error
// @Failure 500 {object} models.OAuth2Error
// @Router /oauth/token [post]
func (o *OAuthService) HandleToken(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")

	if oauth2.GrantType(c.PostForm("grant_type")) != oauth2.ClientCredentials {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrUnsupportedGrantType, "Only the client_credentials grant is supported"))
		return
	}

	grantType, request, err := o.server.ValidationTokenRequest(c.Request)
	var info oauth2.TokenInfo
	if err == nil {
		info, err = o.server.GetAccessToken(c.Request.Context(), grantType, request)
	}
	if err != nil {
		status, body := tokenError(err)
		entry := log.WithError(err).WithField("client_id", c.PostForm("client_id"))
		if status >= http.StatusInternalServerError {
			entry.Error("Token request failed")
		} else {
			entry.Warn("Token request rejected")
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, o.server.GetTokenData(info))
}

// tokenError maps go-oauth2 errors onto RFC 6749 section 5.2 responses
func tokenError(err error) (int, models.OAuth2Error) {
	switch {
	case errors.Is(err, oauth2errors.ErrInvalidClient):
		return http.StatusUnauthorized, models.NewOAuth2Error(models.ErrInvalidClient, "Client authentication failed")
	case errors.Is(err, oauth2errors.ErrUnauthorizedClient):
		return http.StatusBadRequest, models.NewOAuth2Error(models.ErrUnauthorizedClient, "The client is not allowed to use this grant")
	case errors.Is(err, oauth2errors.ErrInvalidScope):
		return http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidScope, "The requested scope exceeds the client's scopes")
	case errors.Is(err, oauth2errors.ErrInvalidGrant):
		return http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidGrant, "The grant is invalid or expired")
	case errors.Is(err, oauth2errors.ErrUnsupportedGrantType):
		return http.StatusBadRequest, models.NewOAuth2Error(models.ErrUnsupportedGrantType, "Only the client_credentials grant is supported")
	case errors.Is(err, oauth2errors.ErrInvalidRequest):
		return http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidRequest, "The token request is malformed")
	default:
		return http.StatusInternalServerError, models.NewOAuth2Error(models.ErrServerError, "The token could not be issued")
	}
}
