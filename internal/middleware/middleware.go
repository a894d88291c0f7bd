package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// authContextKey is the gin context key holding the caller's auth.AuthContext
const authContextKey = "authContext"

// OAuth2Auth requires a bearer JWT, issued either by the login endpoint or
// the client credentials flow, and stores the caller as an auth.AuthContext.
func OAuth2Auth(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondWithOAuth2Error(c, http.StatusUnauthorized, "authorization_required",
				"Missing Authorization header. A valid Bearer token is required.")
			return
		}

		caller, errCode, err := authenticate(authHeader, jwtSecret)
		if err != nil {
			respondWithOAuth2Error(c, http.StatusUnauthorized, errCode, err.Error())
			return
		}

		c.Set(authContextKey, caller)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid bearer token is sent and
// lets anonymous requests through. An invalid token is still rejected.
func OptionalAuth(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		caller, errCode, err := authenticate(authHeader, jwtSecret)
		if err != nil {
			respondWithOAuth2Error(c, http.StatusUnauthorized, errCode, err.Error())
			return
		}

		c.Set(authContextKey, caller)
		c.Next()
	}
}

// AuthFromContext returns the caller stored by OAuth2Auth or OptionalAuth,
// or auth.Anonymous
func AuthFromContext(c *gin.Context) auth.AuthContext {
	if v, ok := c.Get(authContextKey); ok {
		if caller, ok := v.(auth.AuthContext); ok {
			return caller
		}
	}
	return auth.Anonymous
}

// authenticate turns an Authorization header into a caller. On failure it
// also returns the RFC 6750 error code to send back.
func authenticate(authHeader string, jwtSecret []byte) (auth.AuthContext, string, error) {
	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		return auth.Anonymous, models.ErrInvalidRequest,
			fmt.Errorf("Authorization header must use Bearer scheme. Format: 'Bearer <token>'")
	}
	if strings.TrimSpace(tokenString) == "" {
		return auth.Anonymous, models.ErrInvalidToken, fmt.Errorf("Bearer token is empty")
	}

	claims, err := verifyToken(tokenString, jwtSecret)
	if err != nil {
		return auth.Anonymous, models.ErrInvalidToken, err
	}
	caller, err := callerFromClaims(claims)
	if err != nil {
		return auth.Anonymous, models.ErrInvalidToken, err
	}
	return caller, "", nil
}

func respondWithOAuth2Error(c *gin.Context, status int, errorCode, description string) {
	c.AbortWithStatusJSON(status, models.NewOAuth2Error(errorCode, description))
}

// verifyToken checks the HMAC signature and the exp, nbf and iat claims
func verifyToken(tokenString string, jwtSecret []byte) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Reject "none" and asymmetric algorithms
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return jwtSecret, nil
	}, jwt.WithIssuedAt(), jwt.WithLeeway(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("token rejected: %w", err)
	}
	return claims, nil
}

// callerFromClaims requires uid and role. aud (the OAuth2 client) and scope
// are only present on client credential tokens.
func callerFromClaims(claims jwt.MapClaims) (auth.AuthContext, error) {
	userID, err := claimUserID(claims["uid"])
	if err != nil {
		return auth.Anonymous, err
	}

	role, _ := claims["role"].(string)
	switch role {
	case models.RoleAdmin, models.RoleUser:
	case "":
		return auth.Anonymous, fmt.Errorf("token missing required 'role' claim")
	default:
		return auth.Anonymous, fmt.Errorf("invalid role '%s'. Allowed roles: admin, user", role)
	}

	caller := auth.AuthContext{UserID: userID, Role: role}
	if aud, err := claims.GetAudience(); err == nil && len(aud) > 0 {
		caller.ClientID = aud[0]
	}
	if scope, ok := claims["scope"].(string); ok {
		caller.Scopes = scope
	}
	return caller, nil
}

// claimUserID accepts the uid claim as a numeric string or a JSON number
func claimUserID(raw interface{}) (uint, error) {
	var id uint64
	switch v := raw.(type) {
	case string:
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid uid claim %q", v)
		}
		id = parsed
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid uid claim %v", v)
		}
		id = uint64(v)
	case nil:
		return 0, fmt.Errorf("token missing required 'uid' claim")
	default:
		return 0, fmt.Errorf("invalid uid claim type %T", raw)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid uid claim: cannot be zero")
	}
	return uint(id), nil
}
