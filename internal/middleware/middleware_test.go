package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("middleware-test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"uid":   "42",
		"role":  models.RoleUser,
		"aud":   "meal-planner",
		"scope": "read write",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

// echoRouter returns the AuthContext seen by the handler
func echoRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, AuthFromContext(c))
	}
	r.GET("/", handler)
	r.POST("/", handler)
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOAuth2Auth(t *testing.T) {
	r := echoRouter(OAuth2Auth(testSecret))

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	badRole := validClaims()
	badRole["role"] = "superuser"
	noUID := validClaims()
	delete(noUID, "uid")

	testCases := []struct {
		name   string
		header string
		status int
		error  string
	}{
		{"missing header", "", http.StatusUnauthorized, "authorization_required"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "invalid_request"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "invalid_token"},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, "invalid_token"},
		{"expired", "Bearer " + sign(t, expired, jwt.SigningMethodHS256), http.StatusUnauthorized, "invalid_token"},
		{"unknown role", "Bearer " + sign(t, badRole, jwt.SigningMethodHS256), http.StatusUnauthorized, "invalid_token"},
		{"missing uid", "Bearer " + sign(t, noUID, jwt.SigningMethodHS256), http.StatusUnauthorized, "invalid_token"},
		{"valid", "Bearer " + sign(t, validClaims(), jwt.SigningMethodHS256), http.StatusOK, ""},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.header)
			assert.Equal(t, tt.status, w.Code)
			if tt.error != "" {
				assert.Contains(t, w.Body.String(), `"error":"`+tt.error+`"`)
			}
		})
	}
}

func TestOAuth2AuthSetsAuthContext(t *testing.T) {
	r := gin.New()
	var seen auth.AuthContext
	r.GET("/", OAuth2Auth(testSecret), func(c *gin.Context) {
		seen = AuthFromContext(c)
		c.Status(http.StatusNoContent)
	})

	w := get(r, "Bearer "+sign(t, validClaims(), jwt.SigningMethodHS256))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, auth.AuthContext{UserID: 42, Role: models.RoleUser, ClientID: "meal-planner", Scopes: "read write"}, seen)
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	var seen auth.AuthContext
	r.GET("/", OptionalAuth(testSecret), func(c *gin.Context) {
		seen = AuthFromContext(c)
		c.Status(http.StatusNoContent)
	})

	w := get(r, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, auth.Anonymous, seen)

	w = get(r, "Bearer "+sign(t, validClaims(), jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, uint(42), seen.UserID)

	w = get(r, "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := echoRouter(OAuth2Auth(testSecret), RequireRole(models.RoleAdmin))

	w := get(r, "Bearer "+sign(t, validClaims(), jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrForbidden)

	admin := validClaims()
	admin["role"] = models.RoleAdmin
	w = get(r, "Bearer "+sign(t, admin, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, w.Code)

	// without an authenticating middleware in front
	w = get(echoRouter(RequireRole(models.RoleAdmin)), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWriteLimiter(t *testing.T) {
	limiter := NewWriteLimiter(2)
	r := echoRouter(OptionalAuth(testSecret), limiter.Middleware())
	token := "Bearer " + sign(t, validClaims(), jwt.SigningMethodHS256)

	post := func(header string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post(token))
	assert.Equal(t, http.StatusOK, post(token))
	assert.Equal(t, http.StatusTooManyRequests, post(token))

	// reads are never limited
	assert.Equal(t, http.StatusOK, get(r, token).Code)

	// anonymous callers have their own bucket
	assert.Equal(t, http.StatusOK, post(""))
}

func TestWriteLimiterEvictsIdleCallers(t *testing.T) {
	limiter := NewWriteLimiter(1)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	for i := 0; i < 50; i++ {
		assert.True(t, limiter.allow("ip:10.0.0."+strconv.Itoa(i)))
	}
	assert.False(t, limiter.allow("ip:10.0.0.1"))
	assert.Len(t, limiter.limiters, 50)

	clock = clock.Add(time.Minute)
	assert.True(t, limiter.allow("user:7"))

	// only the caller seen within the TTL survives the sweep
	clock = clock.Add(limiterIdleTTL - time.Second)
	assert.True(t, limiter.allow("user:8"))
	assert.Len(t, limiter.limiters, 2)
	assert.Contains(t, limiter.limiters, "user:7")

	// an evicted caller starts with a full bucket, as it would have anyway
	assert.True(t, limiter.allow("ip:10.0.0.1"))
	assert.False(t, limiter.allow("ip:10.0.0.1"))
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", MetricsHandler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cookbook_http_requests_total{method="GET",route="/ping",status="200"}`)
}
