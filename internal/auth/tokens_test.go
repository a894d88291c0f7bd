package auth

import (
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerClaims(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	signed, err := issuer.Issue(&models.User{ID: 7})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithTimeFunc(func() time.Time { return fixed }))
	require.NoError(t, err)

	assert.Equal(t, "7", claims["uid"])
	assert.Equal(t, models.RoleUser, claims["role"])
	assert.Equal(t, float64(fixed.Add(time.Hour).Unix()), claims["exp"])
}

func TestTokenIssuerRejectsUnsavedUser(t *testing.T) {
	_, err := NewTokenIssuer(testSecret, time.Hour).Issue(&models.User{})
	assert.Error(t, err)
}

func TestAuthContext(t *testing.T) {
	assert.False(t, Anonymous.IsAuthenticated())
	assert.False(t, Anonymous.Owns(0))

	a := AuthContext{UserID: 3, Role: models.RoleAdmin}
	assert.True(t, a.IsAuthenticated())
	assert.True(t, a.IsAdmin())
	assert.True(t, a.Owns(3))
	assert.False(t, a.Owns(4))
}
