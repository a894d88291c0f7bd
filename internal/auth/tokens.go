package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs user access tokens with the same claims the OAuth2
// generator emits, so one middleware validates both.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed HS256 token for the user
func (i *TokenIssuer) Issue(user *models.User) (string, error) {
	if user.ID == 0 {
		return "", fmt.Errorf("cannot issue token for unsaved user")
	}
	return signClaims(i.secret, userClaims(user, i.now(), i.ttl))
}

// userClaims are the claims every access token carries: uid, role, iat, exp
func userClaims(user *models.User, issuedAt time.Time, ttl time.Duration) jwt.MapClaims {
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	return jwt.MapClaims{
		"uid":  strconv.FormatUint(uint64(user.ID), 10),
		"role": role,
		"iat":  issuedAt.Unix(),
		"exp":  issuedAt.Add(ttl).Unix(),
	}
}

func signClaims(secret []byte, claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
