package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	oauth2errors "github.com/go-oauth2/oauth2/v4/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// clientTokenGenerator signs client credential access tokens. A client acts
// for the user who registered it and carries that user's current role.
type clientTokenGenerator struct {
	secret []byte
	db     *gorm.DB
}

func (g *clientTokenGenerator) Token(ctx context.Context, data *oauth2.GenerateBasic, isGenRefresh bool) (string, string, error) {
	ownerID := data.UserID
	if ownerID == "" {
		ownerID = data.Client.GetUserID()
	}
	owner, err := g.owner(ctx, ownerID)
	if err != nil {
		return "", "", fmt.Errorf("client %s: %w", data.Client.GetID(), err)
	}

	info := data.TokenInfo
	claims := userClaims(owner, info.GetAccessCreateAt(), info.GetAccessExpiresIn())
	claims["aud"] = data.Client.GetID()
	if scope := info.GetScope(); scope != "" {
		claims["scope"] = scope
	}
	access, err := signClaims(g.secret, claims)
	if err != nil {
		return "", "", err
	}
	if !isGenRefresh {
		return access, "", nil
	}

	refresh, err := signClaims(g.secret, jwt.MapClaims{
		"jti": uuid.NewString(),
		"aud": data.Client.GetID(),
		"exp": info.GetRefreshCreateAt().Add(info.GetRefreshExpiresIn()).Unix(),
	})
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (g *clientTokenGenerator) owner(ctx context.Context, rawID string) (*models.User, error) {
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("no owning user: %w", oauth2errors.ErrUnauthorizedClient)
	}
	var user models.User
	if err := g.db.WithContext(ctx).Select("id", "role").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("owning user %d is gone: %w", id, oauth2errors.ErrUnauthorizedClient)
		}
		return nil, fmt.Errorf("load owning user %d: %w", id, err)
	}
	return &user, nil
}
