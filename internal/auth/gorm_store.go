package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	oauth2errors "github.com/go-oauth2/oauth2/v4/errors"
	oauth2models "github.com/go-oauth2/oauth2/v4/models"
	"gorm.io/gorm"
)

// clientStore looks up registered API clients for the token endpoint
type clientStore struct {
	db *gorm.DB
}

// GetByID returns the stored client; models.OAuthClient verifies the bcrypt
// hashed secret itself.
func (s *clientStore) GetByID(ctx context.Context, id string) (oauth2.ClientInfo, error) {
	return s.find(ctx, id)
}

func (s *clientStore) find(ctx context.Context, id string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, oauth2errors.ErrInvalidClient
		}
		return nil, err
	}
	return &client, nil
}

// allowsGrant reports whether the client was registered for the grant type
func (s *clientStore) allowsGrant(clientID string, grant oauth2.GrantType) (bool, error) {
	client, err := s.find(context.Background(), clientID)
	if err != nil {
		return false, err
	}
	return containsAll(client.GrantTypes, grant.String()), nil
}

// allowsScope reports whether every requested scope was granted to the client
func (s *clientStore) allowsScope(tgr *oauth2.TokenGenerateRequest) (bool, error) {
	ctx := context.Background()
	if tgr.Request != nil {
		ctx = tgr.Request.Context()
	}
	client, err := s.find(ctx, tgr.ClientID)
	if err != nil {
		return false, err
	}
	return containsAll(client.Scopes, tgr.Scope), nil
}

// containsAll reports whether the space separated list granted holds every
// entry of requested
func containsAll(granted, requested string) bool {
	have := strings.Fields(granted)
	for _, want := range strings.Fields(requested) {
		found := false
		for _, g := range have {
			if g == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// tokenStore keeps issued access tokens in the oauth_tokens table. Only the
// client credentials grant is enabled, so authorization codes never reach it.
type tokenStore struct {
	db *gorm.DB
}

func (s *tokenStore) Create(ctx context.Context, info oauth2.TokenInfo) error {
	if info.GetCode() != "" {
		return oauth2errors.ErrUnsupportedGrantType
	}
	row := models.OAuthToken{
		ClientID:    info.GetClientID(),
		AccessToken: info.GetAccess(),
		Scopes:      info.GetScope(),
		CreatedAt:   info.GetAccessCreateAt(),
		ExpiresAt:   info.GetAccessCreateAt().Add(info.GetAccessExpiresIn()),
	}
	if uid := info.GetUserID(); uid != "" {
		row.UserID = &uid
	}
	if refresh := info.GetRefresh(); refresh != "" {
		row.RefreshToken = &refresh
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *tokenStore) RemoveByCode(context.Context, string) error {
	return nil
}

func (s *tokenStore) RemoveByAccess(ctx context.Context, access string) error {
	return s.db.WithContext(ctx).Where("access_token = ?", access).Delete(&models.OAuthToken{}).Error
}

func (s *tokenStore) RemoveByRefresh(ctx context.Context, refresh string) error {
	return s.db.WithContext(ctx).Where("refresh_token = ?", refresh).Delete(&models.OAuthToken{}).Error
}

func (s *tokenStore) GetByCode(context.Context, string) (oauth2.TokenInfo, error) {
	return nil, oauth2errors.ErrInvalidAuthorizeCode
}

func (s *tokenStore) GetByAccess(ctx context.Context, access string) (oauth2.TokenInfo, error) {
	return s.find(ctx, "access_token = ?", access)
}

func (s *tokenStore) GetByRefresh(ctx context.Context, refresh string) (oauth2.TokenInfo, error) {
	return s.find(ctx, "refresh_token = ?", refresh)
}

func (s *tokenStore) find(ctx context.Context, query string, value string) (oauth2.TokenInfo, error) {
	var row models.OAuthToken
	if err := s.db.WithContext(ctx).Where(query, value).First(&row).Error; err != nil {
		return nil, err
	}
	if time.Now().After(row.ExpiresAt) {
		return nil, oauth2errors.ErrExpiredAccessToken
	}

	info := &oauth2models.Token{
		ClientID:        row.ClientID,
		Access:          row.AccessToken,
		AccessCreateAt:  row.CreatedAt,
		AccessExpiresIn: row.ExpiresAt.Sub(row.CreatedAt),
		Scope:           row.Scopes,
	}
	if row.UserID != nil {
		info.UserID = *row.UserID
	}
	if row.RefreshToken != nil {
		info.Refresh = *row.RefreshToken
	}
	return info, nil
}
