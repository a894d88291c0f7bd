package auth

import (
	"time"

	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/server"
	"gorm.io/gorm"
)

// clientTokenTTL is the lifetime of client credential access tokens
const clientTokenTTL = 2 * time.Hour

// OAuthService serves the OAuth2 token endpoint for registered API clients
type OAuthService struct {
	server *server.Server
}

func NewOAuthService(db *gorm.DB, jwtSecret string) *OAuthService {
	manager := manage.NewDefaultManager()
	manager.SetClientTokenCfg(&manage.Config{AccessTokenExp: clientTokenTTL})
	manager.MapAccessGenerate(&clientTokenGenerator{secret: []byte(jwtSecret), db: db})
	manager.MustTokenStorage(&tokenStore{db: db}, nil)
	clients := &clientStore{db: db}
	manager.MapClientStorage(clients)

	srv := server.NewDefaultServer(manager)
	srv.SetAllowGetAccessRequest(false)
	srv.SetAllowedGrantType(oauth2.ClientCredentials)
	srv.SetClientInfoHandler(server.ClientFormHandler)
	srv.SetClientAuthorizedHandler(clients.allowsGrant)
	srv.SetClientScopeHandler(clients.allowsScope)

	return &OAuthService{server: srv}
}
