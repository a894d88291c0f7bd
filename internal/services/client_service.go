package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultClientScopes = "read write"

type ClientInput struct {
	Name   string `json:"name" binding:"required,max=100" example:"meal-planner"`
	Domain string `json:"domain" example:"https://planner.example.com"`
	Scopes string `json:"scopes" example:"read write"`
}

// CreatedClient carries the plain secret, which is only available once
type CreatedClient struct {
	Client       *models.OAuthClient `json:"client"`
	ClientSecret string              `json:"client_secret"`
}

type ClientService interface {
	CreateClient(ctx context.Context, caller auth.AuthContext, input ClientInput) (*CreatedClient, error)
	GetClientsByUserID(ctx context.Context, userID uint) ([]models.OAuthClient, error)
	DeleteClient(ctx context.Context, caller auth.AuthContext, clientID string) error
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

func (s *clientService) CreateClient(ctx context.Context, caller auth.AuthContext, input ClientInput) (*CreatedClient, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	scopes := strings.Join(strings.Fields(input.Scopes), " ")
	if scopes == "" {
		scopes = defaultClientScopes
	}

	secret, err := generateClientSecret()
	if err != nil {
		return nil, fmt.Errorf("generate client secret: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash client secret: %w", err)
	}

	client := &models.OAuthClient{
		ID:         uuid.NewString(),
		Secret:     string(hash),
		Name:       name,
		Domain:     strings.TrimSpace(input.Domain),
		UserID:     caller.UserID,
		Scopes:     scopes,
		GrantTypes: "client_credentials",
	}
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	log.WithFields(logrus.Fields{"client_id": client.ID, "user_id": caller.UserID}).Info("API client created")
	return &CreatedClient{Client: client, ClientSecret: secret}, nil
}

func (s *clientService) GetClientsByUserID(ctx context.Context, userID uint) ([]models.OAuthClient, error) {
	var clients []models.OAuthClient
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("list clients of user %d: %w", userID, err)
	}
	return clients, nil
}

func (s *clientService) DeleteClient(ctx context.Context, caller auth.AuthContext, clientID string) error {
	if !caller.IsAuthenticated() {
		return ErrUnauthenticated
	}
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", clientID, caller.UserID).Delete(&models.OAuthClient{})
	if result.Error != nil {
		return fmt.Errorf("delete client %s: %w", clientID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("client %s: %w", clientID, ErrNotFound)
	}

	log.WithFields(logrus.Fields{"client_id": clientID, "user_id": caller.UserID}).Info("API client deleted")
	return nil
}

func generateClientSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
