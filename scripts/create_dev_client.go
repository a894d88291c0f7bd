package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/config"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/database"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Creates a development user and an OAuth2 client owned by it, so the
// client credentials flow can be tried against a local database.
func main() {
	role := flag.String("role", models.RoleAdmin, "User role (admin or user)")
	flag.Parse()
	if *role != models.RoleAdmin && *role != models.RoleUser {
		log.Fatalf("Unknown role %q", *role)
	}

	_ = godotenv.Load()
	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.InitDatabase(database.FromAppConfig(conf))
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	clientID := fmt.Sprintf("dev-%s-client", *role)
	clientSecret := fmt.Sprintf("dev-%s-secret", *role)

	var existing models.OAuthClient
	if err := db.Where("id = ?", clientID).First(&existing).Error; err == nil {
		fmt.Printf("Development client already exists for role '%s'\n", *role)
		printCredentials(clientID, clientSecret)
		return
	}

	user, err := devUser(db, *role)
	if err != nil {
		log.Fatal("Failed to get development user:", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(clientSecret), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash secret:", err)
	}

	client := models.OAuthClient{
		ID:         clientID,
		Secret:     string(hash),
		Name:       fmt.Sprintf("Development %s client", *role),
		Domain:     "http://localhost",
		UserID:     user.ID,
		Scopes:     "read write",
		GrantTypes: "client_credentials",
	}
	if err := db.Create(&client).Error; err != nil {
		log.Fatal("Failed to create client:", err)
	}

	fmt.Printf("Development OAuth client created for %s (user %d)\n", user.Username, user.ID)
	printCredentials(clientID, clientSecret)
}

// devUser finds or creates the development user for a role
func devUser(db *gorm.DB, role string) (*models.User, error) {
	username := "dev-" + role
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err == nil {
		return &user, nil
	}

	user = models.User{
		Username: username,
		Email:    username + "@cookbook.local",
		Role:     role,
	}
	if err := user.SetPassword(username + "-password"); err != nil {
		return nil, err
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	fmt.Printf("Created user %s (ID: %d, Role: %s)\n", user.Username, user.ID, user.Role)
	return &user, nil
}

func printCredentials(clientID, clientSecret string) {
	fmt.Printf("Client ID: %s\n", clientID)
	fmt.Printf("Client Secret: %s\n", clientSecret)
	fmt.Println("\nRequest a token with:")
	fmt.Printf("curl -X POST http://localhost:8080/oauth/token \\\n")
	fmt.Printf("  -d 'grant_type=client_credentials' \\\n")
	fmt.Printf("  -d 'client_id=%s' \\\n", clientID)
	fmt.Printf("  -d 'client_secret=%s'\n", clientSecret)
}
