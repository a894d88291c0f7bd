package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/franciscosanchezn/gin-cookbook-api/docs" // Import generated docs
	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/config"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/controllers"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/database"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/middleware"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/services"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// @title Cookbook API
// @version 1.0
// @description Share recipes, browse them by category, tag and search term, comment, rate and keep favorites.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration := loadConfig()

	// Initialize database connection
	db := setupDatabase(configuration)

	images := setupImageStore(configuration)

	router := setupRouter(db, images, configuration)

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	checkPanicErr(router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(config.LevelForEnvironment(config.GetEnvWithDefault("APP_ENV", "development")))
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	if level, err := log.ParseLevel(conf.LogLevel); err == nil && conf.Environment != "production" {
		log.SetLevel(level)
	}
	return conf
}

// setupDatabase connects, migrates and seeds the database
func setupDatabase(conf *config.Config) *gorm.DB {
	db, err := database.InitDatabase(database.FromAppConfig(conf))
	checkPanicErr(err)
	checkPanicErr(database.Migrate(db))

	// Create only if is empty
	var count int64
	db.Model(&models.Category{}).Count(&count)
	if count == 0 {
		log.Info("Database is empty, seeding initial data")
		seedDatabase(db)
	} else {
		log.Info("Database already seeded with initial data")
	}
	return db
}

// seedDatabase creates the starter categories and tags
func seedDatabase(db *gorm.DB) {
	categories := []models.Category{
		{Name: "Breakfast", Description: "Morning dishes"},
		{Name: "Main courses", Description: "Lunch and dinner"},
		{Name: "Soups", Description: "Soups and stews"},
		{Name: "Desserts", Description: "Cakes, tortes and sweets"},
	}
	tags := []models.Tag{
		{Name: "Vegetarian", Slug: "vegetarian"},
		{Name: "Vegan", Slug: "vegan"},
		{Name: "Quick", Slug: "quick"},
		{Name: "Gluten free", Slug: "gluten-free"},
	}
	if err := db.Create(&categories).Error; err != nil {
		log.WithError(err).Error("Failed to seed categories")
	}
	if err := db.Create(&tags).Error; err != nil {
		log.WithError(err).Error("Failed to seed tags")
	}
	log.Info("Database seeded successfully")
}

// setupImageStore picks the image backend from IMAGE_STORE
func setupImageStore(conf *config.Config) storage.ImageStore {
	if conf.ImageStore != "s3" {
		log.Info("Image storage disabled")
		return storage.NopImageStore{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := storage.NewS3ImageStore(ctx, storage.S3Config{
		Bucket:          conf.S3Bucket,
		Region:          conf.S3Region,
		Endpoint:        conf.S3Endpoint,
		PublicBaseURL:   conf.S3PublicBaseURL,
		AccessKeyID:     conf.S3AccessKeyID,
		SecretAccessKey: conf.S3SecretKey,
	})
	checkPanicErr(err)
	log.WithField("bucket", conf.S3Bucket).Info("Using S3 image storage")
	return store
}

// setupRouter wires services and controllers and returns the configured router
func setupRouter(db *gorm.DB, images storage.ImageStore, conf *config.Config) *gin.Engine {
	if conf.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(middleware.Metrics())

	hooks := storage.NewImageHooks(images)
	userService := services.NewUserService(db, images, hooks)
	routes := &controllers.Routes{
		Recipes:    controllers.NewRecipeController(services.NewRecipeService(db, images, hooks)),
		Comments:   controllers.NewCommentController(services.NewCommentService(db)),
		Categories: controllers.NewCategoryController(services.NewCategoryService(db, images)),
		Tags:       controllers.NewTagController(services.NewTagService(db, images)),
		Users:      controllers.NewUserController(userService),
		Auth:       controllers.NewAuthController(userService, auth.NewTokenIssuer(conf.JWTSecret, time.Duration(conf.JWTTTLHours)*time.Hour)),
		Clients:    controllers.NewClientController(services.NewClientService(db)),
		OAuth:      auth.NewOAuthService(db, conf.JWTSecret),
		JWTSecret:  []byte(conf.JWTSecret),
		Limiter:    middleware.NewWriteLimiter(conf.WriteRatePerMinute),
	}

	router.GET("/health", healthCheckHandler)
	router.GET("/metrics", middleware.MetricsHandler())
	routes.Register(router)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "gin-cookbook-api",
	})
}
