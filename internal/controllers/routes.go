package controllers

import (
	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/middleware"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/gin-gonic/gin"
)

// Routes bundles the controllers and middleware settings of the API
type Routes struct {
	Recipes    *RecipeController
	Comments   *CommentController
	Categories *CategoryController
	Tags       *TagController
	Users      *UserController
	Auth       *AuthController
	Clients    *ClientController
	OAuth      *auth.OAuthService
	JWTSecret  []byte
	Limiter    *middleware.WriteLimiter
}

// Register mounts the OAuth2 token endpoint and the /api/v1 groups
func (r *Routes) Register(router *gin.Engine) {
	router.POST("/oauth/token", r.OAuth.HandleToken)

	v1 := router.Group("/api/v1")
	{
		authApi := v1.Group("/auth")
		authApi.Use(r.Limiter.Middleware())
		{
			authApi.POST("/register", r.Auth.Register)
			authApi.POST("/login", r.Auth.Login)
		}

		// Public routes identify the caller when a token is sent
		publicApi := v1.Group("/public")
		publicApi.Use(middleware.OptionalAuth(r.JWTSecret))
		{
			publicApi.GET("/home", r.Recipes.Home)
			publicApi.GET("/recipes", r.Recipes.ListRecipes)
			publicApi.GET("/recipes/:id", r.Recipes.GetRecipe)
			publicApi.GET("/recipes/:id/comments", r.Comments.ListComments)
			publicApi.GET("/categories", r.Categories.ListCategories)
			publicApi.GET("/categories/:id", r.Categories.GetCategory)
			publicApi.GET("/tags", r.Tags.ListTags)
			publicApi.GET("/tags/:id", r.Tags.GetTag)
			publicApi.GET("/users/:id", r.Users.GetProfile)
		}

		// Protected routes (requires a valid bearer token)
		protectedApi := v1.Group("/protected")
		protectedApi.Use(middleware.OAuth2Auth(r.JWTSecret), r.Limiter.Middleware())
		{
			protectedApi.POST("/recipes", r.Recipes.CreateRecipe)
			protectedApi.PUT("/recipes/:id", r.Recipes.UpdateRecipe)
			protectedApi.DELETE("/recipes/:id", r.Recipes.DeleteRecipe)
			protectedApi.PUT("/recipes/:id/image", r.Recipes.UploadImage)
			protectedApi.POST("/recipes/:id/comments", r.Comments.AddComment)
			protectedApi.POST("/recipes/:id/favorite", r.Users.ToggleFavorite)
			protectedApi.GET("/favorites", r.Users.ListFavorites)
			protectedApi.GET("/me", r.Users.GetMyProfile)
			protectedApi.PUT("/me", r.Users.UpdateProfile)
			protectedApi.PUT("/me/image", r.Users.UploadProfileImage)

			protectedApi.POST("/clients", r.Clients.CreateClient)
			protectedApi.GET("/clients", r.Clients.ListClients)
			protectedApi.DELETE("/clients/:id", r.Clients.DeleteClient)

			adminApi := protectedApi.Group("/admin")
			adminApi.Use(middleware.RequireRole(models.RoleAdmin))
			{
				adminApi.POST("/categories", r.Categories.CreateCategory)
				adminApi.DELETE("/categories/:id", r.Categories.DeleteCategory)
				adminApi.POST("/tags", r.Tags.CreateTag)
			}
		}
	}
}
