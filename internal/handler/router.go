package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/model"
	"github.com/recipebox/backend/internal/ratelimit"
	"github.com/recipebox/backend/internal/service"
	"github.com/recipebox/backend/internal/upload"
	"github.com/recipebox/backend/internal/validation"
)

// RouterDeps is everything the HTTP surface is built from.
type RouterDeps struct {
	Auth       *service.AuthService
	Categories *service.CategoryService
	Recipes    *service.RecipeService

	Uploads *upload.Collector
	Images  *upload.Reconciler
	Cookie  CookieConfig

	AllowedOrigins []string
	// UploadDir is served under /upload when set (local storage only).
	UploadDir string
	// Limiter is applied to /api when set.
	Limiter *ratelimit.Limiter
	DB      Pinger
	Log     logging.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(deps.Log))
	router.Use(CORSMiddleware(deps.AllowedOrigins, true))

	validate := validation.New()
	authHandler := NewAuthHandler(deps.Auth, validate, deps.Uploads, deps.Images, deps.Cookie, deps.Log)
	categoryHandler := NewCategoryHandler(deps.Categories, validate, deps.Uploads, deps.Log)
	recipeHandler := NewRecipeHandler(deps.Recipes, validate, deps.Uploads, deps.Log)

	requireAuth := AuthMiddleware(deps.Auth, deps.Log)
	optionalAuth := OptionalAuthMiddleware(deps.Auth, deps.Log)
	requireAdmin := RequireRole(deps.Log, model.RoleAdmin)

	router.GET("/ping", Ping)
	router.GET("/", Root)
	router.GET("/health", Health(deps.DB))
	router.GET("/openapi.json", OpenAPIDoc)
	if deps.UploadDir != "" {
		router.Static("/upload", deps.UploadDir)
	}

	api := router.Group("/api")
	if deps.Limiter != nil {
		api.Use(ratelimit.Middleware(deps.Limiter, deps.Log))
	}
	v1 := api.Group("/v1")

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", optionalAuth, authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh-token", authHandler.Refresh)
		authRoutes.POST("/logout", requireAuth, authHandler.Logout)
		authRoutes.GET("/me", requireAuth, authHandler.Me)
	}

	categories := v1.Group("/categories")
	{
		categories.GET("", categoryHandler.GetCategories)
		categories.GET("/:id", categoryHandler.GetCategory)
		categories.POST("", requireAuth, requireAdmin, categoryHandler.CreateCategory)
		categories.PUT("/:id", requireAuth, requireAdmin, categoryHandler.UpdateCategory)
		categories.DELETE("/:id", requireAuth, requireAdmin, categoryHandler.DeleteCategory)
	}

	recipes := v1.Group("/recipes")
	{
		recipes.GET("", recipeHandler.GetRecipes)
		recipes.GET("/category/:categoryId", recipeHandler.GetRecipesByCategory)
		recipes.GET("/:id", recipeHandler.GetRecipe)
		recipes.POST("", requireAuth, recipeHandler.CreateRecipe)
		recipes.PUT("/:id", requireAuth, recipeHandler.UpdateRecipe)
		recipes.DELETE("/:id", requireAuth, recipeHandler.DeleteRecipe)
	}

	router.NoRoute(NotFound)
	return router
}
