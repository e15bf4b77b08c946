// Package router wires services, controllers and middleware into the gin engine.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/franciscosanchezn/foodgram-api/internal/auth"
	"github.com/franciscosanchezn/foodgram-api/internal/controllers"
	"github.com/franciscosanchezn/foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/franciscosanchezn/foodgram-api/internal/services"
	"github.com/franciscosanchezn/foodgram-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// Options holds the HTTP-facing settings
type Options struct {
	JWTSecret       string
	BaseURL         string
	DefaultPageSize int
	MaxPageSize     int
	LoginRatePerMin int
}

// Services is the set of domain services behind the API
type Services struct {
	Users         services.UserService
	Recipes       services.RecipeService
	Lists         services.RecipeListService
	Subscriptions services.SubscriptionService
	ShoppingList  services.ShoppingListService
	Reference     services.ReferenceService
}

// NewServices builds every domain service on db and store
func NewServices(db *gorm.DB, store storage.Storage) Services {
	return Services{
		Users:         services.NewUserService(db),
		Recipes:       services.NewRecipeService(db, store),
		Lists:         services.NewRecipeListService(db),
		Subscriptions: services.NewSubscriptionService(db),
		ShoppingList:  services.NewShoppingListService(db),
		Reference:     services.NewReferenceService(db),
	}
}

// Authenticator adapts the user service to the OAuth2 password grant
func Authenticator(users services.UserService) auth.PasswordAuthenticator {
	return func(ctx context.Context, email, password string) (uint, error) {
		user, err := users.Authenticate(ctx, email, password)
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	}
}

// New returns the configured gin engine
func New(db *gorm.DB, oauth *auth.OAuthService, store storage.Storage, svc Services, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	presenter := controllers.NewPresenter(store, svc.Recipes, svc.Lists, svc.Subscriptions)
	paginator := controllers.NewPaginator(opts.BaseURL, opts.DefaultPageSize, opts.MaxPageSize)

	authController := controllers.NewAuthController(svc.Users, oauth)
	userController := controllers.NewUserController(svc.Users, svc.Subscriptions, oauth, presenter, paginator)
	recipeController := controllers.NewRecipeController(svc.Recipes, svc.Lists, svc.ShoppingList, presenter, paginator)
	referenceController := controllers.NewReferenceController(svc.Reference)

	secret := []byte(opts.JWTSecret)
	requireAuth := middleware.TokenAuth(secret, oauth)
	optionalAuth := middleware.OptionalTokenAuth(secret, oauth)
	requireAdmin := middleware.RequireRole(models.RoleAdmin)
	loginLimiter := middleware.RateLimit(middleware.NewRateLimiter(opts.LoginRatePerMin, time.Minute))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if local, ok := store.(*storage.LocalStorage); ok {
		router.Static("/media", local.Root())
	}

	api := router.Group("/api")
	{
		authApi := api.Group("/auth/token")
		{
			authApi.POST("/login", loginLimiter, authController.Login)
			authApi.POST("/logout", requireAuth, authController.Logout)
		}

		// Standard OAuth2 password grant for API clients holding client credentials
		api.POST("/oauth/token", loginLimiter, oauthTokenHandler(oauth))

		users := api.Group("/users")
		{
			users.POST("", userController.Register)
			users.GET("", optionalAuth, userController.ListUsers)
			users.GET("/me", requireAuth, userController.Me)
			users.POST("/set_password", requireAuth, userController.SetPassword)
			users.GET("/subscriptions", requireAuth, userController.Subscriptions)
			users.GET("/:id", optionalAuth, userController.GetUser)
			users.POST("/:id/subscribe", requireAuth, userController.Subscribe)
			users.DELETE("/:id/subscribe", requireAuth, userController.Unsubscribe)
		}

		recipes := api.Group("/recipes")
		{
			recipes.GET("", optionalAuth, recipeController.ListRecipes)
			recipes.POST("", requireAuth, recipeController.CreateRecipe)
			recipes.GET("/download_shopping_cart", requireAuth, recipeController.DownloadShoppingCart)
			recipes.GET("/:id", optionalAuth, recipeController.GetRecipe)
			recipes.PATCH("/:id", requireAuth, recipeController.UpdateRecipe)
			recipes.DELETE("/:id", requireAuth, recipeController.DeleteRecipe)
			recipes.POST("/:id/favorite", requireAuth, recipeController.AddFavorite)
			recipes.DELETE("/:id/favorite", requireAuth, recipeController.RemoveFavorite)
			recipes.POST("/:id/shopping_cart", requireAuth, recipeController.AddToShoppingCart)
			recipes.DELETE("/:id/shopping_cart", requireAuth, recipeController.RemoveFromShoppingCart)
		}

		tags := api.Group("/tags")
		{
			tags.GET("", referenceController.ListTags)
			tags.GET("/:id", referenceController.GetTag)
			tags.POST("", requireAuth, requireAdmin, referenceController.CreateTag)
		}

		ingredients := api.Group("/ingredients")
		{
			ingredients.GET("", referenceController.ListIngredients)
			ingredients.GET("/:id", referenceController.GetIngredient)
			ingredients.POST("", requireAuth, requireAdmin, referenceController.CreateIngredient)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "Not found"))
	})

	return router
}

// oauthTokenHandler godoc
// @Summary OAuth2 token endpoint
// @Description Password grant (form encoded grant_type, client_id, client_secret, username, password)
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/oauth/token [post]
func oauthTokenHandler(oauth *auth.OAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := oauth.GetServer().HandleTokenRequest(c.Writer, c.Request); err != nil {
			log.WithError(err).Warn("OAuth2 token request failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
	}
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service and its database are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "foodgram-api",
		})
	}
}
