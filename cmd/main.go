package main

import (
	"context"
	"fmt"
	"time"

	_ "github.com/franciscosanchezn/foodgram-api/docs" // Import generated docs
	"github.com/franciscosanchezn/foodgram-api/internal/auth"
	"github.com/franciscosanchezn/foodgram-api/internal/config"
	"github.com/franciscosanchezn/foodgram-api/internal/database"
	"github.com/franciscosanchezn/foodgram-api/internal/router"
	"github.com/franciscosanchezn/foodgram-api/internal/storage"
	"github.com/franciscosanchezn/foodgram-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// tokenPurgeInterval is how often expired tokens are deleted from the store
const tokenPurgeInterval = time.Hour

// @title Foodgram API
// @version 1.0
// @description Recipe sharing: recipes, favorites, shopping lists and subscriptions
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Token" or "Bearer" followed by a space and the auth token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration := loadConfig()
	if configuration.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Initialize database connection
	db := setupDatabase(configuration)

	store := setupStorage(ctx, configuration)
	services := router.NewServices(db, store)

	// Token issuing through the first-party OAuth2 client
	oauth := auth.NewOAuthService(db, auth.Options{
		JWTSecret:    configuration.JWTSecret,
		TokenTTL:     configuration.TokenTTL,
		ClientID:     configuration.WebClientID,
		ClientSecret: configuration.WebClientSecret,
	}, router.Authenticator(services.Users))
	checkPanicErr(oauth.RegisterWebClient(ctx, configuration.BaseURL))
	go purgeExpiredTokens(ctx, oauth)

	if configuration.AdminEmail != "" && configuration.AdminPassword != "" {
		_, err := services.Users.EnsureAdmin(ctx, configuration.AdminEmail, configuration.AdminPassword)
		checkPanicErr(err)
	}

	validation.Setup()

	// Initialize Gin router
	engine := router.New(db, oauth, store, services, router.Options{
		JWTSecret:       configuration.JWTSecret,
		BaseURL:         configuration.BaseURL,
		DefaultPageSize: configuration.DefaultPageSize,
		MaxPageSize:     configuration.MaxPageSize,
		LoginRatePerMin: configuration.LoginRatePerMin,
	})

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	checkPanicErr(engine.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)))
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
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase opens the connection and migrates the schema
func setupDatabase(conf *config.Config) *gorm.DB {
	db, err := database.InitDatabase(conf.Database())
	checkPanicErr(err)
	checkPanicErr(database.Migrate(db))
	return db
}

// setupStorage selects where recipe images are kept
func setupStorage(ctx context.Context, conf *config.Config) storage.Storage {
	if conf.MediaStorage == "s3" {
		store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:    conf.S3Bucket,
			Region:    conf.S3Region,
			Endpoint:  conf.S3Endpoint,
			AccessKey: conf.S3AccessKey,
			SecretKey: conf.S3SecretKey,
			BaseURL:   conf.MediaBaseURL,
		})
		checkPanicErr(err)
		log.WithField("bucket", conf.S3Bucket).Info("Using S3 media storage")
		return store
	}

	store, err := storage.NewLocalStorage(conf.MediaRoot, conf.MediaBaseURL)
	checkPanicErr(err)
	log.WithField("root", conf.MediaRoot).Info("Using local media storage")
	return store
}

// purgeExpiredTokens periodically deletes expired access tokens
func purgeExpiredTokens(ctx context.Context, oauth *auth.OAuthService) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := oauth.PurgeExpiredTokens(ctx); err != nil {
				log.WithError(err).Warn("Failed to purge expired tokens")
			}
		}
	}
}
