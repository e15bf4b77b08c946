package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/franciscosanchezn/foodgram-api/internal/database"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Port    int    `json:"port"`
	Host    string `json:"host"`
	BaseURL string `json:"base_url"`
	Env     string `json:"env"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBSSLMode  string `json:"db_sslmode"`
	DBPath     string `json:"db_path"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret       string        `json:"jwt_secret"`
	TokenTTL        time.Duration `json:"token_ttl"`
	WebClientID     string        `json:"web_client_id"`
	WebClientSecret string        `json:"web_client_secret"`
	LoginRatePerMin int           `json:"login_rate_per_min"`
	AdminEmail      string        `json:"admin_email"`
	AdminPassword   string        `json:"admin_password"`

	// Media storage configuration
	MediaStorage string `json:"media_storage"` // local or s3
	MediaRoot    string `json:"media_root"`
	MediaBaseURL string `json:"media_base_url"`
	S3Bucket     string `json:"s3_bucket"`
	S3Region     string `json:"s3_region"`
	S3Endpoint   string `json:"s3_endpoint"`
	S3AccessKey  string `json:"s3_access_key"`
	S3SecretKey  string `json:"s3_secret_key"`

	// Pagination
	DefaultPageSize int `json:"default_page_size"`
	MaxPageSize     int `json:"max_page_size"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, BaseURL: %s, Env: %s, DBDriver: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], LogLevel: %s, JWTSecret: [REDACTED], WebClientID: %s, WebClientSecret: [REDACTED], MediaStorage: %s, MediaBaseURL: %s, S3Bucket: %s, S3AccessKey: %s, S3SecretKey: [REDACTED]}",
		c.Port, c.Host, maskURL(c.BaseURL), c.Env, c.DBDriver, c.DBHost, c.DBName, c.DBUser, c.LogLevel,
		c.WebClientID, c.MediaStorage, maskURL(c.MediaBaseURL), c.S3Bucket, maskKey(c.S3AccessKey))
}

// Database returns the connection settings for the database package
func (c *Config) Database() database.DatabaseConfig {
	return database.DatabaseConfig{
		Driver:   c.DBDriver,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		SSLMode:  c.DBSSLMode,
		Path:     c.DBPath,
	}
}

// maskURL masks password in URLs carrying user info
func maskURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}

	if parsed.User != nil {
		// Replace password with [REDACTED]
		parsed.User = url.UserPassword(parsed.User.Username(), "[REDACTED]")
	}

	return parsed.String()
}

// maskKey keeps the first four characters of an access key
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-4)
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct.
// When CONFIG_FILE points to a YAML file, its keys fill in variables missing from the environment.
// Returns an error if any variable is present but invalid
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyConfigFile(path); err != nil {
			return nil, err
		}
	}

	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	tokenTTL, err := time.ParseDuration(GetEnvWithDefault("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	host := GetEnvWithDefault("APP_HOST", "localhost")
	baseURL := strings.TrimRight(GetEnvWithDefault("BASE_URL", fmt.Sprintf("http://%s:%d", host, port)), "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid BASE_URL format: %s", baseURL)
	}

	config := &Config{
		Port:    port,
		Host:    host,
		BaseURL: baseURL,
		Env:     GetEnvWithDefault("APP_ENV", "development"),

		DBDriver:   strings.ToLower(GetEnvWithDefault("DB_DRIVER", "sqlite")),
		DBHost:     GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:     GetEnvWithDefault("DB_PORT", "5432"),
		DBName:     GetEnvWithDefault("DB_NAME", "foodgram"),
		DBUser:     GetEnvWithDefault("DB_USER", "foodgram"),
		DBPassword: GetEnvWithDefault("DB_PASSWORD", "password"),
		DBSSLMode:  GetEnvWithDefault("DB_SSLMODE", "disable"),
		DBPath:     GetEnvWithDefault("DB_PATH", "foodgram.sqlite"),

		LogLevel: GetEnvWithDefault("LOG_LEVEL", "info"),

		JWTSecret:       GetEnvWithDefault("JWT_SECRET", "secret"),
		TokenTTL:        tokenTTL,
		WebClientID:     GetEnvWithDefault("WEB_CLIENT_ID", "foodgram-web"),
		WebClientSecret: GetEnvWithDefault("WEB_CLIENT_SECRET", "foodgram-web-secret"),
		LoginRatePerMin: GetEnvAsType("LOGIN_RATE_PER_MIN", 10),
		AdminEmail:      GetEnvWithDefault("ADMIN_EMAIL", ""),
		AdminPassword:   GetEnvWithDefault("ADMIN_PASSWORD", ""),

		MediaStorage: strings.ToLower(GetEnvWithDefault("MEDIA_STORAGE", "local")),
		MediaRoot:    GetEnvWithDefault("MEDIA_ROOT", "media"),
		S3Bucket:     GetEnvWithDefault("S3_BUCKET", ""),
		S3Region:     GetEnvWithDefault("S3_REGION", "us-east-1"),
		S3Endpoint:   GetEnvWithDefault("S3_ENDPOINT", ""),
		S3AccessKey:  GetEnvWithDefault("S3_ACCESS_KEY", ""),
		S3SecretKey:  GetEnvWithDefault("S3_SECRET_KEY", ""),

		DefaultPageSize: GetEnvAsType("PAGE_SIZE", 6),
		MaxPageSize:     GetEnvAsType("MAX_PAGE_SIZE", 100),
	}
	config.MediaBaseURL = strings.TrimRight(GetEnvWithDefault("MEDIA_BASE_URL", baseURL+"/media"), "/")

	switch config.MediaStorage {
	case "local":
	case "s3":
		if config.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when MEDIA_STORAGE=s3")
		}
	default:
		return nil, fmt.Errorf("unsupported MEDIA_STORAGE: %s (supported: local, s3)", config.MediaStorage)
	}

	if config.DefaultPageSize <= 0 || config.MaxPageSize < config.DefaultPageSize {
		return nil, fmt.Errorf("invalid pagination settings: PAGE_SIZE=%d MAX_PAGE_SIZE=%d",
			config.DefaultPageSize, config.MaxPageSize)
	}

	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// applyConfigFile exports the keys of a flat YAML file as environment variables,
// leaving variables that are already set untouched
func applyConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	for key, value := range values {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	log.WithField("path", path).Debug("Config file applied")
	return nil
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
