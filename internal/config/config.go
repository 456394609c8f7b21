// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Storage  StorageConfig
	Stripe   StripeConfig
	CSRF     CSRFConfig
	Worker   WorkerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port pair of the Redis server
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port           int
	SecureCookies  bool
	MaxRequestSize int64
	// ReadTimeout and WriteTimeout bound a whole request, so they must cover a video upload
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

// SMTPConfig holds SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// StorageConfig selects and configures the object storage driver
type StorageConfig struct {
	Driver    string
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	BasePath  string
	BaseURL   string
}

// StripeConfig holds payment processor settings
type StripeConfig struct {
	SecretKey           string
	Currency            string
	PlatformFeePercent  int64
	RedirectURL         string
	SettingsRedirectURL string
	SuccessURL          string
	CancelURL           string
}

// CSRFConfig holds CSRF protection settings
type CSRFConfig struct {
	AuthKey string
}

// WorkerConfig holds background worker settings
type WorkerConfig struct {
	Concurrency       int
	ReconcileSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8000" // default port
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	cfg.Server.SecureCookies = os.Getenv("SECURE_COOKIES") == "true"

	maxSizeStr := os.Getenv("MAX_REQUEST_SIZE")
	if maxSizeStr == "" {
		maxSizeStr = "104857600" // 100MB, videos go through the same limit
	}
	maxSize, err := strconv.ParseInt(maxSizeStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_REQUEST_SIZE: %w", err)
	}
	cfg.Server.MaxRequestSize = maxSize

	readTimeout, err := durationEnv("SERVER_READ_TIMEOUT", "10m")
	if err != nil {
		return nil, err
	}
	cfg.Server.ReadTimeout = readTimeout

	writeTimeout, err := durationEnv("SERVER_WRITE_TIMEOUT", "10m")
	if err != nil {
		return nil, err
	}
	cfg.Server.WriteTimeout = writeTimeout

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	// Session token expiry (default: 7 days)
	expiryStr := os.Getenv("JWT_TOKEN_EXPIRY")
	if expiryStr == "" {
		expiryStr = "168h"
	}
	expiry, err := time.ParseDuration(expiryStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TOKEN_EXPIRY: %w", err)
	}
	cfg.JWT.TokenExpiry = expiry

	// Redis configuration
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost" // default
	}
	cfg.Redis.Host = redisHost

	redisPortStr := os.Getenv("REDIS_PORT")
	if redisPortStr == "" {
		redisPortStr = "6379" // default
	}
	redisPort, err := strconv.Atoi(redisPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.Redis.Port = redisPort

	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional

	redisDBStr := os.Getenv("REDIS_DB")
	if redisDBStr == "" {
		redisDBStr = "0" // default
	}
	redisDB, err := strconv.Atoi(redisDBStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.Redis.DB = redisDB

	// SMTP configuration
	smtpHost := os.Getenv("SMTP_HOST")
	if smtpHost == "" {
		smtpHost = "localhost" // default
	}
	cfg.SMTP.Host = smtpHost

	smtpPortStr := os.Getenv("SMTP_PORT")
	if smtpPortStr == "" {
		smtpPortStr = "587" // default
	}
	smtpPort, err := strconv.Atoi(smtpPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	cfg.SMTP.Port = smtpPort

	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME") // optional
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD") // optional

	smtpFrom := os.Getenv("EMAIL_FROM")
	if smtpFrom == "" {
		smtpFrom = "noreply@lms.local" // default
	}
	cfg.SMTP.From = smtpFrom

	// Storage configuration
	if err := loadStorage(cfg); err != nil {
		return nil, err
	}

	// Stripe configuration
	if err := loadStripe(cfg); err != nil {
		return nil, err
	}

	// CSRF configuration
	csrfKey := os.Getenv("CSRF_AUTH_KEY")
	if len(csrfKey) != 32 {
		return nil, fmt.Errorf("CSRF_AUTH_KEY is required and must be 32 bytes")
	}
	cfg.CSRF.AuthKey = csrfKey

	// Worker configuration
	concurrencyStr := os.Getenv("WORKER_CONCURRENCY")
	if concurrencyStr == "" {
		concurrencyStr = "10"
	}
	concurrency, err := strconv.Atoi(concurrencyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}
	cfg.Worker.Concurrency = concurrency

	schedule := os.Getenv("RECONCILE_SCHEDULE")
	if schedule == "" {
		schedule = "@every 5m"
	}
	cfg.Worker.ReconcileSchedule = schedule

	return cfg, nil
}

func loadStorage(cfg *Config) error {
	driver := os.Getenv("STORAGE_DRIVER")
	if driver == "" {
		driver = "local"
	}
	cfg.Storage.Driver = driver

	switch driver {
	case "s3":
		bucket := os.Getenv("AWS_BUCKET")
		if bucket == "" {
			return fmt.Errorf("AWS_BUCKET is required for the s3 storage driver")
		}
		cfg.Storage.Bucket = bucket

		region := os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
		cfg.Storage.Region = region

		cfg.Storage.Endpoint = os.Getenv("AWS_ENDPOINT") // optional, for MinIO
		cfg.Storage.AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.Storage.SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	case "local":
		basePath := os.Getenv("MEDIA_BASE_PATH")
		if basePath == "" {
			basePath = "./media"
		}
		cfg.Storage.BasePath = basePath

		baseURL := os.Getenv("MEDIA_BASE_URL")
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
		}
		cfg.Storage.BaseURL = strings.TrimRight(baseURL, "/")
		cfg.Storage.Bucket = "local"
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER: %s", driver)
	}

	return nil
}

func loadStripe(cfg *Config) error {
	secret := os.Getenv("STRIPE_SECRET")
	if secret == "" {
		return fmt.Errorf("STRIPE_SECRET is required")
	}
	cfg.Stripe.SecretKey = secret

	currency := os.Getenv("STRIPE_CURRENCY")
	if currency == "" {
		currency = "inr"
	}
	cfg.Stripe.Currency = currency

	feeStr := os.Getenv("PLATFORM_FEE_PERCENT")
	if feeStr == "" {
		feeStr = "30"
	}
	fee, err := strconv.ParseInt(feeStr, 10, 64)
	if err != nil || fee < 0 || fee > 100 {
		return fmt.Errorf("invalid PLATFORM_FEE_PERCENT: %s", feeStr)
	}
	cfg.Stripe.PlatformFeePercent = fee

	cfg.Stripe.RedirectURL = os.Getenv("STRIPE_REDIRECT_URL")
	if cfg.Stripe.RedirectURL == "" {
		return fmt.Errorf("STRIPE_REDIRECT_URL is required")
	}
	cfg.Stripe.SettingsRedirectURL = os.Getenv("STRIPE_SETTINGS_REDIRECT")
	if cfg.Stripe.SettingsRedirectURL == "" {
		cfg.Stripe.SettingsRedirectURL = cfg.Stripe.RedirectURL
	}
	cfg.Stripe.SuccessURL = os.Getenv("STRIPE_SUCCESS_URL")
	if cfg.Stripe.SuccessURL == "" {
		return fmt.Errorf("STRIPE_SUCCESS_URL is required")
	}
	cfg.Stripe.CancelURL = os.Getenv("STRIPE_CANCEL_URL")
	if cfg.Stripe.CancelURL == "" {
		return fmt.Errorf("STRIPE_CANCEL_URL is required")
	}

	return nil
}

// durationEnv parses a positive duration variable, using def when it is unset
func durationEnv(key, def string) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		raw = def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

// parseOrigins splits a comma-separated origin list. An empty list allows no cross-origin requests.
func parseOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}
