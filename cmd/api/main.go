package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/faheemkodi/lms-server/docs"
	"github.com/faheemkodi/lms-server/internal/auth"
	"github.com/faheemkodi/lms-server/internal/cache"
	"github.com/faheemkodi/lms-server/internal/config"
	"github.com/faheemkodi/lms-server/internal/handlers"
	"github.com/faheemkodi/lms-server/internal/logger"
	"github.com/faheemkodi/lms-server/internal/mailer"
	"github.com/faheemkodi/lms-server/internal/middleware"
	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/faheemkodi/lms-server/internal/payments"
	"github.com/faheemkodi/lms-server/internal/repositories"
	"github.com/faheemkodi/lms-server/internal/services"
	"github.com/faheemkodi/lms-server/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title LMS API
// @version 1.0
// @description API of a course marketplace: authentication, course authoring, enrolment, payments and progress

// @host localhost:8000
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. Browsers use the "token" cookie instead.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting LMS API")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis; the course cache keeps working without it
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Warn("Redis is unavailable, course listing will not be cached", zap.Error(err))
	}
	courseCache := cache.New(rdb, logger.Logger)

	// Create Asynq client for outgoing email
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()
	emailQueue := mailer.NewQueue(asynqClient)

	// Initialize object storage
	store, mediaDir, err := newStorage(cfg.Storage)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	// Initialize payment gateway
	gateway := payments.NewStripeGateway(cfg.Stripe.SecretKey, nil)

	// Initialize JWT token generator
	tokenGenerator := auth.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.TokenExpiry)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	courseRepo := repositories.NewCourseRepository(db, logger.Logger)
	lessonRepo := repositories.NewLessonRepository(db, logger.Logger)
	enrolmentRepo := repositories.NewEnrolmentRepository(db, logger.Logger)
	completedRepo := repositories.NewCompletedRepository(db, logger.Logger)
	sessionRepo := repositories.NewCheckoutSessionRepository(db, logger.Logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenGenerator, emailQueue, logger.Logger)
	mediaService := services.NewMediaService(store, logger.Logger)
	courseService := services.NewCourseService(courseRepo, lessonRepo, courseCache, logger.Logger)
	enrolmentService := services.NewEnrolmentService(courseRepo, enrolmentRepo, sessionRepo, userRepo, gateway, services.CheckoutConfig{
		Currency:   cfg.Stripe.Currency,
		FeePercent: int(cfg.Stripe.PlatformFeePercent),
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
	}, logger.Logger)
	progressService := services.NewProgressService(completedRepo, lessonRepo, logger.Logger)
	instructorService := services.NewInstructorService(userRepo, courseRepo, enrolmentRepo, gateway, services.OnboardingConfig{
		RedirectURL:         cfg.Stripe.RedirectURL,
		SettingsRedirectURL: cfg.Stripe.SettingsRedirectURL,
	}, logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, handlers.CookieConfig{
		Secure: cfg.Server.SecureCookies,
		MaxAge: cfg.JWT.TokenExpiry,
	}, logger.Logger)
	mediaHandler := handlers.NewMediaHandler(mediaService, logger.Logger)
	courseHandler := handlers.NewCourseHandler(courseService, logger.Logger)
	enrolmentHandler := handlers.NewEnrolmentHandler(enrolmentService, courseService, logger.Logger)
	progressHandler := handlers.NewProgressHandler(progressService, logger.Logger)
	instructorHandler := handlers.NewInstructorHandler(instructorService, logger.Logger)
	csrfHandler := handlers.NewCSRFHandler(logger.Logger)

	// Initialize auth middleware
	authMiddleware := middleware.AuthMiddleware(tokenGenerator)
	instructorMiddleware := middleware.RoleMiddleware(instructorService, models.RoleInstructor, logger.Logger)
	enrolledMiddleware := middleware.EnrolledMiddleware(enrolmentService, logger.Logger)
	csrfMiddleware := middleware.CSRFMiddleware([]byte(cfg.CSRF.AuthKey), cfg.Server.SecureCookies, cfg.CORS.AllowedOrigins, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Files of the local storage driver
	if mediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(csrfMiddleware)
		csrfHandler.RegisterRoutes(r)
		authHandler.RegisterRoutes(r, authMiddleware)
		mediaHandler.RegisterRoutes(r, authMiddleware)
		courseHandler.RegisterRoutes(r, authMiddleware, instructorMiddleware)
		enrolmentHandler.RegisterRoutes(r, authMiddleware, enrolledMiddleware)
		progressHandler.RegisterRoutes(r, authMiddleware)
		instructorHandler.RegisterRoutes(r, authMiddleware)
	})

	// Start server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// newStorage builds the configured storage driver.
// The returned directory is non-empty only for the local driver.
func newStorage(cfg config.StorageConfig) (services.Storage, string, error) {
	switch cfg.Driver {
	case "s3":
		s, err := storage.NewS3Storage(context.Background(), storage.S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
		if err != nil {
			return nil, "", err
		}
		return s, "", nil
	default:
		s, err := storage.NewLocalStorage(cfg.BasePath, cfg.BaseURL)
		if err != nil {
			return nil, "", err
		}
		return s, s.Dir(), nil
	}
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "lms_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Try parent directories when running from cmd/api
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		if _, err := os.Stat("../../migrations"); err == nil {
			migrationPath = "file://../../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
