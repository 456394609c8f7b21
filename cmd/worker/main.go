package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faheemkodi/lms-server/internal/config"
	"github.com/faheemkodi/lms-server/internal/jobs"
	"github.com/faheemkodi/lms-server/internal/logger"
	"github.com/faheemkodi/lms-server/internal/mailer"
	"github.com/faheemkodi/lms-server/internal/payments"
	"github.com/faheemkodi/lms-server/internal/repositories"
	"github.com/faheemkodi/lms-server/internal/services"
	_ "github.com/go-sql-driver/mysql"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

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

	logger.Logger.Info("Starting LMS Worker")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	courseRepo := repositories.NewCourseRepository(db, logger.Logger)
	enrolmentRepo := repositories.NewEnrolmentRepository(db, logger.Logger)
	sessionRepo := repositories.NewCheckoutSessionRepository(db, logger.Logger)

	// Settlement only reads sessions back, so the checkout URLs are not needed
	gateway := payments.NewStripeGateway(cfg.Stripe.SecretKey, nil)
	enrolmentService := services.NewEnrolmentService(courseRepo, enrolmentRepo, sessionRepo, userRepo, gateway, services.CheckoutConfig{
		Currency: cfg.Stripe.Currency,
	}, logger.Logger)

	// Create Asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				mailer.QueueName: 1,
			},
		},
	)

	// Register task handlers
	sender := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(mailer.TypeSendEmail, mailer.NewSendEmailHandler(sender, logger.Logger))

	// Start worker
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Logger.Fatal("Failed to start worker", zap.Error(err))
		}
	}()

	// Start checkout reconciler
	reconciler := jobs.NewReconciler(sessionRepo, enrolmentService, logger.Logger)
	if err := reconciler.Start(cfg.Worker.ReconcileSchedule); err != nil {
		logger.Logger.Fatal("Failed to start reconciler", zap.Error(err))
	}

	logger.Logger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	reconciler.Stop()
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
