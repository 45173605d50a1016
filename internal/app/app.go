package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"curaconnect_backend/database"
	"curaconnect_backend/internal/config"
	"curaconnect_backend/internal/email"
	"curaconnect_backend/internal/events"
	"curaconnect_backend/internal/handlers"
	"curaconnect_backend/internal/logger"
	"curaconnect_backend/internal/middleware"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/repositories"
	"curaconnect_backend/internal/routes"
	"curaconnect_backend/internal/services"
	"curaconnect_backend/internal/validator"
	"curaconnect_backend/internal/workers"
	"curaconnect_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Application - собранный граф зависимостей
type Application struct {
	Router    *gin.Engine
	Services  *services.ServiceContainer
	WSManager *ws.WebSocketManager
	Outbox    *workers.OutboxWorker
	Publisher events.Publisher
}

func Run() {
	cfg := config.GetConfig()
	logger.Init(cfg.Server.Env)
	defer logger.Sync()
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected")

	if cfg.Database.RunMigrations {
		sqlDB, err := gormDB.DB()
		if err != nil {
			logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
		}
		migrator, err := database.NewMigrator(sqlDB)
		if err != nil {
			logger.Fatal("Failed to create migrator", "error", err)
		}
		if err := migrator.Run(ctx); err != nil {
			logger.Fatal("Failed to apply migrations", "error", err)
		}
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize event publisher", "error", err)
	}

	application := Build(cfg, gormDB, newMailer(cfg), publisher)
	application.Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	application.Close()
}

// Build собирает сервисы, хэндлеры, websocket и воркеры.
// mailer может быть nil; publisher обязателен.
func Build(cfg *config.Config, gormDB *gorm.DB, mailer email.Provider, publisher events.Publisher) *Application {
	container := services.NewServiceContainer(cfg, mailer)
	appHandlers := handlers.NewAppHandlers(container, validator.New())

	wsManager := ws.NewWebSocketManager(gormDB, container.NotificationService)
	container.Dispatcher.SetRealtime(wsManager)
	wsHandler := ws.NewWebSocketHandler(wsManager, cfg.CORS.AllowedOrigins)

	ginRouter := initializeGinRouter(cfg, gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler, middleware.AuthMiddleware(cfg))

	outbox := workers.NewOutboxWorker(gormDB, repositories.NewOutboxRepository(), publisher, workers.OutboxWorkerConfig{
		Interval:    cfg.OutboxInterval(),
		BatchSize:   cfg.Outbox.BatchSize,
		MaxAttempts: cfg.Outbox.MaxAttempts,
		Retention:   cfg.OutboxRetention(),
	})

	return &Application{
		Router:    ginRouter,
		Services:  container,
		WSManager: wsManager,
		Outbox:    outbox,
		Publisher: publisher,
	}
}

// SetupRouter - роутер без фоновых задач (используется в тестах)
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	return Build(cfg, gormDB, &MockEmailProvider{}, events.NewLogPublisher()).Router
}

// Start запускает websocket manager и outbox воркер, оба останавливаются по ctx
func (a *Application) Start(ctx context.Context) {
	go a.WSManager.Run(ctx)
	a.Outbox.Start(ctx)
}

func (a *Application) Close() {
	if err := a.Publisher.Close(); err != nil {
		logger.Warn("Failed to close event publisher", "error", err)
	}
	if a.Services.EmailService != nil {
		_ = a.Services.EmailService.Close()
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.DBMiddleware(db))
	return router
}

func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if !cfg.Kafka.Enabled {
		logger.Warn("Kafka is disabled, outbox events are only logged")
		return events.NewLogPublisher(), nil
	}
	publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers)
	if err != nil {
		return nil, err
	}
	logger.Info("Kafka publisher initialized", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return publisher, nil
}

func newMailer(cfg *config.Config) email.Provider {
	if !cfg.Email.Enabled {
		logger.Warn("Email is disabled, admin escalations are only logged")
		return &MockEmailProvider{}
	}

	provider := email.NewSMTPProvider(&email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	}, email.NewTemplateManager())
	if err := provider.Validate(); err != nil {
		logger.Fatal("Invalid SMTP configuration", "error", err)
	}
	return provider
}

// seedFirstAdmin создает администратора из конфигурации, если его еще нет.
// Пароля нет: токены выдает внешний auth-сервис.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdmin.Email
	if adminEmail == "" {
		logger.Warn("FIRST_ADMIN_EMAIL is not set. Skipping admin seeding.")
		return nil
	}

	userRepo := repositories.NewUserRepository()

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	existing, err := userRepo.FindByEmail(tx, adminEmail)
	if err == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", existing.Email, "role", existing.Role)
		return nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	admin := &models.User{
		Email: adminEmail,
		Name:  cfg.FirstAdmin.Name,
		Role:  models.UserRoleAdmin,
	}
	if err := userRepo.Create(tx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}
	logger.Info("Created first admin user", "email", admin.Email, "id", admin.ID)
	return nil
}
