package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"medivault-server/internal/config"
	"medivault-server/internal/logger"
	"medivault-server/internal/mailer"
	"medivault-server/internal/middleware"
	"medivault-server/internal/models"
	"medivault-server/internal/repositories"
	"medivault-server/internal/routes"
	"medivault-server/internal/services"
	"medivault-server/internal/utils"
)

type repositorySet struct {
	appointments repositories.AppointmentRepository
	messages     repositories.MessageRepository
	users        repositories.UserRepository
}

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logr, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()
	if envErr != nil {
		logr.Info("no .env file loaded, using process environment", zap.Error(envErr))
	}

	repos, err := openRepositories(cfg, logr)
	if err != nil {
		logr.Fatal("error opening repositories", zap.Error(err))
	}

	sender, err := mailer.NewSender(cfg.Mailer.Transport, logr)
	if err != nil {
		logr.Fatal("error configuring mailer", zap.Error(err))
	}
	relay := services.NewAsyncRelay(
		services.NewEmailNotifier(repos.users, sender, cfg.Mailer.DefaultFrom),
		cfg.Mailer.QueueSize,
		logr.Named("notifications"),
	)

	appointmentService := services.NewAppointmentService(repos.appointments, repos.users, relay, logr.Named("appointments"))
	chatService := services.NewChatService(repos.messages, repos.users, cfg.Chat.HistoryLimit, logr.Named("chat"))
	dashboardService := services.NewDashboardService(appointmentService, chatService, cfg.Scheduling.Location)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := services.NewFinishSweeper(appointmentService, cfg.Scheduling.FinishSweepInterval, logr.Named("sweeper"))
	sweeperDone := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(sweeperDone)
	}()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logr.Named("http")))

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Dependencies{
		JWTSecret:    cfg.JWTSecret,
		Location:     cfg.Scheduling.Location,
		Appointments: appointmentService,
		Chat:         chatService,
		Dashboard:    dashboardService,
		Logger:       logr.Named("http"),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server running", zap.String("port", cfg.Port), zap.String("db_driver", cfg.Database.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	<-sweeperDone
	relay.Close()
}

func openRepositories(cfg *config.Config, logr *zap.Logger) (*repositorySet, error) {
	if cfg.Database.Driver == "memory" {
		users := repositories.NewMemoryUserRepository(demoUsers()...)
		logDemoTokens(cfg, logr, users)
		return &repositorySet{
			appointments: repositories.NewMemoryAppointmentRepository(),
			messages:     repositories.NewMemoryMessageRepository(),
			users:        users,
		}, nil
	}

	level := gormlogger.Warn
	if cfg.Environment != "production" && cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}
	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN, LogLevel: level})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &repositorySet{
		appointments: repositories.NewGormAppointmentRepository(db),
		messages:     repositories.NewGormMessageRepository(db),
		users:        repositories.NewGormUserRepository(db),
	}, nil
}

func demoUsers() []models.User {
	return []models.User{
		{
			BaseModel: models.BaseModel{ID: "00000000-0000-0000-0000-00000000d0c1"},
			Email:     "doctor@medivault.local",
			FirstName: "Ada",
			LastName:  "Morgan",
			Role:      models.RoleDoctor,
			Specialty: "General Practice",
		},
		{
			BaseModel: models.BaseModel{ID: "00000000-0000-0000-0000-0000000a71e1"},
			Email:     "patient@medivault.local",
			FirstName: "Sam",
			LastName:  "Rivera",
			Role:      models.RolePatient,
		},
	}
}

// logDemoTokens prints bearer tokens for the in-memory demo accounts so the
// API can be exercised without the identity service.
func logDemoTokens(cfg *config.Config, logr *zap.Logger, users repositories.UserRepository) {
	ttl := time.Duration(cfg.JWTExpirationMinutes) * time.Minute
	for _, role := range []models.Role{models.RoleDoctor, models.RolePatient} {
		accounts, err := users.ListByRole(context.Background(), role)
		if err != nil {
			continue
		}
		for _, u := range accounts {
			token, err := utils.GenerateAccessToken(u.ID, u.Role, cfg.JWTSecret, ttl)
			if err != nil {
				logr.Warn("failed to sign demo token", zap.String("user_id", u.ID), zap.Error(err))
				continue
			}
			logr.Info("demo account", zap.String("user_id", u.ID), zap.String("role", string(u.Role)), zap.String("token", token))
		}
	}
}
