package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PulseOpsPlatform/pkg/config"
	"PulseOpsPlatform/pkg/database"
	"PulseOpsPlatform/pkg/errors"
	"PulseOpsPlatform/pkg/health"
	"PulseOpsPlatform/pkg/logger"
	pkg_metrics "PulseOpsPlatform/pkg/metrics"
	pkg_rabbitmq "PulseOpsPlatform/pkg/rabbitmq"
	pkg_redis "PulseOpsPlatform/pkg/redis"

	"PulseOpsPlatform/internal/handler"
	incidentMetrics "PulseOpsPlatform/internal/metrics"
	"PulseOpsPlatform/internal/middleware"
	incidentProducer "PulseOpsPlatform/internal/producer/rabbitmq"
	"PulseOpsPlatform/internal/repository/postgres"
	"PulseOpsPlatform/internal/service"
)

const serviceName = "incident-logger"

// resolveConfigFile возвращает путь к файлу конфигурации.
// При отсутствии файла конфигурация собирается из значений
// по умолчанию и переменных окружения.
func resolveConfigFile() string {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config/config.yaml"
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func main() {
	// Инициализация конфигурации
	cfg, err := config.LoadConfig(resolveConfigFile())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	appLogger, err := logger.NewLogger(cfg.Environment, cfg.Logger.Level, serviceName)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() {
		if err := appLogger.Sync(); err != nil {
			log.Printf("Error syncing logger: %v", err)
		}
	}()

	appLogger.Info("Starting Incident Logger service")

	// Инициализация метрик и OpenTelemetry
	metrics := incidentMetrics.NewIncidentMetrics(serviceName, nil)
	if err := pkg_metrics.InitializeOpenTelemetry(serviceName); err != nil {
		appLogger.Warn("Failed to initialize tracing", logger.Error(err))
	}

	// Инициализация PostgreSQL
	dbConfig := database.NewConfig()
	dbConfig.Host = cfg.Database.Host
	dbConfig.Port = cfg.Database.Port
	dbConfig.User = cfg.Database.User
	dbConfig.Password = cfg.Database.Password
	dbConfig.Database = cfg.Database.Name

	ctx := context.Background()

	db, err := database.Connect(ctx, dbConfig)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	incidentRepo := postgres.NewIncidentRepository(db.Pool)
	if err := incidentRepo.InitSchema(ctx); err != nil {
		appLogger.Error("Failed to initialize database schema", logger.Error(err))
		os.Exit(1)
	}

	readyDeps := map[string]health.DependencyChecker{
		"postgres": db,
	}

	// Инициализация Redis, недоступность не фатальна
	var redisClient *pkg_redis.Client
	redisConfig := pkg_redis.NewConfig()
	redisConfig.Addr = cfg.Redis.Addr
	redisConfig.Password = cfg.Redis.Password
	redisConfig.DB = cfg.Redis.DB

	redisClient, err = pkg_redis.Connect(ctx, redisConfig)
	if err != nil {
		appLogger.Warn("Failed to connect to Redis, rate limiting disabled", logger.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		readyDeps["redis"] = redisClient
	}

	// Инициализация RabbitMQ, недоступность не фатальна
	var producer incidentProducer.EventProducer
	rabbitConfig := pkg_rabbitmq.NewConfig()
	rabbitConfig.URL = cfg.RabbitMQ.URL
	rabbitConfig.Exchange = cfg.RabbitMQ.Exchange

	rabbitConn, err := pkg_rabbitmq.Connect(ctx, rabbitConfig)
	if err != nil {
		appLogger.Warn("Failed to connect to RabbitMQ, event publishing disabled", logger.Error(err))
	} else {
		defer rabbitConn.Close()
		readyDeps["rabbitmq"] = rabbitConn

		p, err := incidentProducer.NewIncidentProducer(rabbitConn, cfg.RabbitMQ.Exchange, appLogger)
		if err != nil {
			appLogger.Warn("Failed to create incident producer, event publishing disabled", logger.Error(err))
		} else {
			defer p.Close()
			producer = p
		}
	}

	// Инициализация сервисов
	incidentService := service.NewIncidentService(incidentRepo, metrics, producer, appLogger)
	webhookService := service.NewWebhookService(incidentService, metrics, appLogger)

	// Инициализация HTTP обработчиков
	httpHandler := handler.NewHTTPHandler(appLogger, incidentService, webhookService)

	mux := http.NewServeMux()
	httpHandler.RegisterRoutes(mux)
	mux.Handle("/metrics", metrics.GetBaseMetrics().GetHandler())
	mux.HandleFunc("/health", health.Handler(health.NewSimpleHealthChecker("1.0.0")))
	mux.HandleFunc("/health/ready", health.ReadyHandler(readyDeps))
	mux.HandleFunc("/health/live", health.LiveHandler())

	// Сборка цепочки middleware
	var root http.Handler = mux
	if redisClient != nil {
		rateLimit := middleware.NewRateLimitMiddleware(redisClient, appLogger)
		root = rateLimit.RateLimit(cfg.RateLimiting.RequestsPerMinute, time.Minute)(root)
	}
	root = metrics.GetBaseMetrics().Middleware(root)
	root = errors.Middleware(root)

	listenAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         listenAddr,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	serverCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		appLogger.Info("Starting HTTP server", logger.String("addr", listenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed", logger.Error(err))
			cancel()
		}
	}()

	select {
	case sig := <-sigChan:
		appLogger.Info("Received shutdown signal", logger.String("signal", sig.String()))
	case <-serverCtx.Done():
		appLogger.Error("Server stopped unexpectedly")
		os.Exit(1)
	}

	appLogger.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("Shutdown timeout, forcing server stop", logger.Error(err))
		server.Close()
	}

	appLogger.Info("Incident Logger service stopped")
}
