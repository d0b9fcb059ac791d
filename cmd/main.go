package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tonnahe171051/poolmate-sub002/brackets"
	"github.com/tonnahe171051/poolmate-sub002/config"
	"github.com/tonnahe171051/poolmate-sub002/db"
	"github.com/tonnahe171051/poolmate-sub002/handlers"
	"github.com/tonnahe171051/poolmate-sub002/metrics"
	"github.com/tonnahe171051/poolmate-sub002/repositories"
	api "github.com/tonnahe171051/poolmate-sub002/routes"
	"github.com/tonnahe171051/poolmate-sub002/services"
	"github.com/tonnahe171051/poolmate-sub002/storage"
)

// @title Poolmate Bracket API
// @version 1.0
// @description Сетки турниров по пулу: построение, ввод результатов, исправления.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(logger); err != nil {
		logger.Error("application stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage", cfg.StorageDriver),
		slog.Bool("redis_locks", cfg.RedisEnabled()),
		slog.Bool("archive", cfg.ArchiveEnabled()))

	// Хранилище турниров и матчей
	var store repositories.Store
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		store = repositories.NewMemoryStore()
		logger.Warn("using in-memory storage, data is lost on restart")
	default:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer closeDB(logger, dbConn)
		logger.Info("database connection established")

		if cfg.RunMigrations {
			if err := db.Migrate(ctx, dbConn); err != nil {
				return err
			}
			logger.Info("database migrations applied")
		}
		store = repositories.NewPostgresStore(dbConn)
	}

	// Блокировки матчей
	var locks storage.MatchLockStore
	if cfg.RedisEnabled() {
		redisClient, err := storage.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		locks = storage.NewRedisMatchLockStore(redisClient)
		logger.Info("redis match lock store initialized")
	} else {
		locks = storage.NewMemoryMatchLockStore(time.Now)
	}

	// Инициализация WebSocket Hub
	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(hubCtx)
	logger.Info("WebSocket Hub started")

	notifier := services.MultiNotifier{wsHub}
	if cfg.ArchiveEnabled() {
		objects, err := storage.NewCloudflareR2Store(ctx, storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
			Endpoint:        cfg.R2Endpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 store: %w", err)
		}
		notifier = append(notifier, services.NewArchiveNotifier(store, objects, cfg.ArchivePrefix))
		logger.Info("bracket snapshot archive enabled", slog.String("bucket", cfg.R2BucketName))
	}

	m := metrics.New()

	// Инициализация сервисов
	tournamentService := services.NewTournamentService(store, logger)
	bracketService := services.NewBracketService(store, notifier, m, logger)
	matchService := services.NewMatchService(store, locks, cfg.MatchLockTTL, notifier, m, logger)
	stageService := services.NewStageService(store, notifier, logger)
	logger.Info("services initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Options{
		JWTSecret:         cfg.JWTSecretKey,
		AllowedOrigins:    cfg.AllowedOrigins,
		Metrics:           m.Handler(),
		TournamentHandler: handlers.NewTournamentHandler(tournamentService, stageService, logger),
		BracketHandler:    handlers.NewBracketHandler(bracketService, logger),
		MatchHandler:      handlers.NewMatchHandler(matchService, logger),
		StageHandler:      handlers.NewStageHandler(stageService, matchService, logger),
		WebSocketHandler:  handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.AllowedOrigins, logger),
	})

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
	if err := server.Shutdown(shutdownCtx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}

func closeDB(logger *slog.Logger, dbConn *sql.DB) {
	if err := dbConn.Close(); err != nil {
		logger.Error("failed to close database connection", slog.Any("error", err))
		return
	}
	logger.Info("database connection closed")
}
