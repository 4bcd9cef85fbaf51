package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"signal-engine/internal/engine/config"
	"signal-engine/internal/engine/delivery/consumer"
	delivery "signal-engine/internal/engine/delivery/http"
	"signal-engine/internal/engine/parser"
	"signal-engine/internal/engine/repository"
	"signal-engine/internal/engine/service"
	"signal-engine/pkg/common"
	"signal-engine/pkg/logger"
	"signal-engine/pkg/postgres"
	"signal-engine/pkg/redis"
	"signal-engine/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the signal engine",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Signal Engine", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		StreamMaxLen: cfg.Redis.StreamMaxLen,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Create the consumer groups if they don't exist. MKSTREAM creates
	// the stream as well.
	for _, stream := range []string{common.RedisStreamBulletinIngest, common.RedisStreamAutoCancel} {
		if err := redisClient.XGroupCreateMkStream(context.Background(), stream, common.RedisStreamGroup, "0").Err(); err != nil {
			if err.Error() != "BUSYGROUP Consumer Group name already exists" {
				appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err), logger.StringField("stream", stream))
			}
		}
	}

	// Initialize repositories
	bulletinRepo := repository.NewBulletinRepository(db.DB)
	signalRepo := repository.NewSignalRepository(db.DB)
	cycleRepo := repository.NewCycleRecordRepository(db.DB)
	targetRepo := repository.NewPriceTargetRepository(db.DB)
	stateRepo := repository.NewEffectiveStateRepository(db.DB)
	priceRepo := repository.NewPriceRepository(db.DB)

	registry := parser.NewRegistry()

	// The LLM fallback is optional; without a provider the grammar
	// extractor runs alone.
	var aiRepo repository.SignalExtractor
	if cfg.AI.Provider == "gemini" {
		genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", logger.ErrorField(err))
		}
		aiRepo, err = repository.NewGeminiAIRepository(cfg, appLogger, registry, genAiClient)
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI repository", logger.ErrorField(err))
		}
	}

	var telegramNotifier telegram.Notifier
	if cfg.Telegram.Enabled {
		telegramNotifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Initialize services. The shared mutex is the single-writer
	// boundary: every store write happens under it.
	var storeMu sync.Mutex
	stateSvc := service.NewStateService(signalRepo, stateRepo, appLogger, cfg.Engine.StateCacheTTL)
	ingestionSvc := service.NewIngestionService(&storeMu, appLogger, registry, aiRepo, bulletinRepo, signalRepo, cycleRepo, targetRepo, stateSvc, telegramNotifier)
	autoCancelSvc := service.NewAutoCancelService(&storeMu, appLogger, bulletinRepo, signalRepo, stateRepo, priceRepo, stateSvc, telegramNotifier)
	schedulerSvc := service.NewSchedulerService(cfg, redisClient.Client, appLogger)

	if err := schedulerSvc.Start(ctx); err != nil {
		appLogger.Fatal("Failed to start scheduler", logger.ErrorField(err))
	}
	defer schedulerSvc.Stop()

	// Initialize and start the Redis consumer
	redisConsumer := consumer.NewRedisConsumer(cfg, redisClient.Client, ingestionSvc, autoCancelSvc, appLogger)
	redisConsumer.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	bulletinHandler := delivery.NewBulletinHandler(cfg, redisClient.Client, bulletinRepo, appLogger)
	bulletinHandler.RegisterRoutes(e.Group("/bulletins"))

	stateHandler := delivery.NewStateHandler(stateSvc)
	stateHandler.RegisterRoutes(e.Group("/states"))

	signalHandler := delivery.NewSignalHandler(signalRepo, cycleRepo, targetRepo)
	signalHandler.RegisterRoutes(e)

	priceHandler := delivery.NewPriceHandler(cfg, redisClient.Client, priceRepo, appLogger)
	priceHandler.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down...")
	redisConsumer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Signal engine exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "engine"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing engine CLI: %s\n", err)
		os.Exit(1)
	}
}
