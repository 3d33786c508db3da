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

	"storefront-service/config"
	"storefront-service/internal/analytics"
	"storefront-service/internal/api"
	"storefront-service/internal/blog"
	"storefront-service/internal/broker"
	"storefront-service/internal/catalog"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
	"storefront-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")
	cfg.Log(logger)

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer("storefront-service", cfg.Observ.JaegerEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	ctx := context.Background()

	products, err := catalog.NewSource(cfg.Catalog.ProductsSource).Load(ctx)
	if err != nil {
		logger.Fatal("Failed to load catalog",
			zap.String("source", cfg.Catalog.ProductsSource),
			zap.Error(err))
	}
	logger.Info("Catalog loaded", zap.Int("products", len(products)))

	var checks = map[string]api.ReadinessCheck{}
	var kv store.KV

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := store.NewPostgres(cfg.Storage.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		checks["postgres"] = db.Ping
		kv = db
		logger.Info("Database connected")

	case config.BackendRedis:
		redisClient, err := redisclient.NewClient(cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB, cfg.Storage.KeyPrefix)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		checks["redis"] = redisClient.Ping
		kv = redisClient
		logger.Info("Redis connected")

	default:
		kv = store.NewMemory()
		logger.Warn("Using in-memory storage, client state is lost on restart")
	}
	defer kv.Close()

	var publisher analytics.Publisher
	var producer *broker.Producer
	if cfg.Kafka.Enabled {
		producer = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAnalytics)
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicAnalytics))
	}

	factory := service.NewFactory(kv, products, publisher, service.Options{PageSize: cfg.Catalog.PageSize})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var moderationWorker *worker.ModerationWorker
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicModeration, cfg.Kafka.ConsumerGroup)
		moderationWorker = worker.NewModerationWorker(consumer, factory)
		go func() {
			if err := moderationWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Moderation worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(factory, blog.NewClient(cfg.Blog.BaseURL, cfg.Blog.Timeout))
	for name, check := range checks {
		handler.AddReadinessCheck(name, check)
	}
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if moderationWorker != nil {
		if err := moderationWorker.Stop(); err != nil {
			logger.Error("Error stopping moderation worker", zap.Error(err))
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("Error closing Kafka producer", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
