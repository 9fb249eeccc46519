package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meela-intake/config"
	"meela-intake/consumer"
	"meela-intake/handlers"
	"meela-intake/models"
	"meela-intake/monitoring"
	"meela-intake/routes"
	"meela-intake/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	err = run(cfg, logger)
	if err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run поднимает зависимости и сервер. Отложенные закрытия выполняются при любом исходе.
func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.SentryDSN != "" {
		if err := utils.InitSentry(cfg.SentryDSN, cfg.Env, cfg.AppVersion, cfg.TracesSampleRate); err != nil {
			logger.Error("sentry disabled", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	monitoring.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeWithLog(logger, "storage", repo.Close)

	// Redis, Kafka и Elasticsearch необязательны: без адреса сервис работает без них
	var cache utils.RedisClient
	if addr := cfg.RedisAddr(); addr != "" {
		cache, err = utils.Connect(ctx, logger, "redis", cfg.ConnectAttempts, cfg.ConnectDelay, func() (utils.RedisClient, error) {
			return utils.NewRedisClient(addr, cfg.RedisPassword)
		})
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer closeWithLog(logger, "redis", cache.Close)
	}

	var producer utils.KafkaProducer
	if cfg.KafkaBroker != "" {
		producer, err = utils.Connect(ctx, logger, "kafka", cfg.ConnectAttempts, cfg.ConnectDelay, func() (utils.KafkaProducer, error) {
			return utils.NewKafkaProducer(cfg.KafkaBroker, cfg.KafkaTopic)
		})
		if err != nil {
			return fmt.Errorf("failed to initialize kafka producer: %w", err)
		}
		defer closeWithLog(logger, "kafka producer", producer.Close)
	}

	var es utils.ElasticsearchClient
	if cfg.ElasticsearchURL != "" {
		es, err = utils.Connect(ctx, logger, "elasticsearch", cfg.ConnectAttempts, cfg.ConnectDelay, func() (utils.ElasticsearchClient, error) {
			return utils.NewElasticsearchClient(cfg.ElasticsearchURL)
		})
		if err != nil {
			return fmt.Errorf("failed to initialize elasticsearch: %w", err)
		}
		defer closeWithLog(logger, "elasticsearch", es.Close)
	}

	if producer != nil && es != nil {
		indexer := consumer.NewFormConsumer(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaGroupID, es, cfg.SearchIndex, logger)
		indexer.Start(ctx)
		defer indexer.Stop()
	}

	router := routes.NewRouter(routes.Options{
		Forms: handlers.NewFormHandler(handlers.FormHandlerConfig{
			Repo:     repo,
			Cache:    cache,
			Kafka:    producer,
			CacheTTL: cfg.CacheTTL,
			Logger:   logger,
		}),
		Search:          handlers.NewSearchHandler(es, cfg.SearchIndex),
		Health:          handlers.NewHealthHandler(repo, cache),
		Logger:          logger,
		AllowOrigins:    cfg.CORSAllowOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server is running", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

func openRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (models.Repository, error) {
	if cfg.StorageBackend == config.StorageMemory {
		logger.Warn("using in-memory storage, forms are lost on restart")
		return models.NewMemoryRepository(), nil
	}
	return utils.Connect(ctx, logger, "postgres", cfg.ConnectAttempts, cfg.ConnectDelay, func() (models.Repository, error) {
		repo, err := models.NewPostgresRepository(cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		return repo, nil
	})
}

func closeWithLog(logger *zap.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("error closing connection", zap.String("service", name), zap.Error(err))
	}
}
