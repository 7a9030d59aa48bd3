package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/alkotekaworker/config"
	"sjsage522/alkotekaworker/helpers"
	"sjsage522/alkotekaworker/internal/codec"
	"sjsage522/alkotekaworker/internal/engine"
	"sjsage522/alkotekaworker/internal/feed"
	"sjsage522/alkotekaworker/internal/observability"
	"sjsage522/alkotekaworker/internal/spider"
	"sjsage522/alkotekaworker/internal/storage"
	"sjsage522/alkotekaworker/logger"
	"sjsage522/alkotekaworker/services/cache"
	"sjsage522/alkotekaworker/services/publisher"
	"sjsage522/alkotekaworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("city", cfg.City).
		Strs("start_urls", cfg.StartURLs).
		Dur("crawl_interval", cfg.CrawlInterval).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize services")
		return err
	}
	defer services.Cleanup()

	w := worker.NewWorker(
		ctx,
		newCrawler(cfg, services),
		services.Sinks,
		helpers.NewLogger(cfg.ErrorLogFile),
		cfg.CrawlInterval,
	)
	defer w.Close()

	log.Info().
		Int("sink_count", len(services.Sinks)).
		Str("codec", services.Codec.Name()).
		Msg("Created crawler")

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting alkoteka worker")
		workerDone <- w.Start()
	}()

	// Wait for shutdown signal or worker error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		err = <-workerDone
	case err = <-workerDone:
	}

	switch {
	case err == nil || errors.Is(err, context.Canceled):
		log.Info().Msg("Worker exited normally")
		err = nil
	default:
		log.Error().Err(err).Msg("Worker exited with error")
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	return err
}

// Services holds all the initialized services
type Services struct {
	Cache   cache.CacheService
	Codec   codec.Codec
	Sinks   []worker.Sink
	Metrics *http.Server
}

// Cleanup stops the metrics listener. Sinks are closed by the worker.
func (s *Services) Cleanup() {
	observability.Shutdown(s.Metrics)
}

func (s *Services) closeSinks() {
	for _, sink := range s.Sinks {
		sink.Close()
	}
}

// initializeServices initializes the cache, the codec and every configured sink
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	c, err := codec.New(cfg.JSONCodec)
	if err != nil {
		return nil, err
	}
	services.Codec = c

	// Initialize cache service
	if cfg.MemcacheAddr != "" {
		memcache := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcache.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to memcache: %w", err)
		}
		services.Cache = memcache
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	} else {
		services.Cache = cache.NewMemoryService()
	}

	if cfg.OutputPath != "" && cfg.OutputPath != config.OutputDisabled {
		services.Sinks = append(services.Sinks, feed.NewExporter(cfg.OutputPath, c))
		logger.Info("Writing feed to %s", cfg.OutputPath)
	}

	// Initialize publisher
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			redisPublisher.Close()
			services.closeSinks()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		services.Sinks = append(services.Sinks, publisher.NewProductSink(redisPublisher, c))
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	if cfg.DatabaseURL != "" {
		store, err := storage.NewProductStore(ctx, cfg.DatabaseURL, c)
		if err == nil {
			err = store.EnsureSchema(ctx)
			if err != nil {
				store.Close()
			}
		}
		if err != nil {
			services.closeSinks()
			return nil, err
		}
		services.Sinks = append(services.Sinks, store)
		logger.Info("Connected to PostgreSQL")
	}

	if len(services.Sinks) == 0 {
		logger.Warn("No sinks configured, crawled products will only be counted")
	}

	if cfg.MetricsPort != "" {
		services.Metrics = observability.Start(cfg.MetricsPort)
	}

	return services, nil
}

// newCrawler binds the catalog spider to a fetch engine
func newCrawler(cfg *config.Config, services *Services) *engine.Crawler {
	sp := spider.New(spider.Config{
		APIBaseURL: cfg.APIBaseURL,
		City:       cfg.City,
		StartURLs:  cfg.StartURLs,
		PerPage:    cfg.PerPage,
		MaxPages:   cfg.MaxPages,
	}, services.Codec)

	e := engine.New(engine.Config{
		Concurrency:  cfg.Concurrency,
		RequestDelay: cfg.RequestDelay,
		MaxRetries:   cfg.MaxRetries,
	}, engine.NewHTTPFetcher(cfg.RequestTimeout), engine.NewGate(services.Cache, cfg.BlockTime))

	return e.With(sp)
}
