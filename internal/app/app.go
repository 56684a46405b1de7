// Package app provides the unified application lifecycle management for datagroom.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	apihttp "github.com/datagroom/datagroom/internal/api/http"
	"github.com/datagroom/datagroom/internal/archive"
	"github.com/datagroom/datagroom/internal/config"
	"github.com/datagroom/datagroom/internal/csvio"
	"github.com/datagroom/datagroom/internal/executor"
	"github.com/datagroom/datagroom/internal/logging"
	"github.com/datagroom/datagroom/internal/observability"
	"github.com/datagroom/datagroom/internal/parser"
	"github.com/datagroom/datagroom/internal/pipeline"
	"github.com/datagroom/datagroom/internal/retention"
	"github.com/datagroom/datagroom/internal/server"
	"github.com/datagroom/datagroom/internal/storage"
	"github.com/datagroom/datagroom/internal/store"
)

// App manages the datagroom service lifecycle.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	// Shared resources
	storage  storage.ObjectStorage
	store    *store.Store
	archiver *archive.Archiver
	stats    *observability.RunStats
	pipeline *pipeline.Pipeline
	shutdown *server.ShutdownManager

	// Service components
	apiServer       *http.Server
	retentionDaemon *retention.Daemon

	// Lifecycle
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return &App{
		cfg: cfg,
	}, nil
}

// Start initializes shared resources and starts the API server and the
// retention daemon.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.initSharedResources(ctx); err != nil {
		a.abortStart()
		return fmt.Errorf("failed to initialize shared resources: %w", err)
	}

	if err := a.startAPIService(); err != nil {
		a.abortStart()
		return fmt.Errorf("failed to start API service: %w", err)
	}

	if a.cfg.Retention.Enabled {
		if err := a.startRetentionDaemon(ctx); err != nil {
			a.abortStart()
			return fmt.Errorf("failed to start retention daemon: %w", err)
		}
	}

	a.logger.Info("datagroom started",
		zap.String("addr", a.cfg.HTTP.Addr),
		zap.String("data_dir", a.cfg.DataDir),
		zap.Bool("semantic_parser", a.cfg.Parser.SemanticEnabled()))
	return nil
}

// initSharedResources builds the logger, storage, dataset store, and the
// cleaning pipeline shared by all services.
func (a *App) initSharedResources(ctx context.Context) error {
	logger, err := logging.New(a.cfg.Logging.Level, a.cfg.Logging.Format)
	if err != nil {
		return err
	}
	a.logger = logger

	switch a.cfg.Storage.Type {
	case "local":
		a.storage, err = storage.NewLocalStorage(a.cfg.Storage.Path)
	case "s3":
		s3Cfg := storage.DefaultS3Config()
		if a.cfg.Storage.S3.Region != "" {
			s3Cfg.Region = a.cfg.Storage.S3.Region
		}
		if a.cfg.Storage.S3.Endpoint != "" {
			s3Cfg.Endpoint = a.cfg.Storage.S3.Endpoint
		}
		a.storage, err = storage.NewS3Storage(ctx, a.cfg.Storage.S3.Bucket, s3Cfg)
	default:
		return fmt.Errorf("unsupported storage type: %s", a.cfg.Storage.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.logger.Info("storage initialized", zap.String("type", a.cfg.Storage.Type))

	a.store, err = store.New(a.cfg.DatabasePath(), a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dataset store: %w", err)
	}
	a.logger.Info("dataset store initialized", zap.String("path", a.cfg.DatabasePath()))

	a.archiver = archive.New(a.storage, a.logger)

	var strategies []parser.Strategy
	if a.cfg.Parser.SemanticEnabled() {
		strategies = append(strategies, parser.NewSemanticStrategy(parser.SemanticOptions{
			Model:       a.cfg.Parser.Model,
			APIKey:      a.cfg.Parser.APIKey,
			Endpoint:    a.cfg.Parser.Endpoint,
			Temperature: a.cfg.Parser.Temperature,
			Timeout:     a.cfg.Parser.Timeout,
		}))
		a.logger.Info("semantic parser enabled", zap.String("model", a.cfg.Parser.Model))
	}
	strategies = append(strategies, parser.NewPatternStrategy())

	engine, err := parser.New(strategies...)
	if err != nil {
		return fmt.Errorf("failed to initialize parser: %w", err)
	}

	a.stats = observability.NewRunStats()
	a.pipeline = pipeline.New(engine, executor.New(a.logger), a.stats, a.logger)

	csvio.MaxFileSize = a.cfg.Limits.MaxFileSizeBytes()

	a.shutdown = server.NewShutdownManager(server.DefaultShutdownConfig())

	return nil
}

// startAPIService starts the JSON HTTP API server.
func (a *App) startAPIService() error {
	api := apihttp.NewServer(apihttp.Config{
		MaxUploadBytes: a.cfg.Limits.MaxFileSizeBytes(),
		PreviewRows:    a.cfg.Limits.PreviewRows,
	}, a.pipeline, a.store, a.archiver, a.stats, a.logger)

	handler := server.ShutdownMiddleware(a.shutdown)(api)

	a.apiServer = &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info("API server listening", zap.String("addr", a.cfg.HTTP.Addr))
		if err := a.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("API server error", zap.Error(err))
		}
	}()

	return nil
}

// startRetentionDaemon starts the background sweep that prunes expired
// datasets and their archived exports.
func (a *App) startRetentionDaemon(ctx context.Context) error {
	a.retentionDaemon = retention.NewDaemon(retention.Config{
		TTL:           a.cfg.Retention.TTL(),
		CheckInterval: a.cfg.Retention.CheckInterval,
	}, a.store, a.archiver, a.logger)

	if err := a.retentionDaemon.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("retention daemon started",
		zap.Int("ttl_days", a.cfg.Retention.TTLDays),
		zap.Duration("check_interval", a.cfg.Retention.CheckInterval))
	return nil
}

// Stop gracefully stops all services and releases resources.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	a.logger.Info("initiating graceful shutdown")

	if a.cancel != nil {
		a.cancel()
	}

	// Stop the retention daemon first so no sweep races the store close.
	if a.retentionDaemon != nil {
		if err := a.retentionDaemon.Stop(); err != nil {
			a.logger.Warn("retention daemon stop error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Reject new requests and drain the in-flight ones.
	if a.shutdown != nil {
		if err := a.shutdown.Shutdown(shutdownCtx, "service stopping"); err != nil {
			a.logger.Warn("shutdown drain error", zap.Error(err))
		}
	}

	if a.apiServer != nil {
		if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("API server shutdown error", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		a.logger.Warn("shutdown timeout, some goroutines may not have finished")
	}

	a.cleanup()

	a.logger.Info("datagroom stopped")
	return nil
}

// abortStart rolls back a partially started app so Start can be retried.
func (a *App) abortStart() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.apiServer != nil {
		a.apiServer.Close()
		a.apiServer = nil
	}
	a.wg.Wait()
	a.cleanup()
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
}

// cleanup releases all shared resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Warn("store close error", zap.Error(err))
		}
		a.store = nil
	}
}

// WaitForShutdown blocks until a termination signal is received, then starts
// rejecting new requests and draining the in-flight ones. Callers follow up
// with Stop for the full teardown.
func (a *App) WaitForShutdown(ctx context.Context) error {
	return a.shutdown.ListenForSignals(ctx)
}

// Logger exposes the process logger for callers that log after Start.
func (a *App) Logger() *zap.Logger {
	return a.logger
}
