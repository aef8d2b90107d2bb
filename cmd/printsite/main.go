package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"printsite/internal/config"
	"printsite/internal/content"
	"printsite/internal/handlers"
	"printsite/internal/images"
	"printsite/internal/middleware"
	"printsite/internal/router"
	"printsite/internal/storage"
	"printsite/internal/storage/sqlite"
	"printsite/internal/telemetry"
)

type App struct {
	Server *http.Server
	Logger *slog.Logger
	Config *config.Config
	Store  storage.Store
	Tel    *telemetry.Telemetry
}

func NewApp(cfg *config.Config, logger *slog.Logger, store storage.Store, tel *telemetry.Telemetry, handler http.Handler) (*App, error) {

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeouts.Read,
		WriteTimeout: cfg.HTTP.Timeouts.Write,
		IdleTimeout:  cfg.HTTP.Timeouts.Idle,
	}

	return &App{
		Server: server,
		Logger: logger,
		Config: cfg,
		Store:  store,
		Tel:    tel,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srvErrChan := make(chan error, 1)

	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErrChan <- err
		}
	}()

	select {
	case err := <-srvErrChan:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	}

	// attempt clean shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.Timeouts.Shutdown)
	defer cancel()

	a.Logger.Info("draining connections...")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		// graceful shutdown timed out
		if closeErr := a.Server.Close(); closeErr != nil {
			return fmt.Errorf("graceful shutdown failed: %w", errors.Join(err, closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	if err := a.Store.Close(); err != nil {
		a.Logger.Error("closing store", "err", err)
	}
	if err := a.Tel.Shutdown(context.Background()); err != nil {
		a.Logger.Error("closing telemetry", "err", err)
	}

	a.Logger.Info("server stopped")
	return nil
}

func newFileStore(cfg *config.Config) (storage.Provider, error) {
	switch cfg.Uploads.Backend {
	case "s3":
		s3Store, err := storage.NewS3Store(storage.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	default:
		localStore, err := storage.NewLocalStorage(cfg.Uploads.LocalDir)
		if err != nil {
			return nil, err
		}
		return localStore, nil
	}
}

func main() {
	cfg := config.LoadWithDefaults()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	stderr := os.Stderr
	logHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Logger.Level})
	logger := slog.New(logHandler).With("app", cfg.App.Name)

	logger.Info("application starting", "pid", os.Getpid())
	logger.Info("configuration loaded",
		"name", cfg.App.Name,
		"env", cfg.App.Environment,
		"port", cfg.HTTP.Port,
		"db", cfg.DB.Path,
		"uploads_backend", cfg.Uploads.Backend,
		"rate_limit_rps", cfg.Limiter.RPS,
		"trusted_proxy", cfg.Proxy.Trusted,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(rootCtx, cfg.App.Name, "1.0.0", cfg.App.Environment,
		cfg.Metrics.OtelEndpoint, cfg.Metrics.EnableTelemetry, logger)
	if err != nil {
		logger.Error("telemetry init failed", "err", err)
		os.Exit(1)
	}

	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		logger.Error("metrics init failed", "err", err)
		os.Exit(1)
	}

	store, err := sqlite.NewStore(cfg.DB.Path)
	if err != nil {
		logger.Error("could not open database", "err", err)
		os.Exit(1)
	}
	if err := store.Migrate(cfg.DB.MigrationsPath); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	fileStore, err := newFileStore(cfg)
	if err != nil {
		logger.Error("could not initialise file storage", "err", err)
		os.Exit(1)
	}

	var variants *images.Processor
	if cfg.Uploads.VariantWorkers > 0 {
		variants = images.NewProcessor(rootCtx, fileStore, cfg.Uploads.VariantWorkers, metrics, logger)
	}

	pipeline := images.NewPipeline(fileStore, store, cfg.App.BaseURL, variants, metrics, logger)
	renderer := content.NewRenderer(store)
	markdown := content.NewMarkDownRenderer()

	// optional editorial seed content shipped alongside the binary
	if cfg.App.SeedDir != "" {
		seeder := content.NewSeeder(store, logger)
		files, err := filepath.Glob(filepath.Join(cfg.App.SeedDir, "*.md"))
		if err != nil {
			logger.Error("failed to scan seed dir", "err", err)
		} else if len(files) > 0 {
			// owned by the system user the first migration seeds
			if err := seeder.SeedFromDisk(rootCtx, files, 1); err != nil {
				logger.Error("blog seeding failed", "err", err)
			}
		}
	}

	limiter := middleware.NewIPRateLimiter(rootCtx, cfg.Limiter.RPS, cfg.Limiter.Burst, cfg.Proxy.Trusted, metrics)

	handler := router.NewRouter(router.RouterDependencies{
		Cfg:    cfg,
		Logger: logger,
		BlogHandler: &handlers.BlogHandler{
			Store: store, Markdown: markdown, Logger: logger,
		},
		ServiceHandler: &handlers.ServiceHandler{
			Store: store, Pipeline: pipeline, Logger: logger,
		},
		PrintingHandler: &handlers.PrintingHandler{
			Store: store, Pipeline: pipeline, Renderer: renderer, Files: fileStore, Logger: logger,
		},
		BannerHandler: &handlers.BannerHandler{
			Store: store, Pipeline: pipeline, Logger: logger,
		},
		ImageHandler: &handlers.ImageHandler{
			Store: store, Pipeline: pipeline, Logger: logger,
		},
		UserHandler: &handlers.UserHandler{
			Store: store, Logger: logger,
		},
		Limiter: limiter,
		Tracer:  tel.Tracer,
		Metrics: metrics,
	})

	// initialise
	app, err := NewApp(cfg, logger, store, tel, handler)
	if err != nil {
		logger.Error("server initialise", "err", err)
		os.Exit(1)
	}

	// run the app with context
	if err := app.Run(rootCtx); err != nil {
		logger.Error("server crashed", "err", err)
		os.Exit(1)
	}

	logger.Info("application exited successfully")
	os.Exit(0)
}
