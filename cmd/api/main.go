package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"historicalmap/docs"
	"historicalmap/internal/config"
	"historicalmap/internal/database"
	"historicalmap/internal/database/migration"
	handlers "historicalmap/internal/http/handler"
	"historicalmap/internal/http/middleware"
	hlog "historicalmap/internal/log"
	"historicalmap/internal/otel"
	"historicalmap/internal/repository/sqlstore"
	"historicalmap/internal/service"
	"historicalmap/internal/storage"
	"historicalmap/internal/tile"
	"historicalmap/internal/watcher"
	"historicalmap/internal/worker"
)

// @title Historical Map API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		base := hlog.Base()
		base.Fatal().Err(err).Msg("failed to load configuration")
	}

	sink := hlog.NewSink(cfg.Log.BufferSize)
	hlog.Configure(hlog.Config{Level: cfg.Log.Level, Sink: sink})
	logger := hlog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	db, dialect, err := database.Open(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, dialect, database.Target(cfg.Database)); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	queue, err := worker.New(cfg.WorkerQueueSize, reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start worker")
	}

	tileStore, closeStore, err := storage.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tile store")
	}
	defer closeStore()

	source, err := tile.NewURLSource(cfg.Tile)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid tile source")
	}
	engines := tile.DefaultEngines()
	engine, err := engines.Lookup(cfg.Tile.Engine)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid tile engine")
	}
	loader, err := tile.NewLoader(source, tileStore, engine, cfg.Tile.MemoryLimit, reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tile loader")
	}

	// Initialize repositories and services
	repo := sqlstore.NewHistoricalSQL(db, dialect)
	data := service.NewDataManager(repo, queue, cfg.DataCacheSize)
	sources := service.NewSourceService()
	selector := service.NewSelector()
	exchange := service.NewExchangeService(sources, selector, nil)
	svc := handlers.Services{
		Years:    service.NewYearService(),
		Data:     data,
		Sources:  sources,
		Saver:    service.NewSaverService(sources, data),
		Selector: selector,
		Exchange: exchange,
		Tiles:    service.NewTileService(loader, source, engines),
		Logs:     sink,

		ExchangeDir: cfg.ExchangeDir,
	}
	if err := os.MkdirAll(cfg.ExchangeDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.ExchangeDir).Msg("failed to create exchange dir")
	}

	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register http metrics")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger())
	app.Use(promMW.Handler())
	app.Use(middleware.Language(nil, cfg.Language))

	handlers.RegisterRoutes(app, db, svc, reg)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("listening")
		return app.Listen(addr)
	})
	if cfg.ImportDir != "" {
		g.Go(func() error {
			return watcher.New(cfg.ImportDir, exchange, nil).Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		errs := []error{app.ShutdownWithContext(shutdownCtx)}
		errs = append(errs, queue.Stop(shutdownCtx))
		errs = append(errs, shutdownTracing(shutdownCtx))
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}
