package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/terrainforge/backend/api/routes"
	"github.com/terrainforge/backend/internal/catalog"
	"github.com/terrainforge/backend/internal/pricing"
	"github.com/terrainforge/backend/internal/tables"
	"github.com/terrainforge/backend/pkg/config"
	"github.com/terrainforge/backend/pkg/db"
	"github.com/terrainforge/backend/pkg/logger"
	"github.com/terrainforge/backend/pkg/metrics"
	"github.com/terrainforge/backend/pkg/migrate"
	"github.com/terrainforge/backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Redis is optional: without it the catalog loads from the database on
	// every request.
	var redisClient *redis.Client
	var cache redis.Cache
	var redisPinger redis.Pinger
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		cache = redisClient
		redisPinger = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, catalog cache disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	editorMetrics := metrics.NewEditorMetrics(registry)

	catalogService, err := catalog.NewService(
		catalog.NewRepository(dbClient.DB()),
		cache,
		cfg.Catalog.CacheTTL,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	if cfg.Catalog.ManifestPath != "" {
		count, err := catalogService.SeedFromManifest(context.Background(), cfg.Catalog.ManifestPath)
		if err != nil {
			logg.Error(context.Background(), "failed to seed catalog from manifest", err)
			os.Exit(1)
		}
		ctx := logg.WithField(context.Background(), "asset_count", count)
		logg.Info(ctx, "catalog seeded from manifest")
	}

	tablesService, err := tables.NewService(
		tables.NewRepository(dbClient.DB()),
		catalogService,
		editorMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create tables service", err)
		os.Exit(1)
	}

	engine, err := pricing.NewEngine(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "invalid pricing configuration", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisPinger,
			catalogService, tablesService, engine,
			editorMetrics, registry,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
