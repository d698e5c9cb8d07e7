package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/adapter/cache"
	httpadapter "github.com/couchcryptid/rainfall-heatmap/internal/adapter/http"
	"github.com/couchcryptid/rainfall-heatmap/internal/adapter/leaflet"
	"github.com/couchcryptid/rainfall-heatmap/internal/adapter/netcdf"
	"github.com/couchcryptid/rainfall-heatmap/internal/adapter/shapefile"
	"github.com/couchcryptid/rainfall-heatmap/internal/config"
	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/couchcryptid/rainfall-heatmap/internal/observability"
	"github.com/couchcryptid/rainfall-heatmap/internal/pipeline"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Both datasets are loaded once; a load failure is fatal.
	series, err := netcdf.Open(cfg.RainfallPath, netcdf.Variables{
		Time:     cfg.TimeVar,
		Lat:      cfg.LatVar,
		Lon:      cfg.LonVar,
		Rainfall: cfg.RainfallVar,
	}, logger)
	if err != nil {
		logger.Error("failed to load rainfall dataset", "error", err)
		os.Exit(1)
	}
	defer series.Close()
	metrics.DatasetsLoaded.WithLabelValues("rainfall").Set(1)

	states, err := shapefile.Load(cfg.BoundaryPath, cfg.BoundaryNameField, logger)
	if err != nil {
		logger.Error("failed to load boundary dataset", "error", err)
		os.Exit(1)
	}
	metrics.DatasetsLoaded.WithLabelValues("boundary").Set(1)

	overlay, err := shapefile.FeatureCollection(states)
	if err != nil {
		logger.Error("failed to encode boundary overlay", "error", err)
		os.Exit(1)
	}

	var filter domain.PointFilter
	if cfg.ClipToBoundary {
		filter = shapefile.NewIndex(states)
		logger.Info("heat points clipped to state boundaries")
	}
	agg := domain.NewWeekAggregator(series, cfg.WeekAnchor, filter)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var source domain.TableSource = agg
	switch cfg.CacheBackend {
	case config.CacheMemory:
		source = cache.NewCachedSource(agg, cache.NewLRU(cfg.CacheSize), logger, metrics)
		logger.Info("table cache enabled", "backend", cfg.CacheBackend, "size", cfg.CacheSize, "scope", agg.Scope())
	case config.CacheRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		store := cache.NewRedis(rdb, cache.WithTTL(cfg.CacheTTL))
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := store.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		source = cache.NewCachedSource(agg, store, logger, metrics)
		logger.Info("table cache enabled", "backend", cfg.CacheBackend, "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL, "scope", agg.Scope())
	default:
		logger.Info("table cache disabled")
	}

	p := pipeline.New(source, agg, overlay, logger, metrics)

	view, err := leaflet.NewRenderer()
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	limiter := httpadapter.NewRateLimiter(cfg.RenderRateLimit, cfg.RenderBurst)
	limiter.StartJanitor(ctx, 2*time.Minute)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, view, limiter, logger, metrics)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Render the default selection so /readyz reports ready.
	go func() {
		if err := p.Warm(ctx); err != nil {
			logger.Error("warm-up render failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
