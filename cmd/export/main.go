// Command export aggregates the retained weeks of a range of years and
// publishes one snapshot per week to Kafka.
//
// Usage:
//
//	go run ./cmd/export -from 2015 -to 2022 -threshold 50
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	kafkaadapter "github.com/couchcryptid/rainfall-heatmap/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-heatmap/internal/adapter/netcdf"
	"github.com/couchcryptid/rainfall-heatmap/internal/adapter/shapefile"
	"github.com/couchcryptid/rainfall-heatmap/internal/config"
	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/couchcryptid/rainfall-heatmap/internal/observability"
	"github.com/couchcryptid/rainfall-heatmap/internal/pipeline"
)

func main() {
	from := flag.Int("from", domain.DefaultYear, "first year to export")
	to := flag.Int("to", domain.DefaultYear, "last year to export")
	threshold := flag.Float64("threshold", domain.DefaultThreshold, "rainfall threshold in mm")
	flag.Parse()

	cfg, err := config.Load()
	if err == nil {
		err = cfg.ExportConfig()
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	os.Exit(run(cfg, logger, metrics, *from, *to, *threshold))
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, from, to int, threshold float64) int {
	series, err := netcdf.Open(cfg.RainfallPath, netcdf.Variables{
		Time:     cfg.TimeVar,
		Lat:      cfg.LatVar,
		Lon:      cfg.LonVar,
		Rainfall: cfg.RainfallVar,
	}, logger)
	if err != nil {
		logger.Error("failed to load rainfall dataset", "error", err)
		return 1
	}
	defer series.Close()

	var filter domain.PointFilter
	if cfg.ClipToBoundary {
		states, err := shapefile.Load(cfg.BoundaryPath, cfg.BoundaryNameField, logger)
		if err != nil {
			logger.Error("failed to load boundary dataset", "error", err)
			return 1
		}
		filter = shapefile.NewIndex(states)
	}

	writer := kafkaadapter.NewWriter(cfg, logger)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agg := domain.NewWeekAggregator(series, cfg.WeekAnchor, filter)
	exporter := pipeline.NewExporter(agg, writer, logger, metrics)

	n, err := exporter.Run(ctx, from, to, threshold)
	if err != nil {
		logger.Error("export failed", "error", err, "published", n)
		return 1
	}
	logger.Info("export complete", "topic", cfg.KafkaExportTopic, "published", n)
	return 0
}
