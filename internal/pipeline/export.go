package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/couchcryptid/rainfall-heatmap/internal/observability"
)

// TableLister produces every retained weekly table of a year.
type TableLister interface {
	Tables(ctx context.Context, year int, threshold float64) ([]domain.WeeklyPointTable, error)
}

// BatchLoader writes multiple weekly snapshots to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, snapshots []domain.WeeklySnapshot) error
}

// maxLoadAttempts bounds the retries of one year's batch before the export fails.
const maxLoadAttempts = 5

// Exporter publishes the retained weeks of a range of years.
type Exporter struct {
	tables  TableLister
	loader  BatchLoader
	logger  *slog.Logger
	metrics *observability.Metrics

	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewExporter creates an Exporter with the given stages and observability.
func NewExporter(tables TableLister, loader BatchLoader, logger *slog.Logger, metrics *observability.Metrics) *Exporter {
	return &Exporter{
		tables:         tables,
		loader:         loader,
		logger:         logger,
		metrics:        metrics,
		initialBackoff: 200 * time.Millisecond,
		maxBackoff:     5 * time.Second,
	}
}

// Run exports every year in [from, to], one batch per year, and returns the
// number of snapshots published. Weeks left without points by the boundary
// filter are skipped.
func (e *Exporter) Run(ctx context.Context, from, to int, threshold float64) (int, error) {
	if from > to {
		return 0, fmt.Errorf("export range %d..%d is empty", from, to)
	}
	for _, year := range []int{from, to} {
		sel := domain.SelectionParameters{Year: year, Threshold: threshold, Week: 1}
		if err := sel.Validate(); err != nil {
			return 0, err
		}
	}

	e.logger.Info("export started", "from", from, "to", to, "threshold", threshold)
	published := 0
	for year := from; year <= to; year++ {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		n, err := e.exportYear(ctx, year, threshold)
		published += n
		if err != nil {
			return published, err
		}
	}
	e.logger.Info("export finished", "published", published)
	return published, nil
}

func (e *Exporter) exportYear(ctx context.Context, year int, threshold float64) (int, error) {
	tables, err := e.tables.Tables(ctx, year, threshold)
	if err != nil {
		return 0, fmt.Errorf("aggregate %d: %w", year, err)
	}

	batch := make([]domain.WeeklySnapshot, 0, len(tables))
	for _, t := range tables {
		if len(t.Points) == 0 {
			e.metrics.ExportMessages.WithLabelValues("skipped").Inc()
			continue
		}
		batch = append(batch, domain.NewWeeklySnapshot(t))
	}
	if len(batch) == 0 {
		e.logger.Info("no weeks to export", "year", year)
		return 0, nil
	}

	backoff := e.initialBackoff
	for attempt := 1; ; attempt++ {
		err := e.loader.LoadBatch(ctx, batch)
		if err == nil {
			break
		}
		e.logger.Error("load batch failed", "error", err, "year", year, "attempt", attempt, "batch_size", len(batch))
		if attempt == maxLoadAttempts || ctx.Err() != nil {
			e.metrics.ExportMessages.WithLabelValues("error").Add(float64(len(batch)))
			return 0, fmt.Errorf("publish %d: %w", year, err)
		}
		if !sleepWithContext(ctx, backoff) {
			return 0, ctx.Err()
		}
		backoff = nextBackoff(backoff, e.maxBackoff)
	}

	e.metrics.ExportMessages.WithLabelValues("ok").Add(float64(len(batch)))
	e.logger.Info("year exported", "year", year, "weeks", len(batch))
	return len(batch), nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
