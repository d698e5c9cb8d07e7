package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/couchcryptid/rainfall-heatmap/internal/observability"
)

// WeekLister lists the retained buckets of a year.
type WeekLister interface {
	Weeks(ctx context.Context, year int, threshold float64) ([]domain.WeekSummary, error)
}

// Render outcomes, used as metric labels.
const (
	outcomeOK         = "ok"
	outcomeEmpty      = "empty"
	outcomeOutOfRange = "out_of_range"
	outcomeInvalid    = "invalid"
	outcomeError      = "error"
)

// Pipeline turns selections into weekly tables and map artifacts over the
// datasets loaded at startup.
type Pipeline struct {
	source     domain.TableSource
	weeks      WeekLister
	boundaries json.RawMessage
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
}

// New creates a Pipeline. boundaries is the GeoJSON overlay drawn on every map.
func New(source domain.TableSource, weeks WeekLister, boundaries json.RawMessage, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:     source,
		weeks:      weeks,
		boundaries: boundaries,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once Warm has completed a render.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("datasets are loaded but no selection has been rendered yet")
	}
	return nil
}

// Warm renders the default selection once, so the first user request is served
// from the cache, and marks the pipeline ready.
func (p *Pipeline) Warm(ctx context.Context) error {
	sel := domain.DefaultSelection()
	start := time.Now()
	if _, err := p.Render(ctx, sel); err != nil {
		return err
	}
	p.ready.Store(true)
	p.logger.Info("pipeline ready", "year", sel.Year, "week", sel.Week, "threshold", sel.Threshold, "took", time.Since(start))
	return nil
}

// Points returns the weekly point table for sel. ErrEmptyResult is returned
// together with the (empty) table.
func (p *Pipeline) Points(ctx context.Context, sel domain.SelectionParameters) (domain.WeeklyPointTable, error) {
	table, err := p.source.Table(ctx, sel)
	if err == nil {
		p.metrics.PointsReturned.Observe(float64(len(table.Points)))
	}
	return table, err
}

// Weeks lists the retained buckets for year and threshold.
func (p *Pipeline) Weeks(ctx context.Context, year int, threshold float64) ([]domain.WeekSummary, error) {
	probe := domain.SelectionParameters{Year: year, Threshold: threshold, Week: 1}
	if err := probe.Validate(); err != nil {
		return nil, err
	}
	return p.weeks.Weeks(ctx, year, threshold)
}

// Render builds the map artifact for sel. Out-of-range selections and empty
// tables become a boundaries-only artifact with a user-facing message; only
// validation and read failures are returned as errors.
func (p *Pipeline) Render(ctx context.Context, sel domain.SelectionParameters) (domain.MapArtifact, error) {
	start := time.Now()
	defer func() { p.metrics.RenderDuration.Observe(time.Since(start).Seconds()) }()

	log := p.logger.With("year", sel.Year, "week", sel.Week, "threshold", sel.Threshold)

	table, err := p.Points(ctx, sel)
	var (
		oor *domain.SelectionOutOfRangeError
		ve  *domain.ValidationError
	)
	switch {
	case err == nil:
		p.metrics.RendersTotal.WithLabelValues(outcomeOK).Inc()
		log.Debug("rendered selection", "points", len(table.Points))
		return domain.NewMapArtifact(sel, p.boundaries, &table, ""), nil
	case errors.Is(err, domain.ErrEmptyResult):
		p.metrics.RendersTotal.WithLabelValues(outcomeEmpty).Inc()
		log.Warn("selection has no points above threshold")
		return domain.NewMapArtifact(sel, p.boundaries, &table, domain.UserMessage(err)), nil
	case errors.As(err, &oor):
		p.metrics.RendersTotal.WithLabelValues(outcomeOutOfRange).Inc()
		log.Warn("selection out of range", "available", oor.Available)
		return domain.NewMapArtifact(sel, p.boundaries, nil, domain.UserMessage(err)), nil
	case errors.As(err, &ve):
		p.metrics.RendersTotal.WithLabelValues(outcomeInvalid).Inc()
		return domain.MapArtifact{}, err
	default:
		p.metrics.RendersTotal.WithLabelValues(outcomeError).Inc()
		log.Error("render failed", "error", err)
		return domain.MapArtifact{}, err
	}
}
