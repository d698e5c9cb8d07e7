// Package cache memoizes weekly point tables by selection, in process or in Redis.
package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/couchcryptid/rainfall-heatmap/internal/observability"
)

// CachedSource wraps a TableSource with a TableStore. When the source is
// domain.Scoped its scope prefixes every key, so sources built over other
// datasets or settings never read each other's tables from a shared store.
type CachedSource struct {
	inner   domain.TableSource
	scope   string
	store   domain.TableStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a table source.
func NewCachedSource(inner domain.TableSource, store domain.TableStore, logger *slog.Logger, metrics *observability.Metrics) *CachedSource {
	var scope string
	if s, ok := inner.(domain.Scoped); ok {
		scope = s.Scope()
	}
	return &CachedSource{
		inner:   inner,
		scope:   scope,
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

func (c *CachedSource) Table(ctx context.Context, sel domain.SelectionParameters) (domain.WeeklyPointTable, error) {
	if err := sel.Validate(); err != nil {
		return domain.WeeklyPointTable{}, err
	}

	key := c.key(sel)
	table, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		// A failing store degrades to recomputation.
		c.record("error")
		c.logger.Warn("table cache read failed", "key", key, "error", err)
	case ok:
		c.record("hit")
		if len(table.Points) == 0 {
			return table, domain.ErrEmptyResult
		}
		return table, nil
	default:
		c.record("miss")
	}

	table, err = c.inner.Table(ctx, sel)
	// Out-of-range and failed reads are not cached so they are re-evaluated.
	if err != nil && !errors.Is(err, domain.ErrEmptyResult) {
		return table, err
	}
	if perr := c.store.Put(ctx, key, table); perr != nil {
		c.logger.Warn("table cache write failed", "key", key, "error", perr)
	}
	return table, err
}

func (c *CachedSource) key(sel domain.SelectionParameters) string {
	if c.scope == "" {
		return sel.Key()
	}
	return c.scope + ":" + sel.Key()
}

func (c *CachedSource) record(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}
