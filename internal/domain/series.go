package domain

import (
	"context"
	"fmt"
	"time"
)

// RainfallSeries is a read-only gridded daily rainfall dataset indexed by
// (time, latitude, longitude). Implementations must be safe for concurrent use.
type RainfallSeries interface {
	// Times returns the sample timestamps in ascending order.
	Times() []time.Time
	Lats() []float64
	Lons() []float64
	// Slice returns the grids for time indices [start, end). Each grid is laid
	// out latitude-major with len(Lats())*len(Lons()) cells; undefined values are NaN.
	Slice(ctx context.Context, start, end int) ([][]float64, error)
}

// MemorySeries is a RainfallSeries held entirely in memory.
type MemorySeries struct {
	times []time.Time
	lats  []float64
	lons  []float64
	grids [][]float64
}

// NewMemorySeries validates the shapes and wraps the given grids.
func NewMemorySeries(times []time.Time, lats, lons []float64, grids [][]float64) (*MemorySeries, error) {
	if len(times) != len(grids) {
		return nil, fmt.Errorf("memory series: %d times but %d grids", len(times), len(grids))
	}
	cells := len(lats) * len(lons)
	for i, g := range grids {
		if len(g) != cells {
			return nil, fmt.Errorf("memory series: grid %d has %d cells, want %d", i, len(g), cells)
		}
		if i > 0 && !times[i].After(times[i-1]) {
			return nil, fmt.Errorf("memory series: times not strictly ascending at index %d", i)
		}
	}
	return &MemorySeries{times: times, lats: lats, lons: lons, grids: grids}, nil
}

func (m *MemorySeries) Times() []time.Time { return m.times }
func (m *MemorySeries) Lats() []float64    { return m.lats }
func (m *MemorySeries) Lons() []float64    { return m.lons }

func (m *MemorySeries) Slice(ctx context.Context, start, end int) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if start < 0 || end > len(m.grids) || start > end {
		return nil, fmt.Errorf("memory series: slice [%d,%d) out of range 0..%d", start, end, len(m.grids))
	}
	return m.grids[start:end], nil
}
