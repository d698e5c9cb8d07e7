package pipeline_test

import (
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/stretchr/testify/require"
)

// testSeries is one year (2020) of daily rainfall on a 2x2 grid:
//   - Jan 8-14: (10, 70) gets 5 mm/day and (10, 70.25) 10 mm/day
//   - Mar 4-10: (10.25, 70) gets 20 mm/day
//   - (10.25, 70.25) is undefined all year
//
// With a 20 mm threshold and Jan-1 buckets exactly two weeks survive.
func testSeries(t *testing.T) *domain.MemorySeries {
	t.Helper()
	lats := []float64{10, 10.25}
	lons := []float64{70, 70.25}
	jan1 := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	times := make([]time.Time, 366)
	grids := make([][]float64, 366)
	for d := range times {
		times[d] = jan1.AddDate(0, 0, d)
		g := []float64{0, 0, 0, math.NaN()}
		switch d / 7 {
		case 1:
			g[0], g[1] = 5, 10
		case 9:
			g[2] = 20
		}
		grids[d] = g
	}
	s, err := domain.NewMemorySeries(times, lats, lons, grids)
	require.NoError(t, err)
	return s
}
