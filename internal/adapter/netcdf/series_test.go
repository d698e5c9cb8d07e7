package netcdf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/couchcryptid/rainfall-heatmap/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeGrid(t *testing.T, g fixture.RainfallGrid) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rain.nc")
	require.NoError(t, fixture.WriteRainfall(path, g))
	return path
}

func testGrid() fixture.RainfallGrid {
	return fixture.RainfallGrid{
		Start: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		Days:  10,
		Lats:  fixture.Axis(20, 0.25, 3),
		Lons:  fixture.Axis(75, 0.25, 4),
		Value: func(day, lat, lon int) float64 {
			if day == 2 && lat == 1 && lon == 1 {
				return math.NaN()
			}
			return float64(day*100 + lat*10 + lon)
		},
	}
}

func TestOpen_ReadsCoordinates(t *testing.T) {
	s, err := Open(writeGrid(t, testGrid()), DefaultVariables(), discardLogger())
	require.NoError(t, err)
	defer s.Close()

	assert.InDeltaSlice(t, []float64{20, 20.25, 20.5}, s.Lats(), 1e-6)
	assert.InDeltaSlice(t, []float64{75, 75.25, 75.5, 75.75}, s.Lons(), 1e-6)
	require.Len(t, s.Times(), 10)
	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), s.Times()[0])
	assert.Equal(t, time.Date(2020, time.January, 10, 0, 0, 0, 0, time.UTC), s.Times()[9])
}

func TestSlice_ReturnsLatitudeMajorGrids(t *testing.T) {
	s, err := Open(writeGrid(t, testGrid()), DefaultVariables(), discardLogger())
	require.NoError(t, err)
	defer s.Close()

	grids, err := s.Slice(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Len(t, grids, 2)
	require.Len(t, grids[0], 12)

	// day 1, lat 2, lon 3
	assert.InDelta(t, 123, grids[0][2*4+3], 1e-6)
	// day 2, lat 0, lon 1
	assert.InDelta(t, 201, grids[1][1], 1e-6)
}

func TestSlice_FillValueBecomesNaN(t *testing.T) {
	s, err := Open(writeGrid(t, testGrid()), DefaultVariables(), discardLogger())
	require.NoError(t, err)
	defer s.Close()

	grids, err := s.Slice(context.Background(), 2, 3)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(grids[0][1*4+1]))
	assert.False(t, math.IsNaN(grids[0][0]))
}

func TestSlice_OutOfRange(t *testing.T) {
	s, err := Open(writeGrid(t, testGrid()), DefaultVariables(), discardLogger())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Slice(context.Background(), 5, 11)
	require.Error(t, err)
}

func TestSlice_CancelledContext(t *testing.T) {
	s, err := Open(writeGrid(t, testGrid()), DefaultVariables(), discardLogger())
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Slice(ctx, 0, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_FeedsWeekAggregator(t *testing.T) {
	g := testGrid()
	g.Days = 14
	g.Value = func(day, lat, lon int) float64 {
		if lat == 0 && lon == 0 {
			return 5
		}
		return 0
	}
	s, err := Open(writeGrid(t, g), DefaultVariables(), discardLogger())
	require.NoError(t, err)
	defer s.Close()

	agg := domain.NewWeekAggregator(s, domain.WeekAnchorJan1, nil)
	table, err := agg.Table(context.Background(), domain.SelectionParameters{Year: 2020, Threshold: 20, Week: 2})
	require.NoError(t, err)
	require.Len(t, table.Points, 1)
	assert.InDelta(t, 35, table.Points[0].Rainfall, 1e-6)
	assert.Equal(t, time.Date(2020, time.January, 8, 0, 0, 0, 0, time.UTC), table.Start)
}

func TestOpen_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "absent.nc"), DefaultVariables(), discardLogger())
		var dle *domain.DataLoadError
		require.ErrorAs(t, err, &dle)
		assert.Equal(t, "rainfall", dle.Source)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("not netcdf", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "junk.nc")
		require.NoError(t, os.WriteFile(path, []byte("definitely not a netcdf file"), 0o600))
		_, err := Open(path, DefaultVariables(), discardLogger())
		var dle *domain.DataLoadError
		require.ErrorAs(t, err, &dle)
	})

	t.Run("unknown variable", func(t *testing.T) {
		vars := DefaultVariables()
		vars.Rainfall = "PRECIP"
		_, err := Open(writeGrid(t, testGrid()), vars, discardLogger())
		var dle *domain.DataLoadError
		require.ErrorAs(t, err, &dle)
		assert.Contains(t, err.Error(), `"PRECIP"`)
	})
}

func TestParseTimeUnits(t *testing.T) {
	tests := []struct {
		units string
		step  time.Duration
		ref   time.Time
	}{
		{"days since 1900-12-31", 24 * time.Hour, time.Date(1900, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"days since 1900-1-1 0:0:0", 24 * time.Hour, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"hours since 2000-01-01T06:00:00Z", time.Hour, time.Date(2000, 1, 1, 6, 0, 0, 0, time.UTC)},
		{"Seconds since 1970-01-01 00:00:00.0", time.Second, time.Unix(0, 0).UTC()},
	}
	for _, tt := range tests {
		t.Run(tt.units, func(t *testing.T) {
			step, ref, err := parseTimeUnits(tt.units)
			require.NoError(t, err)
			assert.Equal(t, tt.step, step)
			assert.True(t, tt.ref.Equal(ref), "got %s", ref)
		})
	}
}

func TestParseTimeUnits_Invalid(t *testing.T) {
	for _, units := range []string{"", "days", "fortnights since 1900-01-01", "days since yesterday"} {
		_, _, err := parseTimeUnits(units)
		assert.Error(t, err, units)
	}
}

func TestCheckCalendar(t *testing.T) {
	assert.NoError(t, checkCalendar(""))
	assert.NoError(t, checkCalendar("Gregorian"))
	assert.NoError(t, checkCalendar("proleptic_gregorian"))
	assert.Error(t, checkCalendar("360_day"))
}
