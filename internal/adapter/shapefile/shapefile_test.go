package shapefile

import (
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/couchcryptid/rainfall-heatmap/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeStates(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "states.shp")
	require.NoError(t, fixture.WriteBoundaries(path, []fixture.Boundary{
		{Name: "Maharashtra", Polygon: fixture.Rect(73, 16, 80, 22)},
		{Name: "Kerala", Polygon: fixture.Rect(74.8, 8.2, 77.4, 12.8)},
	}))
	return path
}

func TestLoad(t *testing.T) {
	ds, err := Load(writeStates(t), "Name", discardLogger())
	require.NoError(t, err)
	require.Len(t, ds.Regions, 2)
	assert.Equal(t, "Maharashtra", ds.Regions[0].Name)
	assert.Equal(t, "Kerala", ds.Regions[1].Name)

	b := ds.Bounds()
	require.NotNil(t, b)
	assert.InDelta(t, 73, b.Min.X, 1e-9)
	assert.InDelta(t, 8.2, b.Min.Y, 1e-9)
	assert.InDelta(t, 80, b.Max.X, 1e-9)
	assert.InDelta(t, 22, b.Max.Y, 1e-9)
}

func TestLoad_WithoutNameField(t *testing.T) {
	ds, err := Load(writeStates(t), "", discardLogger())
	require.NoError(t, err)
	require.Len(t, ds.Regions, 2)
	assert.Empty(t, ds.Regions[0].Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.shp"), "Name", discardLogger())
	var dle *domain.DataLoadError
	require.ErrorAs(t, err, &dle)
	assert.Equal(t, "boundary", dle.Source)
}

func TestFeatureCollection(t *testing.T) {
	ds, err := Load(writeStates(t), "Name", discardLogger())
	require.NoError(t, err)

	raw, err := FeatureCollection(ds)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Type       string            `json:"type"`
			Properties map[string]string `json:"properties"`
			Geometry   struct {
				Type string `json:"type"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "Feature", fc.Features[0].Type)
	assert.Equal(t, "Maharashtra", fc.Features[0].Properties["name"])
	assert.Equal(t, "Polygon", fc.Features[0].Geometry.Type)
}

func TestFeatureCollection_Empty(t *testing.T) {
	raw, err := FeatureCollection(&domain.BoundaryDataset{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(raw))
}

func TestIndex(t *testing.T) {
	ds, err := Load(writeStates(t), "Name", discardLogger())
	require.NoError(t, err)
	ix := NewIndex(ds)

	tests := []struct {
		name     string
		lat, lon float64
		region   string
		inside   bool
	}{
		{"mumbai", 19.07, 72.87, "", false},
		{"pune", 18.52, 73.85, "Maharashtra", true},
		{"kochi", 9.93, 76.26, "Kerala", true},
		{"delhi", 28.61, 77.2, "", false},
		{"bay of bengal", 15, 88, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, ok := ix.Region(tt.lat, tt.lon)
			assert.Equal(t, tt.inside, ok)
			assert.Equal(t, tt.region, region)
			assert.Equal(t, tt.inside, ix.Contains(tt.lat, tt.lon))
		})
	}
}

func TestIndex_FiltersAggregatedPoints(t *testing.T) {
	ds, err := Load(writeStates(t), "Name", discardLogger())
	require.NoError(t, err)

	totals := []float64{50, 50, 50, 50}
	lats := []float64{10, 30}
	lons := []float64{76, 90}
	points := domain.PointsAbove(totals, lats, lons, 20, NewIndex(ds))
	require.Len(t, points, 1)
	assert.Equal(t, domain.Point{Lat: 10, Lon: 76, Rainfall: 50}, points[0])
}

func TestIndex_Scope(t *testing.T) {
	ds, err := Load(writeStates(t), "Name", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "regions=2;73,8.2,80,22", NewIndex(ds).Scope())

	one := &domain.BoundaryDataset{Regions: ds.Regions[:1]}
	assert.NotEqual(t, NewIndex(ds).Scope(), NewIndex(one).Scope())
}
