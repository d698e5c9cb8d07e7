package leaflet

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stateBoundaries = json.RawMessage(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"Kerala"},"geometry":{"type":"Polygon","coordinates":[[[74.8,8.2],[77.4,8.2],[77.4,12.8],[74.8,12.8],[74.8,8.2]]]}}]}`)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func TestWriteMap_WithHeat(t *testing.T) {
	sel := domain.SelectionParameters{Year: 2020, Threshold: 20, Week: 1}
	table := &domain.WeeklyPointTable{
		Selection: sel,
		Points:    []domain.Point{{Lat: 10, Lon: 76.25, Rainfall: 42.5}},
	}
	a := domain.NewMapArtifact(sel, stateBoundaries, table, "")

	var sb strings.Builder
	require.NoError(t, newRenderer(t).WriteMap(&sb, a))
	html := sb.String()

	assert.Contains(t, html, "<title>India Weekly Rainfall Map</title>")
	assert.Contains(t, html, "setView([20.5937,78.9629],")
	assert.Contains(t, html, `"name":"Kerala"`)
	assert.Contains(t, html, "L.heatLayer([[10,76.25,42.5]]")
	assert.Contains(t, html, `"India States"`)
	assert.Contains(t, html, "Rainfall Legend (mm)")
	for _, b := range domain.Legend {
		assert.Contains(t, html, "background: "+b.Color)
	}
	assert.Contains(t, html, "&gt;100")
	assert.NotContains(t, html, `class="message"`)
}

func TestWriteMap_BoundariesOnly(t *testing.T) {
	sel := domain.SelectionParameters{Year: 2020, Threshold: 200, Week: 1}
	a := domain.NewMapArtifact(sel, stateBoundaries, nil, "No data for this selection: no week in 2020 has rainfall above the threshold.")

	var sb strings.Builder
	require.NoError(t, newRenderer(t).WriteMap(&sb, a))
	html := sb.String()

	assert.Contains(t, html, "L.geoJSON(")
	assert.NotContains(t, html, "L.heatLayer(")
	assert.Contains(t, html, `class="message"`)
	assert.Contains(t, html, "No data for this selection")
}

func TestWriteMap_MissingBoundaries(t *testing.T) {
	a := domain.NewMapArtifact(domain.DefaultSelection(), nil, nil, "")

	var sb strings.Builder
	require.NoError(t, newRenderer(t).WriteMap(&sb, a))
	assert.Contains(t, sb.String(), `L.geoJSON({"type":"FeatureCollection","features":[]})`)
}

func TestWriteMap_EscapesMessage(t *testing.T) {
	a := domain.NewMapArtifact(domain.DefaultSelection(), stateBoundaries, nil, "<script>alert(1)</script>")

	var sb strings.Builder
	require.NoError(t, newRenderer(t).WriteMap(&sb, a))
	assert.NotContains(t, sb.String(), "<script>alert(1)</script>")
}

func TestWritePage(t *testing.T) {
	sel := domain.SelectionParameters{Year: 2019, Threshold: 35, Week: 4}
	week := domain.WeekSummary{
		Week:  4,
		Start: time.Date(2019, time.June, 3, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2019, time.June, 9, 0, 0, 0, 0, time.UTC),
	}

	var sb strings.Builder
	require.NoError(t, newRenderer(t).WritePage(&sb, Page{
		Selection: sel,
		Week:      &week,
		Summary:   domain.Summary{Count: 12, Max: 88.25, Mean: 51.5},
	}))
	html := sb.String()

	assert.Contains(t, html, "<h1>India Weekly Rainfall Map</h1>")
	assert.Contains(t, html, `name="year" min="1901" max="2022" step="1" value="2019"`)
	assert.Contains(t, html, `name="threshold" min="0" max="200" step="1" value="35"`)
	assert.Contains(t, html, `name="week" min="1" max="52" step="1" value="4"`)
	assert.Contains(t, html, "(Jun 3 to Jun 9, 2019)")
	assert.Contains(t, html, "Weekly Rainfall Map for Selected Filters")
	assert.Contains(t, html, "12 grid points, max 88.2 mm, mean 51.5 mm")
	assert.Contains(t, html, `width="700" height="500"`)
	assert.Contains(t, html, `src="/map?threshold=35&amp;week=4&amp;year=2019"`)
}

func TestWritePage_Message(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, newRenderer(t).WritePage(&sb, Page{
		Selection: domain.DefaultSelection(),
		Message:   "No rainfall points above the threshold for this selection.",
	}))
	html := sb.String()

	assert.Contains(t, html, `class="message"`)
	assert.NotContains(t, html, "grid points")
}

func TestWritePage_InlineMap(t *testing.T) {
	sel := domain.SelectionParameters{Year: 2019, Threshold: 35, Week: 4}
	table := &domain.WeeklyPointTable{Points: []domain.Point{{Lat: 9.5, Lon: 76.25, Rainfall: 41}}}
	a := domain.NewMapArtifact(sel, stateBoundaries, table, "")

	var sb strings.Builder
	require.NoError(t, newRenderer(t).WritePage(&sb, Page{Selection: sel, Map: &a}))
	html := sb.String()

	assert.Contains(t, html, `<iframe srcdoc="&lt;!DOCTYPE html&gt;`)
	assert.Contains(t, html, "L.heatLayer([[9.5,76.25,41]]")
	assert.NotContains(t, html, `src="/map`)
}

func TestMapURL(t *testing.T) {
	assert.Equal(t, "/map?threshold=20.5&week=2&year=2001",
		MapURL(domain.SelectionParameters{Year: 2001, Threshold: 20.5, Week: 2}))
}
