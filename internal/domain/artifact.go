package domain

import (
	"encoding/json"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Point is one grid cell's weekly rainfall total.
type Point struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Rainfall float64 `json:"rainfall"`
}

// WeeklyPointTable holds the points of one surviving weekly bucket. Every
// point has a defined rainfall strictly above the selection threshold.
type WeeklyPointTable struct {
	Selection SelectionParameters `json:"selection"`
	Start     time.Time           `json:"start"`
	End       time.Time           `json:"end"`
	Points    []Point             `json:"points"`
}

// WeekSummary describes one bucket that survived the threshold filter.
type WeekSummary struct {
	Week        int       `json:"week"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Points      int       `json:"points"`
	MaxRainfall float64   `json:"max_rainfall"`
}

// Summary holds descriptive statistics of a point table.
type Summary struct {
	Count int     `json:"count"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Total float64 `json:"total"`
}

// Summarize computes count, max, mean and total rainfall of points.
func Summarize(points []Point) Summary {
	if len(points) == 0 {
		return Summary{}
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Rainfall
	}
	total := floats.Sum(values)
	return Summary{
		Count: len(values),
		Max:   floats.Max(values),
		Mean:  total / float64(len(values)),
		Total: total,
	}
}

// LatLon is a WGS-84 coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LegendBucket is one row of the static rainfall legend.
type LegendBucket struct {
	Label string
	Color string
}

// Fixed map presentation.
var (
	MapCenter = LatLon{Lat: 20.5937, Lon: 78.9629}
	Legend    = []LegendBucket{
		{Label: "0-20", Color: "blue"},
		{Label: "20-50", Color: "green"},
		{Label: "50-100", Color: "orange"},
		{Label: ">100", Color: "red"},
	}
)

const (
	MapZoom        = 5
	MapTitle       = "India Weekly Rainfall Map"
	MapCaption     = "Weekly Rainfall Map for Selected Filters"
	BoundaryLayer  = "India States"
	LegendTitle    = "Rainfall Legend (mm)"
	MapPanelWidth  = 700
	MapPanelHeight = 500
)

// MapArtifact is everything needed to draw one map: the boundary overlay, the
// heat layer, and the legend. It is rebuilt from scratch on every render.
type MapArtifact struct {
	Title       string              `json:"title"`
	Center      LatLon              `json:"center"`
	Zoom        int                 `json:"zoom"`
	LayerName   string              `json:"layer_name"`
	Boundaries  json.RawMessage     `json:"boundaries"`
	Heat        []Point             `json:"heat"`
	Legend      []LegendBucket      `json:"-"`
	Selection   SelectionParameters `json:"selection"`
	Start       time.Time           `json:"start,omitempty"`
	End         time.Time           `json:"end,omitempty"`
	Summary     Summary             `json:"summary"`
	Message     string              `json:"message,omitempty"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// NewMapArtifact assembles the artifact for a selection. A nil table renders
// boundaries only; message is shown to the user when non-empty.
func NewMapArtifact(sel SelectionParameters, boundaries json.RawMessage, table *WeeklyPointTable, message string) MapArtifact {
	a := MapArtifact{
		Title:       MapTitle,
		Center:      MapCenter,
		Zoom:        MapZoom,
		LayerName:   BoundaryLayer,
		Boundaries:  boundaries,
		Legend:      Legend,
		Selection:   sel,
		Message:     message,
		GeneratedAt: Now(),
	}
	if table != nil {
		a.Heat = table.Points
		a.Start = table.Start
		a.End = table.End
		a.Summary = Summarize(table.Points)
	}
	return a
}

// HasHeat reports whether the artifact carries a heat layer.
func (a MapArtifact) HasHeat() bool { return len(a.Heat) > 0 }

// HeatData returns the heat layer as [lat, lon, weight] triples.
func (a MapArtifact) HeatData() [][3]float64 {
	out := make([][3]float64, len(a.Heat))
	for i, p := range a.Heat {
		out[i] = [3]float64{p.Lat, p.Lon, p.Rainfall}
	}
	return out
}
