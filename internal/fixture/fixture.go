// Package fixture writes small synthetic rainfall and boundary datasets in the
// same formats as the production inputs, for tests and local development.
package fixture

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
)

// TimeUnits is the CF time encoding used for the TIME variable.
const TimeUnits = "days since 1900-12-31"

// DefaultFillValue marks undefined cells, as in the IMD product.
const DefaultFillValue float32 = -999

var timeEpoch = time.Date(1900, time.December, 31, 0, 0, 0, 0, time.UTC)

// RainfallGrid describes a synthetic daily rainfall file.
type RainfallGrid struct {
	Start time.Time
	Days  int
	Lats  []float64
	Lons  []float64
	// Value returns the rainfall for a day offset and grid indices. NaN is
	// written as FillValue.
	Value     func(day, lat, lon int) float64
	FillValue float32
}

// WriteRainfall writes g as a NetCDF classic file with the variables TIME,
// LATITUDE, LONGITUDE and RAINFALL(TIME, LATITUDE, LONGITUDE).
func WriteRainfall(path string, g RainfallGrid) error {
	if g.Days <= 0 || len(g.Lats) == 0 || len(g.Lons) == 0 {
		return fmt.Errorf("fixture: empty rainfall grid")
	}
	fill := g.FillValue
	if fill == 0 {
		fill = DefaultFillValue
	}

	h := cdf.NewHeader(
		[]string{"TIME", "LATITUDE", "LONGITUDE"},
		[]int{g.Days, len(g.Lats), len(g.Lons)})
	h.AddAttribute("", "title", "synthetic daily gridded rainfall")

	h.AddVariable("TIME", []string{"TIME"}, []float64{0})
	h.AddAttribute("TIME", "units", TimeUnits)
	h.AddAttribute("TIME", "calendar", "standard")
	h.AddVariable("LATITUDE", []string{"LATITUDE"}, []float32{0})
	h.AddAttribute("LATITUDE", "units", "degrees_north")
	h.AddVariable("LONGITUDE", []string{"LONGITUDE"}, []float32{0})
	h.AddAttribute("LONGITUDE", "units", "degrees_east")
	h.AddVariable("RAINFALL", []string{"TIME", "LATITUDE", "LONGITUDE"}, []float32{0})
	h.AddAttribute("RAINFALL", "units", "mm")
	h.AddAttribute("RAINFALL", "_FillValue", []float32{fill})
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fixture: create %s: %w", path, err)
	}
	defer f.Close()

	nc, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("fixture: write header: %w", err)
	}

	start := g.Start.UTC()
	times := make([]float64, g.Days)
	for d := range times {
		times[d] = start.AddDate(0, 0, d).Sub(timeEpoch).Hours() / 24
	}

	rain := make([]float32, 0, g.Days*len(g.Lats)*len(g.Lons))
	for d := 0; d < g.Days; d++ {
		for i := range g.Lats {
			for j := range g.Lons {
				v := g.Value(d, i, j)
				if math.IsNaN(v) {
					rain = append(rain, fill)
					continue
				}
				rain = append(rain, float32(v))
			}
		}
	}

	vars := []struct {
		name string
		data any
	}{
		{"TIME", times},
		{"LATITUDE", toFloat32s(g.Lats)},
		{"LONGITUDE", toFloat32s(g.Lons)},
		{"RAINFALL", rain},
	}
	for _, v := range vars {
		end := nc.Header.Lengths(v.name)
		begin := make([]int, len(end))
		if _, err := nc.Writer(v.name, begin, end).Write(v.data); err != nil {
			return fmt.Errorf("fixture: write %s: %w", v.name, err)
		}
	}
	return nil
}

func toFloat32s(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// Boundary is one named polygon to write into a shapefile.
type Boundary struct {
	Name    string
	Polygon geom.Polygon
}

type boundaryRecord struct {
	geom.Polygon
	Name string
}

// WriteBoundaries writes the polygons as a shapefile with a "Name" column.
// No .prj is written, so readers treat coordinates as longitude/latitude.
func WriteBoundaries(path string, boundaries []Boundary) error {
	e, err := shp.NewEncoder(path, boundaryRecord{})
	if err != nil {
		return fmt.Errorf("fixture: create %s: %w", path, err)
	}
	for _, b := range boundaries {
		if err := e.Encode(boundaryRecord{Polygon: b.Polygon, Name: b.Name}); err != nil {
			e.Close()
			return fmt.Errorf("fixture: encode %s: %w", b.Name, err)
		}
	}
	e.Close()
	return nil
}

// Rect returns a closed rectangular polygon.
func Rect(minLon, minLat, maxLon, maxLat float64) geom.Polygon {
	return geom.Polygon{{
		{X: minLon, Y: minLat},
		{X: maxLon, Y: minLat},
		{X: maxLon, Y: maxLat},
		{X: minLon, Y: maxLat},
		{X: minLon, Y: minLat},
	}}
}

// Axis returns n evenly spaced values starting at start.
func Axis(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
