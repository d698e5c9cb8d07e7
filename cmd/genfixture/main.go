// Command genfixture writes a synthetic daily rainfall NetCDF file and a
// coarse state boundary shapefile for local development. The files use the
// same variable names and layout as the production inputs, so the service
// runs against them once RAINFALL_PATH, BOUNDARY_PATH and
// BOUNDARY_NAME_FIELD=Name point at them.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -rain-out data/dev/rainfall.nc \
//	  -boundary-out data/dev/states.shp \
//	  -from 2019 -to 2020
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/fixture"
	"github.com/ctessum/geom"
)

// states are rough bounding boxes, enough to give the overlay a recognizable
// shape and to mask the sea out of the grid.
var states = []fixture.Boundary{
	{Name: "Rajasthan", Polygon: fixture.Rect(69.5, 23.0, 78.3, 30.2)},
	{Name: "Gujarat", Polygon: fixture.Rect(68.2, 20.1, 74.5, 24.7)},
	{Name: "Madhya Pradesh", Polygon: fixture.Rect(74.0, 21.1, 82.8, 26.9)},
	{Name: "Uttar Pradesh", Polygon: fixture.Rect(77.1, 23.9, 84.6, 30.4)},
	{Name: "Maharashtra", Polygon: fixture.Rect(72.6, 15.6, 80.9, 22.0)},
	{Name: "Odisha", Polygon: fixture.Rect(81.4, 17.8, 87.5, 22.6)},
	{Name: "West Bengal", Polygon: fixture.Rect(85.8, 21.5, 89.9, 27.2)},
	{Name: "Karnataka", Polygon: fixture.Rect(74.0, 11.6, 78.6, 18.4)},
	{Name: "Tamil Nadu", Polygon: fixture.Rect(76.2, 8.1, 80.3, 13.5)},
	{Name: "Kerala", Polygon: fixture.Rect(74.8, 8.2, 77.4, 12.8)},
	{Name: "Assam", Polygon: fixture.Rect(89.7, 24.1, 96.0, 28.0)},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rainOut := flag.String("rain-out", "", "output path for the rainfall NetCDF file")
	boundaryOut := flag.String("boundary-out", "", "output path for the boundary shapefile (.shp)")
	from := flag.Int("from", 2020, "first year of daily data")
	to := flag.Int("to", 2020, "last year of daily data")
	step := flag.Float64("step", 0.5, "grid spacing in degrees")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *rainOut == "" || *boundaryOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -rain-out, -boundary-out")
	}
	if *from > *to {
		return fmt.Errorf("-from %d is after -to %d", *from, *to)
	}
	if *step <= 0 {
		return fmt.Errorf("-step must be positive")
	}

	for _, p := range []string{*rainOut, *boundaryOut} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
	}

	if err := fixture.WriteBoundaries(*boundaryOut, states); err != nil {
		return fmt.Errorf("writing boundaries: %w", err)
	}
	log.Printf("wrote %d states: %s", len(states), *boundaryOut)

	start := time.Date(*from, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(*to+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours() / 24)

	lats := fixture.Axis(6.5, *step, int(32 / *step)+1)
	lons := fixture.Axis(66.5, *step, int(33.5 / *step)+1)
	land := landMask(lats, lons)

	rng := rand.New(rand.NewPCG(*seed, *seed))
	grid := fixture.RainfallGrid{
		Start: start,
		Days:  days,
		Lats:  lats,
		Lons:  lons,
		Value: func(day, i, j int) float64 {
			if !land[i][j] {
				return math.NaN()
			}
			return dailyRainfall(rng, start.AddDate(0, 0, day), lats[i], lons[j])
		},
	}
	if err := fixture.WriteRainfall(*rainOut, grid); err != nil {
		return fmt.Errorf("writing rainfall: %w", err)
	}
	log.Printf("wrote %d days on a %dx%d grid: %s", days, len(lats), len(lons), *rainOut)
	return nil
}

func landMask(lats, lons []float64) [][]bool {
	mask := make([][]bool, len(lats))
	for i, lat := range lats {
		mask[i] = make([]bool, len(lons))
		for j, lon := range lons {
			p := geom.Point{X: lon, Y: lat}
			for _, s := range states {
				if p.Within(s.Polygon) != geom.Outside {
					mask[i][j] = true
					break
				}
			}
		}
	}
	return mask
}

// dailyRainfall draws an exponential amount on wet days. June to September
// is wetter everywhere, and the west coast and the north-east more so.
func dailyRainfall(rng *rand.Rand, day time.Time, lat, lon float64) float64 {
	wetChance, mean := 0.1, 4.0
	if m := day.Month(); m >= time.June && m <= time.September {
		wetChance, mean = 0.55, 14.0
	}
	if (lon < 76 && lat < 20) || lon > 89 {
		mean *= 2
	}
	if rng.Float64() >= wetChance {
		return 0
	}
	return math.Round(rng.ExpFloat64()*mean*10) / 10
}
