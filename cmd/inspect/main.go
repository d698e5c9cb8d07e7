// Command inspect checks the configured rainfall and boundary datasets before
// they are served: coordinate axes, time coverage, fill values, boundary
// names and extent, and the weeks retained for one year and threshold.
// It reads the same environment variables as the service.
//
// Usage:
//
//	RAINFALL_PATH=1901-2022.nc go run ./cmd/inspect -year 2020 -threshold 50
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/adapter/leaflet"
	"github.com/couchcryptid/rainfall-heatmap/internal/adapter/netcdf"
	"github.com/couchcryptid/rainfall-heatmap/internal/adapter/shapefile"
	"github.com/couchcryptid/rainfall-heatmap/internal/config"
	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
)

// phase tracks pass/fail for an inspection phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	year := flag.Int("year", domain.DefaultYear, "year whose retained weeks are listed")
	threshold := flag.Float64("threshold", domain.DefaultThreshold, "rainfall threshold in mm")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(context.Background(), cfg, *year, *threshold))
}

func run(ctx context.Context, cfg *config.Config, year int, threshold float64) int {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fmt.Println("=== Rainfall Dataset Inspection ===")
	fmt.Println()

	series, err := netcdf.Open(cfg.RainfallPath, netcdf.Variables{
		Time:     cfg.TimeVar,
		Lat:      cfg.LatVar,
		Lon:      cfg.LonVar,
		Rainfall: cfg.RainfallVar,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	defer series.Close()

	states, err := shapefile.Load(cfg.BoundaryPath, cfg.BoundaryNameField, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		inspectAxes(series),
		inspectTimes(series.Times()),
		inspectFirstDay(ctx, series),
		inspectBoundaries(states, series),
		inspectWeeks(ctx, series, cfg.WeekAnchor, year, threshold),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.notes) == 0 && p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for _, n := range p.notes {
			fmt.Printf("  %s\n", n)
		}
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll checks passed.")
		return 0
	}
	fmt.Println("\nInspection FAILED.")
	return 1
}

func inspectAxes(s domain.RainfallSeries) *phase {
	p := &phase{name: "Phase 1: Coordinate axes"}
	checkAxis(p, "latitude", s.Lats(), -90, 90)
	checkAxis(p, "longitude", s.Lons(), -180, 360)
	p.notef("grid: %d latitudes x %d longitudes", len(s.Lats()), len(s.Lons()))
	return p
}

func checkAxis(p *phase, name string, v []float64, lo, hi float64) {
	if len(v) == 0 {
		p.errorf("%s axis is empty", name)
		return
	}
	for i, x := range v {
		if math.IsNaN(x) || x < lo || x > hi {
			p.errorf("%s[%d] = %v is outside [%v, %v]", name, i, x, lo, hi)
		}
		if i > 0 && x <= v[i-1] {
			p.errorf("%s is not strictly ascending at index %d", name, i)
			return
		}
	}
	p.notef("%s: %.4f to %.4f", name, v[0], v[len(v)-1])
}

func inspectTimes(times []time.Time) *phase {
	p := &phase{name: "Phase 2: Daily time coverage"}
	if len(times) == 0 {
		p.errorf("time axis is empty")
		return p
	}
	gaps := 0
	for i := 1; i < len(times); i++ {
		if d := times[i].Sub(times[i-1]); d != 24*time.Hour {
			gaps++
			if gaps <= 5 {
				p.errorf("step of %s between %s and %s", d, times[i-1].Format(time.DateOnly), times[i].Format(time.DateOnly))
			}
		}
	}
	if gaps > 5 {
		p.errorf("%d more irregular steps", gaps-5)
	}
	p.notef("days: %d, %s to %s", len(times), times[0].Format(time.DateOnly), times[len(times)-1].Format(time.DateOnly))
	first, last := times[0].Year(), times[len(times)-1].Year()
	if first > domain.MinYear || last < domain.MaxYear {
		p.notef("years %d-%d do not cover the slider range %d-%d", first, last, domain.MinYear, domain.MaxYear)
	}
	return p
}

func inspectFirstDay(ctx context.Context, s domain.RainfallSeries) *phase {
	p := &phase{name: "Phase 3: Rainfall values (first day)"}
	grids, err := s.Slice(ctx, 0, 1)
	if err != nil {
		p.errorf("read first day: %v", err)
		return p
	}
	undefined, negative := 0, 0
	maxValue := math.Inf(-1)
	for _, v := range grids[0] {
		switch {
		case math.IsNaN(v):
			undefined++
		case v < 0:
			negative++
		default:
			maxValue = math.Max(maxValue, v)
		}
	}
	if negative > 0 {
		p.errorf("%d cells are negative; is the fill value declared?", negative)
	}
	if undefined == len(grids[0]) {
		p.errorf("every cell is undefined")
		return p
	}
	p.notef("cells: %d defined, %d undefined, max %.1f mm", len(grids[0])-undefined, undefined, maxValue)
	return p
}

func inspectBoundaries(ds *domain.BoundaryDataset, s domain.RainfallSeries) *phase {
	p := &phase{name: "Phase 4: State boundaries"}
	unnamed := 0
	for _, r := range ds.Regions {
		if r.Name == "" {
			unnamed++
		}
	}
	if unnamed > 0 {
		p.errorf("%d of %d regions have no name; check BOUNDARY_NAME_FIELD", unnamed, len(ds.Regions))
	}
	b := ds.Bounds()
	if b == nil {
		p.errorf("no region has a geometry")
		return p
	}
	p.notef("regions: %d, extent lon %.2f to %.2f, lat %.2f to %.2f", len(ds.Regions), b.Min.X, b.Max.X, b.Min.Y, b.Max.Y)

	lats, lons := s.Lats(), s.Lons()
	if len(lats) > 0 && len(lons) > 0 &&
		(b.Max.X < lons[0] || b.Min.X > lons[len(lons)-1] || b.Max.Y < lats[0] || b.Min.Y > lats[len(lats)-1]) {
		p.errorf("boundaries do not overlap the rainfall grid; is the shapefile projected without a .prj?")
	}
	return p
}

func inspectWeeks(ctx context.Context, s domain.RainfallSeries, anchor domain.WeekAnchor, year int, threshold float64) *phase {
	p := &phase{name: fmt.Sprintf("Phase 5: Retained weeks (%d, >%g mm)", year, threshold)}
	agg := domain.NewWeekAggregator(s, anchor, nil)
	weeks, err := agg.Weeks(ctx, year, threshold)
	if err != nil {
		p.errorf("aggregate: %v", err)
		return p
	}
	if len(weeks) == 0 {
		p.notef("no week of %d exceeds %g mm", year, threshold)
		return p
	}
	for _, w := range weeks {
		p.notef("week %2d  %-22s %6d points  max %7.1f mm", w.Week, leaflet.WeekLabel(w), w.Points, w.MaxRainfall)
	}
	return p
}
