package domain

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
)

// WeekAnchor selects how a year is partitioned into 7-day buckets.
type WeekAnchor string

const (
	WeekAnchorJan1   WeekAnchor = "jan1"
	WeekAnchorSunday WeekAnchor = "sunday"
)

// ParseWeekAnchor validates an anchor name.
func ParseWeekAnchor(s string) (WeekAnchor, error) {
	switch a := WeekAnchor(s); a {
	case WeekAnchorJan1, WeekAnchorSunday:
		return a, nil
	default:
		return "", fmt.Errorf("unknown week anchor %q (want %q or %q)", s, WeekAnchorJan1, WeekAnchorSunday)
	}
}

// Bucket is one weekly window. From and To index the series times [From, To);
// Start and End are the first and last calendar dates the window covers.
type Bucket struct {
	Start time.Time
	End   time.Time
	From  int
	To    int
}

// YearBounds returns the index range [from, to) of times that fall in year.
// times must be ascending.
func YearBounds(times []time.Time, year int) (from, to int) {
	from = sort.Search(len(times), func(i int) bool { return times[i].UTC().Year() >= year })
	to = sort.Search(len(times), func(i int) bool { return times[i].UTC().Year() > year })
	return from, to
}

// WeeklyBuckets partitions the samples of year into consecutive buckets
// ordered by time. Windows without samples produce no bucket.
func WeeklyBuckets(times []time.Time, year int, anchor WeekAnchor) []Bucket {
	from, to := YearBounds(times, year)
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	dec31 := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	var buckets []Bucket
	for i := from; i < to; i++ {
		start, end := window(dateOf(times[i]), jan1, dec31, anchor)
		if n := len(buckets); n > 0 && buckets[n-1].Start.Equal(start) {
			buckets[n-1].To = i + 1
			continue
		}
		buckets = append(buckets, Bucket{Start: start, End: end, From: i, To: i + 1})
	}
	return buckets
}

func window(day, jan1, dec31 time.Time, anchor WeekAnchor) (start, end time.Time) {
	switch anchor {
	case WeekAnchorSunday:
		end = day.AddDate(0, 0, (7-int(day.Weekday()))%7)
		start = end.AddDate(0, 0, -6)
	default:
		start = jan1.AddDate(0, 0, 7*((day.YearDay()-1)/7))
		end = start.AddDate(0, 0, 6)
	}
	if start.Before(jan1) {
		start = jan1
	}
	if end.After(dec31) {
		end = dec31
	}
	return start, end
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SumGrids adds grids cell by cell, skipping NaN samples. A cell without any
// defined sample totals 0.
func SumGrids(grids [][]float64) []float64 {
	if len(grids) == 0 {
		return nil
	}
	totals := make([]float64, len(grids[0]))
	for _, g := range grids {
		for c, v := range g {
			if math.IsNaN(v) {
				continue
			}
			totals[c] += v
		}
	}
	return totals
}

// Exceeds reports whether any total is strictly above threshold.
func Exceeds(totals []float64, threshold float64) bool {
	for _, v := range totals {
		if v > threshold {
			return true
		}
	}
	return false
}

// PointsAbove flattens totals into points with rainfall strictly above
// threshold, in grid order. filter may be nil.
func PointsAbove(totals, lats, lons []float64, threshold float64, filter PointFilter) []Point {
	nlon := len(lons)
	points := make([]Point, 0)
	for c, v := range totals {
		// NaN compares false and is dropped here too.
		if !(v > threshold) {
			continue
		}
		lat, lon := lats[c/nlon], lons[c%nlon]
		if filter != nil && !filter.Contains(lat, lon) {
			continue
		}
		points = append(points, Point{Lat: lat, Lon: lon, Rainfall: v})
	}
	return points
}

// WeekAggregator turns a rainfall series into weekly point tables.
type WeekAggregator struct {
	series RainfallSeries
	anchor WeekAnchor
	filter PointFilter
}

// NewWeekAggregator creates an aggregator. filter may be nil to keep every grid point.
func NewWeekAggregator(series RainfallSeries, anchor WeekAnchor, filter PointFilter) *WeekAggregator {
	if anchor == "" {
		anchor = WeekAnchorJan1
	}
	return &WeekAggregator{series: series, anchor: anchor, filter: filter}
}

// Scope identifies everything besides the selection that shapes the tables:
// the week anchor, the point filter and the series' time and grid axes.
func (a *WeekAggregator) Scope() string {
	h := xxhash.New()
	times, lats, lons := a.series.Times(), a.series.Lats(), a.series.Lons()
	fmt.Fprintf(h, "times=%d", len(times))
	if len(times) > 0 {
		fmt.Fprintf(h, ",%d,%d", times[0].Unix(), times[len(times)-1].Unix())
	}
	fmt.Fprintf(h, ";lats=%v;lons=%v", lats, lons)
	switch f := a.filter.(type) {
	case nil:
		fmt.Fprint(h, ";filter=none")
	case Scoped:
		fmt.Fprintf(h, ";filter=%s", f.Scope())
	default:
		fmt.Fprintf(h, ";filter=%T", f)
	}
	return fmt.Sprintf("%s-%016x", a.anchor, h.Sum64())
}

// Table returns the points of the sel.Week-th bucket, among those of sel.Year
// whose totals exceed sel.Threshold. When the selected bucket leaves no point
// after filtering, the table is returned together with ErrEmptyResult.
func (a *WeekAggregator) Table(ctx context.Context, sel SelectionParameters) (WeeklyPointTable, error) {
	if err := sel.Validate(); err != nil {
		return WeeklyPointTable{}, err
	}

	var (
		table WeeklyPointTable
		found bool
	)
	available, err := a.scan(ctx, sel.Year, sel.Threshold, func(week int, b Bucket, totals []float64) bool {
		if week < sel.Week {
			return true
		}
		table = WeeklyPointTable{
			Selection: sel,
			Start:     b.Start,
			End:       b.End,
			Points:    PointsAbove(totals, a.series.Lats(), a.series.Lons(), sel.Threshold, a.filter),
		}
		found = true
		return false
	})
	if err != nil {
		return WeeklyPointTable{}, err
	}
	if !found {
		return WeeklyPointTable{}, &SelectionOutOfRangeError{Year: sel.Year, Week: sel.Week, Available: available}
	}
	if len(table.Points) == 0 {
		return table, ErrEmptyResult
	}
	return table, nil
}

// Weeks lists every bucket of year whose totals exceed threshold.
func (a *WeekAggregator) Weeks(ctx context.Context, year int, threshold float64) ([]WeekSummary, error) {
	var weeks []WeekSummary
	_, err := a.scan(ctx, year, threshold, func(week int, b Bucket, totals []float64) bool {
		points := PointsAbove(totals, a.series.Lats(), a.series.Lons(), threshold, a.filter)
		weeks = append(weeks, WeekSummary{
			Week:        week,
			Start:       b.Start,
			End:         b.End,
			Points:      len(points),
			MaxRainfall: Summarize(points).Max,
		})
		return true
	})
	return weeks, err
}

// Tables returns the point tables of every bucket of year whose totals exceed
// threshold, in week order. Tables may be empty when a filter is set.
func (a *WeekAggregator) Tables(ctx context.Context, year int, threshold float64) ([]WeeklyPointTable, error) {
	var tables []WeeklyPointTable
	_, err := a.scan(ctx, year, threshold, func(week int, b Bucket, totals []float64) bool {
		tables = append(tables, WeeklyPointTable{
			Selection: SelectionParameters{Year: year, Threshold: threshold, Week: week},
			Start:     b.Start,
			End:       b.End,
			Points:    PointsAbove(totals, a.series.Lats(), a.series.Lons(), threshold, a.filter),
		})
		return true
	})
	return tables, err
}

// scan sums each bucket of year in order and calls visit with the 1-based
// index of every bucket exceeding threshold, until visit returns false.
// It returns how many exceeding buckets were visited.
func (a *WeekAggregator) scan(ctx context.Context, year int, threshold float64, visit func(week int, b Bucket, totals []float64) bool) (int, error) {
	week := 0
	for _, b := range WeeklyBuckets(a.series.Times(), year, a.anchor) {
		grids, err := a.series.Slice(ctx, b.From, b.To)
		if err != nil {
			return week, fmt.Errorf("read %s..%s: %w", b.Start.Format(time.DateOnly), b.End.Format(time.DateOnly), err)
		}
		totals := SumGrids(grids)
		if !Exceeds(totals, threshold) {
			continue
		}
		week++
		if !visit(week, b, totals) {
			return week, nil
		}
	}
	return week, nil
}
