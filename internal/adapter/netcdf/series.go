package netcdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"reflect"
	"slices"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/ctessum/cdf"
)

// readChunk is the number of values requested per Read on 1-D variables.
const readChunk = 4096

// Variables names the NetCDF variables that hold the rainfall grid and its coordinates.
type Variables struct {
	Time     string
	Lat      string
	Lon      string
	Rainfall string
}

// DefaultVariables returns the IMD variable names.
func DefaultVariables() Variables {
	return Variables{Time: "TIME", Lat: "LATITUDE", Lon: "LONGITUDE", Rainfall: "RAINFALL"}
}

// Series implements domain.RainfallSeries over a NetCDF classic file. The
// coordinates are decoded at open; rainfall grids are read on demand.
type Series struct {
	file  *os.File
	nc    *cdf.File
	vars  Variables
	times []time.Time
	lats  []float64
	lons  []float64
	fills []float64
}

// Open reads the coordinate variables of the file at path and validates the
// rainfall variable's shape. Any failure is a *domain.DataLoadError.
func Open(path string, vars Variables, logger *slog.Logger) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, loadError(path, err)
	}

	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, loadError(path, fmt.Errorf("not a NetCDF classic file: %w", err))
	}

	s := &Series{file: f, nc: nc, vars: vars}
	if err := s.readCoordinates(); err != nil {
		f.Close()
		return nil, loadError(path, err)
	}

	logger.Info("rainfall dataset loaded",
		"path", path,
		"times", len(s.times),
		"lats", len(s.lats),
		"lons", len(s.lons),
		"first", s.times[0].Format(time.DateOnly),
		"last", s.times[len(s.times)-1].Format(time.DateOnly),
	)
	return s, nil
}

func loadError(path string, err error) error {
	return &domain.DataLoadError{Source: "rainfall", Path: path, Err: err}
}

func (s *Series) readCoordinates() error {
	for _, name := range []string{s.vars.Time, s.vars.Lat, s.vars.Lon, s.vars.Rainfall} {
		if !slices.Contains(s.nc.Header.Variables(), name) {
			return fmt.Errorf("variable %q not found", name)
		}
	}

	var err error
	if s.lats, err = s.readVector(s.vars.Lat); err != nil {
		return err
	}
	if s.lons, err = s.readVector(s.vars.Lon); err != nil {
		return err
	}
	if s.times, err = s.readTimes(); err != nil {
		return err
	}
	if len(s.times) == 0 || len(s.lats) == 0 || len(s.lons) == 0 {
		return fmt.Errorf("empty grid: %d times, %d lats, %d lons", len(s.times), len(s.lats), len(s.lons))
	}

	lengths := s.nc.Header.Lengths(s.vars.Rainfall)
	if len(lengths) != 3 {
		return fmt.Errorf("%s has %d dimensions, want 3 (time, lat, lon)", s.vars.Rainfall, len(lengths))
	}
	if lengths[1] != len(s.lats) || lengths[2] != len(s.lons) {
		return fmt.Errorf("%s grid is %dx%d, coordinates are %dx%d",
			s.vars.Rainfall, lengths[1], lengths[2], len(s.lats), len(s.lons))
	}

	for _, attr := range []string{"_FillValue", "missing_value"} {
		s.fills = append(s.fills, attrFloats(s.nc.Header.GetAttribute(s.vars.Rainfall, attr))...)
	}
	return nil
}

func (s *Series) readTimes() ([]time.Time, error) {
	raw, err := s.readVector(s.vars.Time)
	if err != nil {
		return nil, err
	}
	units, _ := s.nc.Header.GetAttribute(s.vars.Time, "units").(string)
	calendar, _ := s.nc.Header.GetAttribute(s.vars.Time, "calendar").(string)
	if err := checkCalendar(calendar); err != nil {
		return nil, err
	}
	step, ref, err := parseTimeUnits(units)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.vars.Time, err)
	}

	times := make([]time.Time, len(raw))
	for i, v := range raw {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%s[%d] is undefined", s.vars.Time, i)
		}
		times[i] = ref.Add(time.Duration(math.Round(v * float64(step))))
		if i > 0 && !times[i].After(times[i-1]) {
			return nil, fmt.Errorf("%s is not strictly ascending at index %d", s.vars.Time, i)
		}
	}
	return times, nil
}

// readVector reads an entire 1-D variable as float64.
func (s *Series) readVector(name string) ([]float64, error) {
	r := s.nc.Reader(name, nil, nil)
	var out []float64
	for {
		buf := r.Zero(readChunk)
		n, err := r.Read(buf)
		vals, cerr := toFloat64s(buf, n)
		if cerr != nil {
			return nil, fmt.Errorf("%s: %w", name, cerr)
		}
		out = append(out, vals...)
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
	}
}

func (s *Series) Times() []time.Time { return s.times }
func (s *Series) Lats() []float64    { return s.lats }
func (s *Series) Lons() []float64    { return s.lons }

// Slice reads the rainfall grids for time indices [start, end). Fill values
// and non-finite samples become NaN.
func (s *Series) Slice(ctx context.Context, start, end int) ([][]float64, error) {
	if start < 0 || end > len(s.times) || start > end {
		return nil, fmt.Errorf("slice [%d,%d) out of range 0..%d", start, end, len(s.times))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cells := len(s.lats) * len(s.lons)
	want := (end - start) * cells
	r := s.nc.Reader(s.vars.Rainfall, []int{start, 0, 0}, []int{end, len(s.lats), len(s.lons)})

	values := make([]float64, 0, want)
	for len(values) < want {
		buf := r.Zero(want - len(values))
		n, err := r.Read(buf)
		vals, cerr := toFloat64s(buf, n)
		if cerr != nil {
			return nil, fmt.Errorf("%s: %w", s.vars.Rainfall, cerr)
		}
		values = append(values, vals...)
		if errors.Is(err, io.EOF) || n == 0 {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.vars.Rainfall, err)
		}
	}
	if len(values) != want {
		return nil, fmt.Errorf("read %s: got %d values, want %d", s.vars.Rainfall, len(values), want)
	}

	for i, v := range values {
		if math.IsInf(v, 0) || slices.Contains(s.fills, v) {
			values[i] = math.NaN()
		}
	}

	grids := make([][]float64, end-start)
	for t := range grids {
		grids[t] = values[t*cells : (t+1)*cells : (t+1)*cells]
	}
	return grids, nil
}

// Close releases the file handle.
func (s *Series) Close() error {
	return s.file.Close()
}

// toFloat64s converts the first n elements of a slice returned by a cdf
// Reader into float64.
func toFloat64s(buf any, n int) ([]float64, error) {
	out := make([]float64, n)
	switch v := buf.(type) {
	case []float64:
		copy(out, v[:n])
	case []float32:
		for i := range out {
			out[i] = float64(v[i])
		}
	case []int32:
		for i := range out {
			out[i] = float64(v[i])
		}
	case []int16:
		for i := range out {
			out[i] = float64(v[i])
		}
	case []int8:
		for i := range out {
			out[i] = float64(v[i])
		}
	case []uint8:
		for i := range out {
			out[i] = float64(v[i])
		}
	default:
		return nil, fmt.Errorf("unsupported variable type %T", buf)
	}
	return out, nil
}

// attrFloats returns a numeric attribute value as float64, or nil.
func attrFloats(attr any) []float64 {
	if attr == nil {
		return nil
	}
	v := reflect.ValueOf(attr)
	if v.Kind() != reflect.Slice {
		return nil
	}
	out, err := toFloat64s(attr, v.Len())
	if err != nil {
		return nil
	}
	return out
}
