package domain

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Slider bounds and defaults for the three user-adjustable parameters.
const (
	MinYear     = 1901
	MaxYear     = 2022
	DefaultYear = 2020

	MinThreshold     = 0.0
	MaxThreshold     = 200.0
	DefaultThreshold = 20.0

	MinWeek     = 1
	MaxWeek     = 52
	DefaultWeek = 1
)

// SelectionParameters is the user's current choice of year, rainfall
// threshold (mm) and week index among the buckets surviving the threshold.
type SelectionParameters struct {
	Year      int     `json:"year"`
	Threshold float64 `json:"threshold"`
	Week      int     `json:"week"`
}

// DefaultSelection returns the slider defaults.
func DefaultSelection() SelectionParameters {
	return SelectionParameters{Year: DefaultYear, Threshold: DefaultThreshold, Week: DefaultWeek}
}

// Validate checks the parameters against the slider bounds.
func (s SelectionParameters) Validate() error {
	if s.Year < MinYear || s.Year > MaxYear {
		return &ValidationError{Field: "year", Value: strconv.Itoa(s.Year),
			Reason: fmt.Sprintf("must be between %d and %d", MinYear, MaxYear)}
	}
	if math.IsNaN(s.Threshold) || s.Threshold < MinThreshold || s.Threshold > MaxThreshold {
		return &ValidationError{Field: "threshold", Value: strconv.FormatFloat(s.Threshold, 'g', -1, 64),
			Reason: fmt.Sprintf("must be between %g and %g", MinThreshold, MaxThreshold)}
	}
	if s.Week < MinWeek || s.Week > MaxWeek {
		return &ValidationError{Field: "week", Value: strconv.Itoa(s.Week),
			Reason: fmt.Sprintf("must be between %d and %d", MinWeek, MaxWeek)}
	}
	return nil
}

// Key returns a stable identifier for the selection, used as a cache key.
func (s SelectionParameters) Key() string {
	return fmt.Sprintf("%d|%s|%d", s.Year, strconv.FormatFloat(s.Threshold, 'f', -1, 64), s.Week)
}

// Query encodes the selection as URL query parameters.
func (s SelectionParameters) Query() url.Values {
	return url.Values{
		"year":      {strconv.Itoa(s.Year)},
		"threshold": {strconv.FormatFloat(s.Threshold, 'f', -1, 64)},
		"week":      {strconv.Itoa(s.Week)},
	}
}

// ParseSelection reads year, threshold and week from query parameters.
// Missing or empty keys fall back to the slider defaults.
func ParseSelection(q url.Values) (SelectionParameters, error) {
	sel := DefaultSelection()

	if v := strings.TrimSpace(q.Get("year")); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return sel, &ValidationError{Field: "year", Value: v, Reason: "must be an integer"}
		}
		sel.Year = year
	}
	if v := strings.TrimSpace(q.Get("threshold")); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return sel, &ValidationError{Field: "threshold", Value: v, Reason: "must be a number"}
		}
		sel.Threshold = threshold
	}
	if v := strings.TrimSpace(q.Get("week")); v != "" {
		week, err := strconv.Atoi(v)
		if err != nil {
			return sel, &ValidationError{Field: "week", Value: v, Reason: "must be an integer"}
		}
		sel.Week = week
	}

	return sel, sel.Validate()
}
