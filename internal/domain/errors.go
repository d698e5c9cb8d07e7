package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is the non-fatal condition of a selection whose point table
// is empty. The map still renders with boundaries only.
var ErrEmptyResult = errors.New("no rainfall points for this selection")

// DataLoadError reports a missing or malformed input dataset. It is fatal at startup.
type DataLoadError struct {
	Source string // "rainfall" or "boundary"
	Path   string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load %s dataset %s: %v", e.Source, e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// SelectionOutOfRangeError reports a week index beyond the number of buckets
// that survive the threshold filter for the selected year.
type SelectionOutOfRangeError struct {
	Year      int
	Week      int
	Available int
}

func (e *SelectionOutOfRangeError) Error() string {
	if e.Available == 0 {
		return fmt.Sprintf("no week in %d exceeds the threshold", e.Year)
	}
	return fmt.Sprintf("week %d requested but only %d weeks in %d exceed the threshold", e.Week, e.Available, e.Year)
}

// ValidationError reports a malformed or out-of-bounds selection parameter.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// UserMessage converts a per-interaction error into the text shown next to the
// map. It returns "" for errors that are not per-interaction conditions.
func UserMessage(err error) string {
	var oor *SelectionOutOfRangeError
	switch {
	case errors.As(err, &oor):
		if oor.Available == 0 {
			return fmt.Sprintf("No data for this selection: no week in %d has rainfall above the threshold.", oor.Year)
		}
		return fmt.Sprintf("No data for this selection: only %d weeks in %d have rainfall above the threshold.", oor.Available, oor.Year)
	case errors.Is(err, ErrEmptyResult):
		return "No rainfall points above the threshold for this selection."
	default:
		return ""
	}
}
