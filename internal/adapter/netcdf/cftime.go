package netcdf

import (
	"fmt"
	"strings"
	"time"
)

var timeSteps = map[string]time.Duration{
	"days":    24 * time.Hour,
	"day":     24 * time.Hour,
	"hours":   time.Hour,
	"hour":    time.Hour,
	"minutes": time.Minute,
	"minute":  time.Minute,
	"seconds": time.Second,
	"second":  time.Second,
}

// Reference dates are often written without zero padding ("1900-12-31 0:0:0").
var referenceLayouts = []string{
	"2006-1-2 15:4:5",
	"2006-1-2T15:4:5",
	"2006-1-2 15:4",
	"2006-1-2",
}

// parseTimeUnits parses a CF "<unit> since <reference>" string.
func parseTimeUnits(units string) (time.Duration, time.Time, error) {
	unit, ref, ok := strings.Cut(strings.TrimSpace(units), " since ")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("time units %q: want \"<unit> since <date>\"", units)
	}
	step, ok := timeSteps[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("time units %q: unsupported unit %q", units, unit)
	}

	ref = strings.TrimSpace(ref)
	ref = strings.TrimSuffix(ref, "Z")
	ref = strings.TrimSuffix(ref, " UTC")
	if i := strings.IndexByte(ref, '.'); i > 0 {
		ref = ref[:i]
	}
	for _, layout := range referenceLayouts {
		if t, err := time.ParseInLocation(layout, ref, time.UTC); err == nil {
			return step, t, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("time units %q: unparseable reference date %q", units, ref)
}

// checkCalendar accepts the calendars that map onto the proleptic Gregorian
// calendar for the dataset's date range.
func checkCalendar(calendar string) error {
	switch strings.ToLower(strings.TrimSpace(calendar)) {
	case "", "standard", "gregorian", "proleptic_gregorian":
		return nil
	default:
		return fmt.Errorf("unsupported calendar %q", calendar)
	}
}
