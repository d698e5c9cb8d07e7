package domain

import (
	"fmt"
	"time"
)

// WeeklySnapshot is one retained week published by the export command.
type WeeklySnapshot struct {
	Table       WeeklyPointTable `json:"table"`
	Summary     Summary          `json:"summary"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// NewWeeklySnapshot stamps a table with its summary and the current time.
func NewWeeklySnapshot(table WeeklyPointTable) WeeklySnapshot {
	return WeeklySnapshot{
		Table:       table,
		Summary:     Summarize(table.Points),
		GeneratedAt: Now(),
	}
}

// Key identifies the snapshot by year and retained-week index, e.g. "2020-W03".
func (s WeeklySnapshot) Key() string {
	return fmt.Sprintf("%d-W%02d", s.Table.Selection.Year, s.Table.Selection.Week)
}
