package domain

import "context"

// TableSource produces the weekly point table for a selection.
// *WeekAggregator is the canonical implementation.
type TableSource interface {
	Table(ctx context.Context, sel SelectionParameters) (WeeklyPointTable, error)
}

// Scoped is implemented by table sources and point filters whose output
// depends on more than the selection. Equal scopes produce equal tables.
type Scoped interface {
	Scope() string
}

// TableStore keeps computed tables keyed by source scope and SelectionParameters.Key.
type TableStore interface {
	Get(ctx context.Context, key string) (WeeklyPointTable, bool, error)
	Put(ctx context.Context, key string, table WeeklyPointTable) error
}
