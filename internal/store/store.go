package store

import (
	"context"
	"time"

	"TrendSentinel/internal/cache"
)

// RunRecord summarises one batch scan over a symbol universe.
type RunRecord struct {
	ID         string
	List       string
	StartedAt  time.Time
	FinishedAt time.Time
	Symbols    int
	Errors     int
	TripleUp   int
	TripleDown int
	TopSymbol  string
	TopScore   int
}

// Store is the durable cache tier plus the scan history.
type Store interface {
	cache.DurableStore
	RecordRun(ctx context.Context, run *RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
	Close() error
}
