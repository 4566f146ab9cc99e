package store

import (
	"context"

	"TrendSentinel/internal/cache"
)

// NoopStore is used when SQLite is not configured or cannot be opened. Every
// read is a miss and every write is dropped.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Upsert(context.Context, cache.Entry) error { return nil }
func (n *NoopStore) Query(context.Context, cache.Key) (cache.Entry, bool, error) {
	return cache.Entry{}, false, nil
}
func (n *NoopStore) Delete(context.Context, cache.Key) error              { return nil }
func (n *NoopStore) DeleteAll(context.Context) error                      { return nil }
func (n *NoopStore) RecordRun(context.Context, *RunRecord) error          { return nil }
func (n *NoopStore) RecentRuns(context.Context, int) ([]RunRecord, error) { return nil, nil }
func (n *NoopStore) Close() error                                         { return nil }
