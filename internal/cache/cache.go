// Package cache is a two-tier (durable, then in-process) cache of JSON payloads
// with per-kind freshness windows.
package cache

import (
	"context"
	"strings"
	"time"
)

// Kind partitions cache entries and selects their freshness window.
type Kind string

const (
	KindCandles       Kind = "ohlc"
	KindFundamentals  Kind = "fundamentals"
	KindInstitutional Kind = "institutional"
	KindSymbolList    Kind = "stock_list"
	KindIndexSummary  Kind = "index_summary"
)

// Kinds lists every cache kind.
var Kinds = []Kind{KindCandles, KindFundamentals, KindInstitutional, KindSymbolList, KindIndexSummary}

// DefaultMaxAge is the freshness window of each kind.
var DefaultMaxAge = map[Kind]time.Duration{
	KindCandles:       15 * time.Minute,
	KindFundamentals:  24 * time.Hour,
	KindInstitutional: 90 * 24 * time.Hour,
	KindSymbolList:    24 * time.Hour,
	KindIndexSummary:  15 * time.Minute,
}

// Key identifies one cache entry.
type Key struct {
	Kind Kind
	ID   string
}

func (k Key) String() string { return string(k.Kind) + "/" + k.ID }

func CandleKey(symbol, timeframe string) Key {
	return Key{Kind: KindCandles, ID: strings.ToUpper(symbol) + ":" + timeframe}
}

func FundamentalsKey(symbol string) Key {
	return Key{Kind: KindFundamentals, ID: strings.ToUpper(symbol)}
}

func InstitutionalKey(symbol string) Key {
	return Key{Kind: KindInstitutional, ID: strings.ToUpper(symbol)}
}

func SymbolListKey(list string) Key {
	return Key{Kind: KindSymbolList, ID: strings.ToLower(list)}
}

func IndexSummaryKey(index string) Key {
	return Key{Kind: KindIndexSummary, ID: strings.ToUpper(index)}
}

// Entry is a stored payload and the time it was written.
type Entry struct {
	Key       Key
	Payload   []byte
	WrittenAt time.Time
}

// Fresh reports whether the entry is strictly younger than maxAge at now.
func (e Entry) Fresh(now time.Time, maxAge time.Duration) bool {
	return now.Sub(e.WrittenAt) < maxAge
}

// DurableStore persists entries across restarts.
type DurableStore interface {
	Upsert(ctx context.Context, e Entry) error
	Query(ctx context.Context, key Key) (Entry, bool, error)
	Delete(ctx context.Context, key Key) error
	DeleteAll(ctx context.Context) error
}

// Store is the in-process tier.
type Store interface {
	Get(key Key) (Entry, bool)
	Put(e Entry)
	Delete(key Key)
	Clear()
}

// Tier names where a hit came from.
type Tier string

const (
	TierDurable Tier = "durable"
	TierMemory  Tier = "memory"
	TierNone    Tier = "miss"
)
