package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/rs/zerolog/log"
)

// Tiered consults the durable store first and the in-process store second.
// Durable store failures are logged and treated as misses.
type Tiered struct {
	durable DurableStore
	memory  Store
	maxAge  map[Kind]time.Duration
	lookups metrics.Counter
	now     func() time.Time
}

// Option configures a Tiered cache.
type Option func(*Tiered)

// WithMaxAge overrides the freshness window of one kind.
func WithMaxAge(kind Kind, d time.Duration) Option {
	return func(t *Tiered) { t.maxAge[kind] = d }
}

// WithLookupCounter counts lookups labelled by "kind" and "tier".
func WithLookupCounter(c metrics.Counter) Option {
	return func(t *Tiered) { t.lookups = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tiered) { t.now = now }
}

// NewTiered builds a cache over the given tiers. durable may be nil.
func NewTiered(durable DurableStore, memory Store, opts ...Option) *Tiered {
	t := &Tiered{
		durable: durable,
		memory:  memory,
		maxAge:  make(map[Kind]time.Duration, len(DefaultMaxAge)),
		lookups: discard.NewCounter(),
		now:     time.Now,
	}
	for k, v := range DefaultMaxAge {
		t.maxAge[k] = v
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// MaxAge returns the freshness window of kind.
func (t *Tiered) MaxAge(kind Kind) time.Duration { return t.maxAge[kind] }

// Get returns a fresh payload for key and the tier that served it.
func (t *Tiered) Get(ctx context.Context, key Key) ([]byte, Tier, bool) {
	maxAge := t.maxAge[key.Kind]
	now := t.now()

	if e, ok := t.queryDurable(ctx, key); ok && e.Fresh(now, maxAge) {
		t.count(key, TierDurable)
		return e.Payload, TierDurable, true
	}
	if e, ok := t.memory.Get(key); ok && e.Fresh(now, maxAge) {
		t.count(key, TierMemory)
		return e.Payload, TierMemory, true
	}
	t.count(key, TierNone)
	return nil, TierNone, false
}

// GetDurable reads the durable tier with a caller-chosen horizon. It backs the
// stale fallback used when a live refresh fails.
func (t *Tiered) GetDurable(ctx context.Context, key Key, horizon time.Duration) ([]byte, bool) {
	e, ok := t.queryDurable(ctx, key)
	if !ok || !e.Fresh(t.now(), horizon) {
		return nil, false
	}
	return e.Payload, true
}

// Put writes payload to both tiers.
func (t *Tiered) Put(ctx context.Context, key Key, payload []byte) {
	e := Entry{Key: key, Payload: payload, WrittenAt: t.now()}
	if t.durable != nil {
		if err := t.durable.Upsert(ctx, e); err != nil {
			log.Warn().Err(err).Str("key", key.String()).Msg("durable cache write failed")
		}
	}
	t.memory.Put(e)
}

// Clear empties both tiers.
func (t *Tiered) Clear(ctx context.Context) error {
	t.memory.Clear()
	if t.durable == nil {
		return nil
	}
	if err := t.durable.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear durable cache: %w", err)
	}
	return nil
}

// Invalidate removes one key from both tiers.
func (t *Tiered) Invalidate(ctx context.Context, key Key) {
	t.memory.Delete(key)
	if t.durable != nil {
		if err := t.durable.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key.String()).Msg("durable cache delete failed")
		}
	}
}

// GetJSON decodes a fresh payload into v.
func (t *Tiered) GetJSON(ctx context.Context, key Key, v any) (Tier, bool) {
	payload, tier, ok := t.Get(ctx, key)
	if !ok {
		return TierNone, false
	}
	if err := json.Unmarshal(payload, v); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("undecodable cache payload")
		return TierNone, false
	}
	return tier, true
}

// GetStaleJSON decodes a durable payload no older than horizon into v.
func (t *Tiered) GetStaleJSON(ctx context.Context, key Key, horizon time.Duration, v any) bool {
	payload, ok := t.GetDurable(ctx, key, horizon)
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, v); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("undecodable stale payload")
		return false
	}
	return true
}

// PutJSON encodes v and writes it to both tiers.
func (t *Tiered) PutJSON(ctx context.Context, key Key, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	t.Put(ctx, key, payload)
	return nil
}

func (t *Tiered) queryDurable(ctx context.Context, key Key) (Entry, bool) {
	if t.durable == nil {
		return Entry{}, false
	}
	e, ok, err := t.durable.Query(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("durable cache read failed")
		return Entry{}, false
	}
	return e, ok
}

func (t *Tiered) count(key Key, tier Tier) {
	t.lookups.With("kind", string(key.Kind), "tier", string(tier)).Add(1)
}
