package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDurable struct {
	mock.Mock
}

func (m *mockDurable) Upsert(ctx context.Context, e Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockDurable) Query(ctx context.Context, key Key) (Entry, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(Entry), args.Bool(1), args.Error(2)
}

func (m *mockDurable) Delete(ctx context.Context, key Key) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockDurable) DeleteAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// mapDurable is a working DurableStore backed by a MemoryStore.
type mapDurable struct{ *MemoryStore }

func (d mapDurable) Upsert(_ context.Context, e Entry) error { d.Put(e); return nil }
func (d mapDurable) Query(_ context.Context, k Key) (Entry, bool, error) {
	e, ok := d.Get(k)
	return e, ok, nil
}
func (d mapDurable) Delete(_ context.Context, k Key) error { d.MemoryStore.Delete(k); return nil }
func (d mapDurable) DeleteAll(context.Context) error       { d.Clear(); return nil }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestTiered_FreshnessBoundary(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2024, 1, 17, 10, 0, 0, 0, time.UTC)}
	tc := NewTiered(nil, NewMemoryStore(), WithClock(clk.now))
	key := CandleKey("TCS", "daily")

	tc.Put(ctx, key, []byte(`[1]`))

	clk.t = clk.t.Add(15*time.Minute - time.Nanosecond)
	_, tier, ok := tc.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, TierMemory, tier)

	clk.t = clk.t.Add(time.Nanosecond)
	_, _, ok = tc.Get(ctx, key)
	assert.False(t, ok, "age equal to max age is stale")
}

func TestTiered_DurableFirst(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Now()}
	durable := mapDurable{NewMemoryStore()}
	memory := NewMemoryStore()
	tc := NewTiered(durable, memory, WithClock(clk.now))
	key := FundamentalsKey("INFY")

	tc.Put(ctx, key, []byte(`{"pe":20}`))
	payload, tier, ok := tc.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, TierDurable, tier)
	assert.JSONEq(t, `{"pe":20}`, string(payload))

	// A stale durable entry falls through to a fresh memory entry.
	durable.Put(Entry{Key: key, Payload: []byte(`{"pe":1}`), WrittenAt: clk.t.Add(-48 * time.Hour)})
	payload, tier, ok = tc.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, TierMemory, tier)
	assert.JSONEq(t, `{"pe":20}`, string(payload))
}

func TestTiered_DurableFailureDegrades(t *testing.T) {
	ctx := context.Background()
	key := CandleKey("SBIN", "15min")
	durable := new(mockDurable)
	durable.On("Upsert", ctx, mock.Anything).Return(errors.New("disk full"))
	durable.On("Query", ctx, key).Return(Entry{}, false, errors.New("locked"))

	tc := NewTiered(durable, NewMemoryStore())
	tc.Put(ctx, key, []byte(`[]`))

	payload, tier, ok := tc.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, TierMemory, tier)
	assert.Equal(t, []byte(`[]`), payload)

	_, ok = tc.GetDurable(ctx, key, 24*time.Hour)
	assert.False(t, ok)
	durable.AssertExpectations(t)
}

func TestTiered_StaleRead(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Now()}
	durable := mapDurable{NewMemoryStore()}
	tc := NewTiered(durable, NewMemoryStore(), WithClock(clk.now))
	key := CandleKey("ITC", "weekly")

	durable.Put(Entry{Key: key, Payload: []byte(`[{"open":1}]`), WrittenAt: clk.t.Add(-3 * time.Hour)})

	_, _, ok := tc.Get(ctx, key)
	assert.False(t, ok)

	var v []map[string]float64
	assert.True(t, tc.GetStaleJSON(ctx, key, 24*time.Hour, &v))
	assert.Equal(t, 1.0, v[0]["open"])

	assert.False(t, tc.GetStaleJSON(ctx, key, 2*time.Hour, &v))
}

func TestTiered_JSONRoundTripAndClear(t *testing.T) {
	ctx := context.Background()
	durable := mapDurable{NewMemoryStore()}
	memory := NewMemoryStore()
	tc := NewTiered(durable, memory, WithMaxAge(KindSymbolList, time.Hour))
	key := SymbolListKey("nifty50")

	require.NoError(t, tc.PutJSON(ctx, key, []string{"TCS", "INFY"}))
	var got []string
	_, ok := tc.GetJSON(ctx, key, &got)
	require.True(t, ok)
	assert.Equal(t, []string{"TCS", "INFY"}, got)
	assert.Equal(t, time.Hour, tc.MaxAge(KindSymbolList))

	require.NoError(t, tc.Clear(ctx))
	assert.Equal(t, 0, memory.Len())
	assert.Equal(t, 0, durable.Len())
	_, ok = tc.GetJSON(ctx, key, &got)
	assert.False(t, ok)
}

func TestTiered_ClearError(t *testing.T) {
	ctx := context.Background()
	durable := new(mockDurable)
	durable.On("DeleteAll", ctx).Return(errors.New("gone"))
	tc := NewTiered(durable, NewMemoryStore())
	assert.Error(t, tc.Clear(ctx))
}
