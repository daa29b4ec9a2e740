package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boma/quote-engine/cache"
)

func TestMemory_SetGetInvalidate(t *testing.T) {
	// GIVEN an empty store
	m := cache.NewMemory()
	ctx := context.Background()

	// WHEN a missing key is read
	_, ok, err := m.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	// WHEN an entry is written and read back
	wrote := cache.Entry{Data: []byte(`{"a":1}`), Timestamp: time.Now()}
	require.NoError(t, m.Set(ctx, "k", wrote))

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, wrote.Data, got.Data)
	assert.True(t, wrote.Timestamp.Equal(got.Timestamp))

	// WHEN the key is invalidated
	require.NoError(t, m.Invalidate(ctx, "k"))
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// THEN invalidating again is not an error
	require.NoError(t, m.Invalidate(ctx, "k"))
}

func TestMemory_CopiesPayload(t *testing.T) {
	m := cache.NewMemory()
	ctx := context.Background()

	buf := []byte(`original`)
	require.NoError(t, m.Set(ctx, "k", cache.Entry{Data: buf, Timestamp: time.Now()}))

	// Mutating the caller's buffer must not leak into the store.
	buf[0] = 'X'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`original`), got.Data)
}

func TestEntry_Fresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		age   time.Duration
		ttl   time.Duration
		fresh bool
	}{
		{"just written", 0, cache.UnderwritersTTL, true},
		{"within underwriter window", 5 * time.Hour, cache.UnderwritersTTL, true},
		{"past underwriter window", 7 * time.Hour, cache.UnderwritersTTL, false},
		{"exactly at ttl is stale", cache.ComparisonTTL, cache.ComparisonTTL, false},
		{"within comparison window", 4 * time.Minute, cache.ComparisonTTL, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := cache.Entry{Timestamp: now.Add(-tt.age)}
			assert.Equal(t, tt.fresh, e.Fresh(tt.ttl, now))
		})
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cache_underwriters_MOTOR_PRIVATE_COMP", cache.UnderwritersKey("MOTOR_PRIVATE", "COMP"))
	assert.Equal(t, "cache_underwriters_ALL_ANY", cache.UnderwritersKey("", ""))
	assert.Equal(t, "cache_underwriters_MOTOR_ANY", cache.UnderwritersKey("MOTOR", ""))
	assert.Equal(t, "comparison_cache_MOTOR_PRIVATE_COMP", cache.ComparisonKey("MOTOR_PRIVATE_COMP"))
}
