package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boma/quote-engine/cache"
	"github.com/boma/quote-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CacheRoundTrip(t *testing.T) {
	// GIVEN an empty store
	s := newTestStore(t)
	ctx := context.Background()

	// WHEN a missing key is read
	_, ok, err := s.Get(ctx, "cache_underwriters_fallback")
	require.NoError(t, err)
	assert.False(t, ok)

	// WHEN an entry is written and read back
	wrote := cache.Entry{
		Data:      []byte(`[{"id":"uw_cic","name":"CIC"}]`),
		Timestamp: time.Date(2026, 2, 10, 9, 30, 0, 123456000, time.UTC),
	}
	require.NoError(t, s.Set(ctx, "cache_underwriters_MOTOR_COMP", wrote))

	got, ok, err := s.Get(ctx, "cache_underwriters_MOTOR_COMP")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, wrote.Data, got.Data)
	assert.True(t, wrote.Timestamp.Equal(got.Timestamp), "timestamp must survive the round trip")
}

func TestStore_SetReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := cache.Entry{Data: []byte(`"stale"`), Timestamp: time.Now().Add(-7 * time.Hour)}
	require.NoError(t, s.Set(ctx, "k", first))

	second := cache.Entry{Data: []byte(`"fresh"`), Timestamp: time.Now()}
	require.NoError(t, s.Set(ctx, "k", second))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.Data, got.Data)
	assert.True(t, got.Fresh(cache.UnderwritersTTL, time.Now()))
}

func TestStore_Invalidate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", cache.Entry{Data: []byte(`1`), Timestamp: time.Now()}))
	require.NoError(t, s.Invalidate(ctx, "k"))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Absent key is not an error.
	require.NoError(t, s.Invalidate(ctx, "never-existed"))
}

func TestStore_QuotationLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q := sqlite.QuotationRecord{
		ID:              "q_001",
		SessionID:       "sess_abc",
		UnderwriterID:   "uw_cic",
		SubcategoryCode: "MOTOR_PRIVATE_COMP",
		Reference:       "REF-2026-0001",
		PayloadJSON:     `{"sum_insured":1000000}`,
		CreatedAt:       time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveQuotation(ctx, q))

	got, err := s.GetQuotation(ctx, "q_001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, q.SessionID, got.SessionID)
	assert.Equal(t, q.Reference, got.Reference)
	assert.Equal(t, q.PayloadJSON, got.PayloadJSON)

	missing, err := s.GetQuotation(ctx, "q_999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := s.ListQuotationsBySession(ctx, "sess_abc")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "q_001", list[0].ID)
}

func TestStore_Reset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", cache.Entry{Data: []byte(`1`), Timestamp: time.Now()}))
	require.NoError(t, s.SaveQuotation(ctx, sqlite.QuotationRecord{
		ID: "q_001", SessionID: "sess", PayloadJSON: `{}`,
	}))

	require.NoError(t, s.Reset(ctx))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetQuotation(ctx, "q_001")
	require.NoError(t, err)
	assert.Nil(t, got)
}
