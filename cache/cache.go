/*
Package cache defines the key-value cache tier used by the quotation flow.

PURPOSE:
  Underwriter lists and pricing comparisons are expensive upstream calls with
  well-understood staleness windows, so the flow keeps them behind a TTL
  cache. The interface below makes the cache an explicit, swappable component
  with an explicit freshness check rather than scattered timestamp math.

TTL POLICY:
  - Underwriter lists: 6 hours. On a fresh hit the flow still refreshes in
    the background; stale entries remain readable for the fallback path.
  - Comparisons: 5 minutes, keyed by a content hash of the request fields.

ERROR SEMANTICS:
  Implementations return real errors. The decision to treat cache failure as
  non-fatal belongs to the caller (the flow controller logs and continues);
  it is not baked into the store.

KEYS:
  cache_underwriters_{category}_{subcategory}
  cache_underwriters_fallback
  comparison_cache_{subcategory}

SEE ALSO:
  - memory.go:            in-memory implementation (tests, default)
  - store/sqlite:         persisted implementation
  - flow/controller.go:   the only consumer of TTL policy
*/
package cache

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// ENTRY
// =============================================================================

// Entry is a cached blob with its write time. The payload is opaque JSON;
// freshness is always judged against the entry's own timestamp.
type Entry struct {
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Fresh reports whether the entry is within ttl of now.
func (e Entry) Fresh(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.Timestamp) < ttl
}

// =============================================================================
// STORE
// =============================================================================

// Store is a key-value cache. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry for key. The boolean is false when absent.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Set writes the entry for key, replacing any existing one.
	Set(ctx context.Context, key string, entry Entry) error

	// Invalidate removes the entry for key. Removing an absent key is not
	// an error.
	Invalidate(ctx context.Context, key string) error
}

// =============================================================================
// TTL POLICY AND KEYS
// =============================================================================

const (
	// UnderwritersTTL bounds how long a cached underwriter list is served
	// without a synchronous refresh.
	UnderwritersTTL = 6 * time.Hour

	// ComparisonTTL bounds how long a pricing comparison short-circuits the
	// network.
	ComparisonTTL = 5 * time.Minute
)

// UnderwritersKey builds the per-category/subcategory underwriter cache key.
func UnderwritersKey(categoryCode, subcategoryCode string) string {
	if categoryCode == "" {
		categoryCode = "ALL"
	}
	if subcategoryCode == "" {
		subcategoryCode = "ANY"
	}
	return fmt.Sprintf("cache_underwriters_%s_%s", categoryCode, subcategoryCode)
}

// UnderwritersFallbackKey is the last-resort generic underwriter list.
const UnderwritersFallbackKey = "cache_underwriters_fallback"

// ComparisonKey builds the per-subcategory comparison cache key.
func ComparisonKey(subcategoryCode string) string {
	return fmt.Sprintf("comparison_cache_%s", subcategoryCode)
}
