/*
Package sqlite provides a SQLite-backed implementation of the cache store
and the quotation log.

PURPOSE:
  Keeps cached underwriter lists and pricing comparisons across process
  restarts, and records every submitted quotation for audit. In production
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  cache.Store: key-value TTL cache (freshness is judged by the caller)

KEY TABLES:
  cache_entries: opaque JSON blobs with their write time
  quotations:    log of submitted quotation requests and their references

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/quotes.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ctrl := flow.NewController(svc, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - cache/cache.go:  interface definition and TTL policy
  - cache/memory.go: in-memory implementation for testing
  - flow/controller.go: the cache's consumer
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/boma/quote-engine/cache"
)

// Store implements cache.Store and the quotation log using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Cached payloads (underwriter lists, comparison results)
	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cache_entries_timestamp
		ON cache_entries(timestamp);

	-- Submitted quotations (audit log)
	CREATE TABLE IF NOT EXISTS quotations (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		underwriter_id TEXT,
		subcategory_code TEXT,
		reference TEXT,
		payload_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_quotations_session
		ON quotations(session_id);
	CREATE INDEX IF NOT EXISTS idx_quotations_reference
		ON quotations(reference) WHERE reference IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CACHE STORE (cache.Store interface)
// =============================================================================

// Get returns the cached entry for key.
func (s *Store) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		entry     cache.Entry
		timestamp string
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT data, timestamp FROM cache_entries WHERE key = ?",
		key,
	).Scan(&entry.Data, &timestamp)

	if err == sql.ErrNoRows {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	entry.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("failed to parse cache timestamp: %w", err)
	}

	return entry, true, nil
}

// Set writes the cached entry for key, replacing any existing one.
func (s *Store) Set(ctx context.Context, key string, entry cache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO cache_entries (key, data, timestamp)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			timestamp = excluded.timestamp
	`

	_, err := s.db.ExecContext(ctx, query,
		key, entry.Data, entry.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Invalidate removes the cached entry for key.
func (s *Store) Invalidate(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key)
	return err
}

var _ cache.Store = (*Store)(nil)

// =============================================================================
// QUOTATION LOG
// =============================================================================

// QuotationRecord is a stored quotation submission.
type QuotationRecord struct {
	ID              string
	SessionID       string
	UnderwriterID   string
	SubcategoryCode string
	Reference       string
	PayloadJSON     string
	CreatedAt       time.Time
}

// SaveQuotation records a submitted quotation.
func (s *Store) SaveQuotation(ctx context.Context, q QuotationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO quotations (id, session_id, underwriter_id, subcategory_code, reference, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := q.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		q.ID, q.SessionID, q.UnderwriterID, q.SubcategoryCode,
		nullString(q.Reference), q.PayloadJSON,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save quotation: %w", err)
	}
	return nil
}

// GetQuotation retrieves a quotation by ID. Returns nil when absent.
func (s *Store) GetQuotation(ctx context.Context, id string) (*QuotationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		q         QuotationRecord
		reference sql.NullString
		createdAt string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, underwriter_id, subcategory_code, reference, payload_json, created_at
		 FROM quotations WHERE id = ?`,
		id,
	).Scan(&q.ID, &q.SessionID, &q.UnderwriterID, &q.SubcategoryCode, &reference, &q.PayloadJSON, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	q.Reference = reference.String
	q.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &q, nil
}

// ListQuotationsBySession returns all quotations submitted in a session,
// newest first.
func (s *Store) ListQuotationsBySession(ctx context.Context, sessionID string) ([]QuotationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, underwriter_id, subcategory_code, reference, payload_json, created_at
		 FROM quotations
		 WHERE session_id = ?
		 ORDER BY created_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []QuotationRecord
	for rows.Next() {
		var (
			q         QuotationRecord
			reference sql.NullString
			createdAt string
		)
		if err := rows.Scan(&q.ID, &q.SessionID, &q.UnderwriterID, &q.SubcategoryCode, &reference, &q.PayloadJSON, &createdAt); err != nil {
			return nil, err
		}
		q.Reference = reference.String
		q.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, q)
	}
	return records, rows.Err()
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"cache_entries", "quotations"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
