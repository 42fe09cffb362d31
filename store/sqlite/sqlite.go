/*
Package sqlite provides a SQLite-backed implementation of ledger.Store.

PURPOSE:
  Persists the append-only entry log. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the entries table
  - No DELETE statements on the entries table
  - Corrections via compensating entries only

SCHEMA:
  entries: the immutable ledger of all balance changes. Everything
  else in the system (balance, grants, daily counters, referral
  counts) is a projection rebuilt by replaying this table.

IDEMPOTENCY:
  idempotency_key carries a UNIQUE constraint; a duplicate write is
  rejected with ledger.ErrDuplicateIdempotencyKey. One-time grants
  rely on this beneath the in-memory flag check.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: multiple readers don't block, single writer at a time,
  better crash recovery.

USAGE:
  store, err := sqlite.New("./data/fleur.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  svc := rewards.NewService(store, rewards.DefaultConfig())

SEE ALSO:
  - ledger/store.go: Interface definition
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fleur/rewards-engine/ledger"
)

// Store implements ledger.Store using SQLite.
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
	-- Entries (append-only ledger)
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		delta INTEGER NOT NULL,
		reason TEXT NOT NULL,
		at TEXT NOT NULL,
		reversal_of TEXT,
		idempotency_key TEXT UNIQUE,
		meta_json TEXT,
		created_at TEXT NOT NULL
	);

	-- Replay on account open (hot path)
	CREATE INDEX IF NOT EXISTS idx_entries_user_at
		ON entries(user_id, at, created_at);

	CREATE INDEX IF NOT EXISTS idx_entries_idempotency
		ON entries(idempotency_key) WHERE idempotency_key IS NOT NULL;

	-- Reversal lookups
	CREATE INDEX IF NOT EXISTS idx_entries_reversal_of
		ON entries(reversal_of) WHERE reversal_of IS NOT NULL;

	-- Reason filtering (daily caps, clawbacks)
	CREATE INDEX IF NOT EXISTS idx_entries_user_reason
		ON entries(user_id, reason);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENTRY STORE (ledger.Store interface)
// =============================================================================

// Append adds an entry to the ledger.
func (s *Store) Append(ctx context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metaJSON string
	if len(e.Meta) > 0 {
		b, err := json.Marshal(e.Meta)
		if err != nil {
			return fmt.Errorf("failed to marshal meta: %w", err)
		}
		metaJSON = string(b)
	}

	query := `
		INSERT INTO entries
		(id, user_id, delta, reason, at, reversal_of, idempotency_key, meta_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.UserID,
		e.Delta,
		e.Reason,
		e.At.UTC().Format(time.RFC3339Nano),
		nullString(string(e.ReversalOf)),
		nullString(e.IdempotencyKey),
		nullString(metaJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("%w: %v", ledger.ErrPersistFailed, err)
	}

	return nil
}

// Load returns all entries for a user, chronologically.
func (s *Store) Load(ctx context.Context, userID ledger.UserID) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, delta, reason, at, reversal_of, idempotency_key, meta_json
		FROM entries
		WHERE user_id = ?
		ORDER BY at ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Exists checks if an idempotency key exists.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)

	return count > 0, err
}

func scanEntry(rows *sql.Rows) (ledger.Entry, error) {
	var (
		e              ledger.Entry
		at             string
		reversalOf     sql.NullString
		idempotencyKey sql.NullString
		metaJSON       sql.NullString
	)

	err := rows.Scan(&e.ID, &e.UserID, &e.Delta, &e.Reason, &at,
		&reversalOf, &idempotencyKey, &metaJSON)
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return e, fmt.Errorf("failed to parse entry time %q: %w", at, err)
	}
	e.At = t
	e.ReversalOf = ledger.EntryID(reversalOf.String)
	e.IdempotencyKey = idempotencyKey.String

	if metaJSON.Valid && metaJSON.String != "" {
		json.Unmarshal([]byte(metaJSON.String), &e.Meta)
	}

	return e, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
