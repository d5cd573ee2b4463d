/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists the roster (members), the merit ledger and the promotion history.
  The statute tables are not stored here: they come from the binary or a
  statute file.

INTERFACES IMPLEMENTED:
  generic.Store: Merit entry persistence

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on merit_entries
  - No DELETE statements on merit_entries or promotions
  - Corrections via reversal entries only

KEY TABLES:
  members:       Roster records (rank, corps, last promotion date, contact)
  merit_entries: Immutable ledger of career events
  promotions:    One row per promotion, written with the member update

STORED VALUES:
  Ranks, corps and dates are stored as text. Reads return them verbatim;
  the roster package parses them and reports rows it cannot interpret
  instead of substituting defaults.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite allows one writer at a time.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/promotions.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := merit.NewLedger(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Entry store interface
  - generic/store/memory.go: In-memory implementation for testing
  - roster/service.go: Parses stored members into forecast inputs
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements all storage interfaces using SQLite.
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
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
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

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Roster
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		registration TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		rank TEXT NOT NULL,
		corps TEXT NOT NULL,
		last_promotion_date TEXT NOT NULL,
		birth_date TEXT,
		entry_date TEXT,
		blood_type TEXT,
		phone TEXT,
		email TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_members_corps_active
		ON members(corps, active);

	-- Merit entries (append-only ledger)
	CREATE TABLE IF NOT EXISTS merit_entries (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		effective_at TEXT NOT NULL,
		delta TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		reference_id TEXT,
		reason TEXT,
		idempotency_key TEXT UNIQUE,
		created_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_merit_entries_member_date
		ON merit_entries(member_id, effective_at);
	CREATE INDEX IF NOT EXISTS idx_merit_entries_reference
		ON merit_entries(reference_id) WHERE reference_id IS NOT NULL;

	-- Promotion history
	CREATE TABLE IF NOT EXISTS promotions (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id),
		from_rank TEXT NOT NULL,
		to_rank TEXT NOT NULL,
		promoted_on TEXT NOT NULL,
		criterion TEXT NOT NULL,
		document TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_promotions_member
		ON promotions(member_id, promoted_on);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"promotions", "merit_entries", "members"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
