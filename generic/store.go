/*
store.go - Persistence interface for merit ledger entries

PURPOSE:
  Defines the interface between the ledger and the database.
  The Store handles persistence while maintaining append-only semantics.
  Implementations: SQLite (store/sqlite) and in-memory (generic/store).

APPEND-ONLY CONTRACT:
  - Append(): Single entry write
  - AppendBatch(): Atomic multi-entry write
  - NO Update() or Delete() methods exist

IDEMPOTENCY:
  Every write may carry an idempotency key. If the key already exists,
  the write is rejected with ErrDuplicateIdempotencyKey.
*/
package generic

import "context"

// Store handles persistence of merit entries.
// Corrections are made via reversal entries.
type Store interface {
	// Append persists an entry. Returns ErrDuplicateIdempotencyKey if the key exists.
	Append(ctx context.Context, e Entry) error

	// AppendBatch persists multiple entries atomically.
	AppendBatch(ctx context.Context, es []Entry) error

	// Load returns all entries for a member, ordered by EffectiveAt.
	Load(ctx context.Context, memberID MemberID) ([]Entry, error)

	// LoadRange returns entries effective in [from, to].
	LoadRange(ctx context.Context, memberID MemberID, from, to Date) ([]Entry, error)

	// Get returns a single entry or ErrEntryNotFound.
	Get(ctx context.Context, id EntryID) (Entry, error)

	// Exists checks if idempotency key already exists.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)

	// IsReversed reports whether a reversal references the entry.
	IsReversed(ctx context.Context, id EntryID) (bool, error)
}
