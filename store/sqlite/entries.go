package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cbm/promotion-engine/generic"
)

// =============================================================================
// MERIT ENTRY STORE (generic.Store interface)
// =============================================================================

var _ generic.Store = (*Store)(nil)

const entryColumns = `id, member_id, kind, effective_at, delta, entry_type,
	reference_id, reason, idempotency_key, created_by, created_at`

// Append adds an entry to the ledger.
func (s *Store) Append(ctx context.Context, e generic.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendEntry(ctx, s.db, e)
}

func (s *Store) appendEntry(ctx context.Context, db execer, e generic.Entry) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = generic.Today()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO merit_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.MemberID,
		e.Kind,
		e.EffectiveAt.String(),
		e.Delta.Value.String(),
		e.Type,
		nullString(e.ReferenceID),
		nullString(e.Reason),
		nullString(e.IdempotencyKey),
		nullString(e.CreatedBy),
		createdAt.String(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// AppendBatch adds multiple entries atomically.
func (s *Store) AppendBatch(ctx context.Context, es []generic.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make(map[string]bool)
	for _, e := range es {
		if e.IdempotencyKey == "" {
			continue
		}
		if keys[e.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		keys[e.IdempotencyKey] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range es {
		if err := s.appendEntry(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load returns all entries of a member ordered by effective date.
func (s *Store) Load(ctx context.Context, memberID generic.MemberID) ([]generic.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM merit_entries
		WHERE member_id = ?
		ORDER BY effective_at ASC, created_at ASC, id ASC
	`, memberID)
}

// LoadRange returns entries effective in [from, to]. Dates are stored as
// YYYY-MM-DD so text comparison is chronological.
func (s *Store) LoadRange(ctx context.Context, memberID generic.MemberID, from, to generic.Date) ([]generic.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM merit_entries
		WHERE member_id = ? AND effective_at >= ? AND effective_at <= ?
		ORDER BY effective_at ASC, created_at ASC, id ASC
	`, memberID, from.String(), to.String())
}

// Get returns a single entry.
func (s *Store) Get(ctx context.Context, id generic.EntryID) (generic.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	es, err := s.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM merit_entries
		WHERE id = ?
	`, id)
	if err != nil {
		return generic.Entry{}, err
	}
	if len(es) == 0 {
		return generic.Entry{}, fmt.Errorf("entry %s: %w", id, generic.ErrEntryNotFound)
	}
	return es[0], nil
}

// Exists checks if an idempotency key exists.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM merit_entries WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)

	return count > 0, err
}

// IsReversed checks if an entry has already been reversed.
func (s *Store) IsReversed(ctx context.Context, id generic.EntryID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM merit_entries
		WHERE reference_id = ? AND entry_type = ?
	`, id, generic.EntryReversal).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]generic.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []generic.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (generic.Entry, error) {
	var (
		e              generic.Entry
		effectiveAt    string
		delta          string
		referenceID    sql.NullString
		reason         sql.NullString
		idempotencyKey sql.NullString
		createdBy      sql.NullString
		createdAt      string
	)

	err := rows.Scan(
		&e.ID, &e.MemberID, &e.Kind, &effectiveAt, &delta, &e.Type,
		&referenceID, &reason, &idempotencyKey, &createdBy, &createdAt,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	if e.EffectiveAt, err = generic.ParseDate("effective_at", effectiveAt); err != nil {
		return e, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	if e.Delta, err = generic.NewPointsFromString(delta); err != nil {
		return e, fmt.Errorf("entry %s: delta %q: %w", e.ID, delta, err)
	}
	e.CreatedAt, _ = generic.ParseDate("created_at", createdAt)
	e.ReferenceID = referenceID.String
	e.Reason = reason.String
	e.IdempotencyKey = idempotencyKey.String
	e.CreatedBy = createdBy.String
	return e, nil
}
