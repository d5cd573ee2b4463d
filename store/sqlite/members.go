package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cbm/promotion-engine/generic"
)

// =============================================================================
// MEMBER STORE
// =============================================================================

// Member is a roster record as stored. Rank, Corps and the dates are the raw
// text of the row.
type Member struct {
	ID                string
	Registration      string // matrícula
	DisplayName       string
	Rank              string
	Corps             string
	LastPromotionDate string
	BirthDate         string
	EntryDate         string
	BloodType         string
	Phone             string
	Email             string
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

var (
	// ErrDuplicateRegistration is returned when another member holds the
	// registration number.
	ErrDuplicateRegistration = errors.New("registration already in use")

	// ErrRankChanged is returned when a promotion is recorded against a rank
	// the member no longer holds.
	ErrRankChanged = errors.New("member rank changed")

	// ErrMemberInactive is returned when a promotion is recorded against a
	// deactivated member.
	ErrMemberInactive = errors.New("member is not active")
)

const memberColumns = `id, registration, display_name, rank, corps, last_promotion_date,
	birth_date, entry_date, blood_type, phone, email, active, created_at, updated_at`

// SaveMember inserts or updates a member.
func (s *Store) SaveMember(ctx context.Context, m Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			registration = excluded.registration,
			display_name = excluded.display_name,
			rank = excluded.rank,
			corps = excluded.corps,
			last_promotion_date = excluded.last_promotion_date,
			birth_date = excluded.birth_date,
			entry_date = excluded.entry_date,
			blood_type = excluded.blood_type,
			phone = excluded.phone,
			email = excluded.email,
			active = excluded.active,
			updated_at = excluded.updated_at
	`,
		m.ID, m.Registration, m.DisplayName, m.Rank, m.Corps, m.LastPromotionDate,
		nullString(m.BirthDate), nullString(m.EntryDate), nullString(m.BloodType),
		nullString(m.Phone), nullString(m.Email), m.Active, ts, ts,
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%s: %w", m.Registration, ErrDuplicateRegistration)
	}
	return err
}

// GetMember retrieves a member by ID.
func (s *Store) GetMember(ctx context.Context, id string) (Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members, err := s.queryMembers(ctx, "SELECT "+memberColumns+" FROM members WHERE id = ?", id)
	if err != nil {
		return Member{}, err
	}
	if len(members) == 0 {
		return Member{}, fmt.Errorf("member %s: %w", id, generic.ErrMemberNotFound)
	}
	return members[0], nil
}

// ListMembers returns every member, active or not, ordered by name.
func (s *Store) ListMembers(ctx context.Context) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryMembers(ctx, "SELECT "+memberColumns+" FROM members ORDER BY display_name, id")
}

// Census returns active members, optionally restricted to one corps code.
func (s *Store) Census(ctx context.Context, corps string) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if corps == "" {
		return s.queryMembers(ctx, "SELECT "+memberColumns+" FROM members WHERE active ORDER BY id")
	}
	return s.queryMembers(ctx,
		"SELECT "+memberColumns+" FROM members WHERE active AND corps = ? ORDER BY id", corps)
}

// DeactivateMember takes a member out of the census. History is kept.
func (s *Store) DeactivateMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE members SET active = FALSE, updated_at = ? WHERE id = ?", now(), id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (s *Store) queryMembers(ctx context.Context, query string, args ...any) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var (
			m                                 Member
			birth, entry, blood, phone, email sql.NullString
			createdAt, updatedAt              string
		)
		if err := rows.Scan(
			&m.ID, &m.Registration, &m.DisplayName, &m.Rank, &m.Corps, &m.LastPromotionDate,
			&birth, &entry, &blood, &phone, &email, &m.Active, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.BirthDate = birth.String
		m.EntryDate = entry.String
		m.BloodType = blood.String
		m.Phone = phone.String
		m.Email = email.String
		m.CreatedAt = parseTimestamp(createdAt)
		m.UpdatedAt = parseTimestamp(updatedAt)
		members = append(members, m)
	}
	return members, rows.Err()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("member %s: %w", id, generic.ErrMemberNotFound)
	}
	return nil
}

// =============================================================================
// PROMOTION HISTORY
// =============================================================================

// Promotion is one row of a member's promotion history.
type Promotion struct {
	ID         string
	MemberID   string
	FromRank   string
	ToRank     string
	PromotedOn string
	Criterion  string
	Document   string
	CreatedAt  time.Time
}

// RecordPromotion writes the history row and moves the member to the new
// rank in one transaction.
func (s *Store) RecordPromotion(ctx context.Context, p Promotion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		current string
		active  bool
	)
	err = tx.QueryRowContext(ctx, "SELECT rank, active FROM members WHERE id = ?", p.MemberID).Scan(&current, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("member %s: %w", p.MemberID, generic.ErrMemberNotFound)
	}
	if err != nil {
		return err
	}
	if !active {
		return fmt.Errorf("member %s: %w", p.MemberID, ErrMemberInactive)
	}
	if current != p.FromRank {
		return fmt.Errorf("member %s holds %s, not %s: %w", p.MemberID, current, p.FromRank, ErrRankChanged)
	}

	ts := now()
	res, err := tx.ExecContext(ctx, `
		UPDATE members SET rank = ?, last_promotion_date = ?, updated_at = ?
		WHERE id = ? AND rank = ?
	`, p.ToRank, p.PromotedOn, ts, p.MemberID, p.FromRank)
	if err != nil {
		return fmt.Errorf("failed to update member rank: %w", err)
	}
	if err := requireRow(res, p.MemberID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO promotions (id, member_id, from_rank, to_rank, promoted_on, criterion, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.MemberID, p.FromRank, p.ToRank, p.PromotedOn, p.Criterion, nullString(p.Document), ts)
	if err != nil {
		return fmt.Errorf("failed to insert promotion: %w", err)
	}

	return tx.Commit()
}

// Promotions returns a member's promotion history, oldest first.
func (s *Store) Promotions(ctx context.Context, memberID string) ([]Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, from_rank, to_rank, promoted_on, criterion, document, created_at
		FROM promotions
		WHERE member_id = ?
		ORDER BY promoted_on ASC, created_at ASC
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query promotions: %w", err)
	}
	defer rows.Close()

	var out []Promotion
	for rows.Next() {
		var (
			p         Promotion
			document  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.MemberID, &p.FromRank, &p.ToRank, &p.PromotedOn,
			&p.Criterion, &document, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		p.Document = document.String
		p.CreatedAt = parseTimestamp(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}
