package roster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cbm/promotion-engine/forecast"
	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/rank"
	"github.com/cbm/promotion-engine/store/sqlite"
	"github.com/cbm/promotion-engine/vacancy"
)

var (
	// ErrInvalidMember wraps every rejected member submission.
	ErrInvalidMember = errors.New("invalid member")

	// ErrCeilingRank is returned when promoting a member already at the top
	// of their hierarchy.
	ErrCeilingRank = errors.New("rank has no further promotion")

	// ErrInactiveMember is returned when promoting a deactivated member.
	ErrInactiveMember = sqlite.ErrMemberInactive
)

// FieldError names the submitted field that was rejected.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }

// Unwrap exposes ErrInvalidMember, not the cause: a bad submission is a
// client error even when the cause is a data-integrity sentinel.
func (e *FieldError) Unwrap() error { return ErrInvalidMember }

// MemberInput is a member submission. Values are parsed and stored in
// canonical form (rank display name, corps code, YYYY-MM-DD).
type MemberInput struct {
	Registration      string
	DisplayName       string
	Rank              string
	Corps             string
	LastPromotionDate string
	BirthDate         string
	EntryDate         string
	BloodType         string
	Phone             string
	Email             string
}

// Validate checks a submission and returns the record to store.
func (in MemberInput) Validate() (sqlite.Member, error) {
	var errs []error
	fail := func(field string, err error) { errs = append(errs, &FieldError{Field: field, Err: err}) }

	if strings.TrimSpace(in.Registration) == "" {
		fail("registration", errors.New("required"))
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		fail("display_name", errors.New("required"))
	}

	r, rankErr := rank.Parse(in.Rank)
	if rankErr != nil {
		fail("rank", rankErr)
	}
	c, corpsErr := rank.ParseCorps(in.Corps)
	if corpsErr != nil {
		fail("corps", corpsErr)
	}
	if rankErr == nil && corpsErr == nil && r.Hierarchy() != c.Hierarchy() {
		fail("rank", fmt.Errorf("%s is not a rank of %s (%s)", r, c, c.Hierarchy()))
	}

	last, err := generic.ParseDate("last_promotion_date", in.LastPromotionDate)
	if err != nil {
		fail("last_promotion_date", err)
	}
	birth, err := optionalDate("birth_date", in.BirthDate)
	if err != nil {
		fail("birth_date", err)
	}
	entry, err := optionalDate("entry_date", in.EntryDate)
	if err != nil {
		fail("entry_date", err)
	}
	if in.BloodType != "" && !ValidBloodType(in.BloodType) {
		fail("blood_type", fmt.Errorf("%q: %w", in.BloodType, generic.ErrInvalidBloodType))
	}

	if len(errs) > 0 {
		return sqlite.Member{}, errors.Join(errs...)
	}
	return sqlite.Member{
		Registration:      strings.TrimSpace(in.Registration),
		DisplayName:       strings.TrimSpace(in.DisplayName),
		Rank:              r.String(),
		Corps:             c.String(),
		LastPromotionDate: last.String(),
		BirthDate:         birth,
		EntryDate:         entry,
		BloodType:         strings.ToUpper(strings.TrimSpace(in.BloodType)),
		Phone:             strings.TrimSpace(in.Phone),
		Email:             strings.TrimSpace(in.Email),
		Active:            true,
	}, nil
}

func optionalDate(field, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	d, err := generic.ParseDate(field, value)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// ValidBloodType accepts ABO group plus Rh factor ("O+", "ab-").
func ValidBloodType(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-":
		return true
	}
	return false
}

// =============================================================================
// STORED RECORD -> ENGINE INPUTS
// =============================================================================

// ForecastInput parses a stored member. The date is passed through raw so
// the calculator reports it with the field name.
func ForecastInput(m sqlite.Member) (forecast.Input, rank.Corps, error) {
	c, err := rank.ParseCorps(m.Corps)
	if err != nil {
		return forecast.Input{}, 0, err
	}
	r, err := rank.Parse(m.Rank)
	if err != nil {
		return forecast.Input{}, 0, err
	}
	return forecast.Input{
		MemberID:          generic.MemberID(m.ID),
		Rank:              r,
		LastPromotionDate: m.LastPromotionDate,
		IsOfficer:         c.IsOfficer(),
	}, c, nil
}

// CensusEntry parses the rank and corps of a stored member.
func CensusEntry(m sqlite.Member) (vacancy.CensusEntry, error) {
	c, err := rank.ParseCorps(m.Corps)
	if err != nil {
		return vacancy.CensusEntry{}, err
	}
	r, err := rank.Parse(m.Rank)
	if err != nil {
		return vacancy.CensusEntry{}, err
	}
	return vacancy.CensusEntry{Rank: r, Corps: c}, nil
}
