/*
Package roster is the application service of the promotion engine.

PURPOSE:
  Ties the stored roster to the pure engine: it reads members, parses the
  stored rank/corps/date text, and hands typed inputs to the forecast
  calculator, the vacancy accountant and the merit ledger. Handlers and CLI
  commands call this package; neither talks to the store directly.

DATA INTEGRITY:
  A stored member whose rank, corps or date cannot be interpreted is never
  given a default. Single-member calls return the error; batch calls skip
  the member, log it at warn and return it in the Skipped list.

REFERENCE INSTANT:
  Every call takes "now". A zero now uses the service clock (configured
  timezone). Batch calls resolve it once.

SEE ALSO:
  - forecast/: calculator, batch, board
  - vacancy/: seat accounting
  - merit/: career events and score
*/
package roster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cbm/promotion-engine/forecast"
	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/merit"
	"github.com/cbm/promotion-engine/metrics"
	"github.com/cbm/promotion-engine/rank"
	"github.com/cbm/promotion-engine/statute"
	"github.com/cbm/promotion-engine/store/sqlite"
	"github.com/cbm/promotion-engine/vacancy"
)

// MemberStore persists the roster and the promotion history.
type MemberStore interface {
	SaveMember(ctx context.Context, m sqlite.Member) error
	GetMember(ctx context.Context, id string) (sqlite.Member, error)
	ListMembers(ctx context.Context) ([]sqlite.Member, error)
	Census(ctx context.Context, corps string) ([]sqlite.Member, error)
	DeactivateMember(ctx context.Context, id string) error
	RecordPromotion(ctx context.Context, p sqlite.Promotion) error
	Promotions(ctx context.Context, memberID string) ([]sqlite.Promotion, error)
}

// Service orchestrates roster, forecasts, vacancies and merit.
type Service struct {
	members    MemberStore
	ledger     *merit.Ledger
	statute    statute.Statute
	calculator *forecast.Calculator
	accountant *vacancy.Accountant
	logger     *zap.Logger
	metrics    *metrics.Metrics
	workers    int
}

type Option func(s *Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock sets the source of "now" for calls that pass a zero time.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.calculator.Clock = clock
	}
}

// WithWorkers bounds batch forecast concurrency.
func WithWorkers(n int) Option {
	return func(s *Service) {
		s.workers = n
	}
}

// New constructs a Service over a validated statute.
func New(members MemberStore, entries generic.Store, st statute.Statute, opts ...Option) *Service {
	s := &Service{
		members:    members,
		ledger:     merit.NewLedger(entries),
		statute:    st,
		calculator: forecast.NewCalculator(st.Rules),
		accountant: vacancy.NewAccountant(st.Seats),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Statute() statute.Statute { return s.statute }

// Today is the calendar day a call with this now is evaluated on.
func (s *Service) Today(now time.Time) generic.Date {
	if now.IsZero() {
		if s.calculator.Clock != nil {
			return generic.DateOf(s.calculator.Clock())
		}
		return generic.Today()
	}
	return generic.DateOf(now)
}

// =============================================================================
// MEMBERS
// =============================================================================

func (s *Service) CreateMember(ctx context.Context, in MemberInput) (sqlite.Member, error) {
	m, err := in.Validate()
	if err != nil {
		return sqlite.Member{}, err
	}
	m.ID = uuid.NewString()
	if err := s.members.SaveMember(ctx, m); err != nil {
		return sqlite.Member{}, err
	}
	s.metrics.IncRosterChange("create")
	s.logger.Info("member created",
		zap.String("member_id", m.ID),
		zap.String("rank", m.Rank),
		zap.String("corps", m.Corps))
	return s.members.GetMember(ctx, m.ID)
}

// UpdateMember replaces the editable fields of an existing member.
func (s *Service) UpdateMember(ctx context.Context, id string, in MemberInput) (sqlite.Member, error) {
	existing, err := s.members.GetMember(ctx, id)
	if err != nil {
		return sqlite.Member{}, err
	}
	m, err := in.Validate()
	if err != nil {
		return sqlite.Member{}, err
	}
	m.ID = existing.ID
	m.Active = existing.Active
	if err := s.members.SaveMember(ctx, m); err != nil {
		return sqlite.Member{}, err
	}
	s.metrics.IncRosterChange("update")
	return s.members.GetMember(ctx, id)
}

func (s *Service) GetMember(ctx context.Context, id string) (sqlite.Member, error) {
	return s.members.GetMember(ctx, id)
}

func (s *Service) ListMembers(ctx context.Context) ([]sqlite.Member, error) {
	return s.members.ListMembers(ctx)
}

// DeactivateMember removes a member from the census; forecasts, vacancies
// and boards stop counting them.
func (s *Service) DeactivateMember(ctx context.Context, id string) error {
	if err := s.members.DeactivateMember(ctx, id); err != nil {
		return err
	}
	s.metrics.IncRosterChange("deactivate")
	s.logger.Info("member deactivated", zap.String("member_id", id))
	return nil
}

// =============================================================================
// FORECASTS
// =============================================================================

// Forecast computes one member's forecast. Integrity errors are returned.
func (s *Service) Forecast(ctx context.Context, id string, now time.Time) (forecast.Forecast, error) {
	m, err := s.members.GetMember(ctx, id)
	if err != nil {
		return forecast.Forecast{}, err
	}
	in, c, err := ForecastInput(m)
	if err != nil {
		return forecast.Forecast{}, err
	}
	f, err := s.calculator.Calculate(in, now)
	if err != nil {
		return forecast.Forecast{}, err
	}
	s.metrics.IncForecast(c.String())
	return f, nil
}

// Forecasts computes the forecast of every active member, optionally of one
// corps. Members that cannot be computed are skipped and reported.
func (s *Service) Forecasts(ctx context.Context, corps string, now time.Time) (forecast.BatchResult, error) {
	if corps != "" {
		c, err := rank.ParseCorps(corps)
		if err != nil {
			return forecast.BatchResult{}, err
		}
		corps = c.String()
	}
	census, err := s.members.Census(ctx, corps)
	if err != nil {
		return forecast.BatchResult{}, err
	}

	start := time.Now()
	inputs := make([]forecast.Input, 0, len(census))
	corpsOf := make(map[generic.MemberID]rank.Corps, len(census))
	var skipped []forecast.RecordError
	for _, m := range census {
		in, c, err := ForecastInput(m)
		if err != nil {
			skipped = append(skipped, forecast.RecordError{MemberID: generic.MemberID(m.ID), Err: err})
			continue
		}
		inputs = append(inputs, in)
		corpsOf[in.MemberID] = c
	}

	if now.IsZero() && s.calculator.Clock != nil {
		now = s.calculator.Clock()
	}
	result, err := s.calculator.CalculateAll(ctx, inputs, now, s.workers)
	if err != nil {
		return forecast.BatchResult{}, err
	}
	result.Skipped = append(skipped, result.Skipped...)
	sort.SliceStable(result.Skipped, func(i, j int) bool {
		return result.Skipped[i].MemberID < result.Skipped[j].MemberID
	})

	for _, f := range result.Forecasts {
		s.metrics.IncForecast(corpsOf[f.MemberID].String())
	}
	s.reportSkipped("forecast", result.Skipped)
	s.metrics.ObserveBatch(time.Since(start))
	return result, nil
}

func (s *Service) reportSkipped(op string, skipped []forecast.RecordError) {
	for _, rec := range skipped {
		s.metrics.IncSkipped(skipReason(rec.Err))
		s.logger.Warn("member skipped",
			zap.String("op", op),
			zap.String("member_id", string(rec.MemberID)),
			zap.Error(rec.Err))
	}
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, generic.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, rank.ErrUnknownRank):
		return "unknown_rank"
	case errors.Is(err, rank.ErrUnknownCorps):
		return "unknown_corps"
	}
	return "other"
}

// =============================================================================
// VACANCIES
// =============================================================================

// VacancyView is the vacancy report plus the census rows it could not read.
type VacancyView struct {
	Report  vacancy.Report
	Skipped []forecast.RecordError
}

func (s *Service) Vacancies(ctx context.Context) (VacancyView, error) {
	census, err := s.members.Census(ctx, "")
	if err != nil {
		return VacancyView{}, err
	}
	entries, skipped := s.census(census)

	report := s.accountant.Account(entries)
	s.metrics.IncVacancyReport()
	for _, issue := range report.Issues {
		s.metrics.AddSeatConfigIssues(issue.Corps.String(), int(issue.Count))
		s.logger.Warn("census entry without seats", zap.Error(issue))
	}
	s.reportSkipped("vacancies", skipped)
	return VacancyView{Report: report, Skipped: skipped}, nil
}

func (s *Service) census(members []sqlite.Member) ([]vacancy.CensusEntry, []forecast.RecordError) {
	entries := make([]vacancy.CensusEntry, 0, len(members))
	var skipped []forecast.RecordError
	for _, m := range members {
		e, err := CensusEntry(m)
		if err != nil {
			skipped = append(skipped, forecast.RecordError{MemberID: generic.MemberID(m.ID), Err: err})
			continue
		}
		entries = append(entries, e)
	}
	return entries, skipped
}

// =============================================================================
// PROMOTION BOARD
// =============================================================================

// Board builds the promotion board of one rank inside one corps. Merit
// scores cover each candidate's current-rank window. Rows that cannot be
// read are skipped and reported unless their corps names another one.
func (s *Service) Board(ctx context.Context, corpsCode, rankName string, now time.Time) (forecast.Board, error) {
	c, err := rank.ParseCorps(corpsCode)
	if err != nil {
		return forecast.Board{}, err
	}
	r, err := rank.Parse(rankName)
	if err != nil {
		return forecast.Board{}, err
	}
	if now.IsZero() && s.calculator.Clock != nil {
		now = s.calculator.Clock()
	}
	asOf := s.Today(now)

	all, err := s.members.Census(ctx, "")
	if err != nil {
		return forecast.Board{}, err
	}
	entries, _ := s.census(all)
	report := s.accountant.Account(entries)

	var (
		candidates []forecast.Candidate
		unread     []forecast.RecordError
	)
	for _, m := range all {
		in, mc, err := ForecastInput(m)
		if err != nil {
			if other, cerr := rank.ParseCorps(m.Corps); cerr != nil || other == c {
				unread = append(unread, forecast.RecordError{MemberID: generic.MemberID(m.ID), Err: err})
			}
			continue
		}
		if mc != c || in.Rank != r {
			continue
		}
		score := generic.ZeroPoints()
		if last, err := generic.ParseDate("last_promotion_date", in.LastPromotionDate); err == nil {
			if score, err = s.ledger.Score(ctx, in.MemberID, last, asOf); err != nil {
				return forecast.Board{}, err
			}
		}
		candidates = append(candidates, forecast.Candidate{Input: in, DisplayName: m.DisplayName, Score: score})
	}

	board, err := s.calculator.Board(c, r, candidates, report, now)
	if err != nil {
		return forecast.Board{}, err
	}
	board.Skipped = append(unread, board.Skipped...)
	sort.SliceStable(board.Skipped, func(i, j int) bool {
		return board.Skipped[i].MemberID < board.Skipped[j].MemberID
	})
	s.reportSkipped("board", board.Skipped)
	return board, nil
}

// =============================================================================
// PROMOTIONS
// =============================================================================

// PromotionInput records a promotion to the next statutory rank.
type PromotionInput struct {
	Date     string
	Document string
}

// Promote moves a member one rank up. The target is always the next rank of
// the rule table; the date may not precede the last promotion. Deactivated
// members are out of the census and cannot be promoted.
func (s *Service) Promote(ctx context.Context, id string, in PromotionInput) (sqlite.Promotion, error) {
	m, err := s.members.GetMember(ctx, id)
	if err != nil {
		return sqlite.Promotion{}, err
	}
	if !m.Active {
		return sqlite.Promotion{}, fmt.Errorf("member %s: %w", m.ID, ErrInactiveMember)
	}
	fin, _, err := ForecastInput(m)
	if err != nil {
		return sqlite.Promotion{}, err
	}
	rule, err := s.statute.Rules.RuleFor(fin.Rank, fin.IsOfficer)
	if err != nil {
		return sqlite.Promotion{}, err
	}
	if rule.IsCeiling() {
		return sqlite.Promotion{}, fmt.Errorf("%s: %w", fin.Rank, ErrCeilingRank)
	}

	on, err := generic.ParseDate("date", in.Date)
	if err != nil {
		return sqlite.Promotion{}, &FieldError{Field: "date", Err: err}
	}
	last, err := generic.ParseDate("last_promotion_date", m.LastPromotionDate)
	if err != nil {
		return sqlite.Promotion{}, err
	}
	if on.Before(last) {
		return sqlite.Promotion{}, &FieldError{
			Field: "date",
			Err:   fmt.Errorf("promotion on %s precedes last promotion %s", on, last),
		}
	}

	p := sqlite.Promotion{
		ID:         uuid.NewString(),
		MemberID:   m.ID,
		FromRank:   m.Rank,
		ToRank:     rule.Next.String(),
		PromotedOn: on.String(),
		Criterion:  rule.Criterion.String(),
		Document:   in.Document,
	}
	if err := s.members.RecordPromotion(ctx, p); err != nil {
		return sqlite.Promotion{}, err
	}
	s.metrics.IncRosterChange("promote")
	s.logger.Info("member promoted",
		zap.String("member_id", m.ID),
		zap.String("from", p.FromRank),
		zap.String("to", p.ToRank),
		zap.String("on", p.PromotedOn))
	return p, nil
}

func (s *Service) Promotions(ctx context.Context, id string) ([]sqlite.Promotion, error) {
	if _, err := s.members.GetMember(ctx, id); err != nil {
		return nil, err
	}
	return s.members.Promotions(ctx, id)
}

// =============================================================================
// MERIT
// =============================================================================

// RecordEvent appends a career event for an existing member.
func (s *Service) RecordEvent(ctx context.Context, id string, ev merit.Event, now time.Time) (generic.Entry, error) {
	if _, err := s.members.GetMember(ctx, id); err != nil {
		return generic.Entry{}, err
	}
	ev.MemberID = generic.MemberID(id)
	entry, err := s.ledger.Record(ctx, ev, s.Today(now))
	if err != nil {
		return generic.Entry{}, err
	}
	s.metrics.IncRosterChange("event")
	return entry, nil
}

// ReverseEvent cancels a member's event. The entry must belong to the member.
func (s *Service) ReverseEvent(ctx context.Context, id string, entryID generic.EntryID, reason, actor string, now time.Time) (generic.Entry, error) {
	history, err := s.Events(ctx, id)
	if err != nil {
		return generic.Entry{}, err
	}
	owned := false
	for _, e := range history {
		if e.ID == entryID {
			owned = true
			break
		}
	}
	if !owned {
		return generic.Entry{}, fmt.Errorf("entry %s of member %s: %w", entryID, id, generic.ErrEntryNotFound)
	}
	return s.ledger.Reverse(ctx, entryID, reason, actor, s.Today(now))
}

func (s *Service) Events(ctx context.Context, id string) ([]generic.Entry, error) {
	if _, err := s.members.GetMember(ctx, id); err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, generic.MemberID(id))
}

// Score summarizes the member's merit since their last promotion.
func (s *Service) Score(ctx context.Context, id string, now time.Time) (merit.Summary, error) {
	m, err := s.members.GetMember(ctx, id)
	if err != nil {
		return merit.Summary{}, err
	}
	last, err := generic.ParseDate("last_promotion_date", m.LastPromotionDate)
	if err != nil {
		return merit.Summary{}, err
	}
	return s.ledger.Summarize(ctx, generic.MemberID(id), last, s.Today(now))
}
