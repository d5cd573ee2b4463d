/*
Package statute loads the promotion rule and seat tables from a statute file.

PURPOSE:
  The tables compiled into the rank package are the statute in force. When
  the law changes, operators point the service at a versioned document instead
  of waiting for a release. The document is validated as a whole at startup; a
  statute that would make the forecast ambiguous is rejected, never patched.

DOCUMENT (YAML or JSON):
  version: "LC 2024/01"
  effective_from: "2024-01-01"
  rules:
    - rank: "2º Tenente"
      minimum_years: 2
      criterion: antiguidade
      next: "1º Tenente"
    - rank: Coronel
      criterion: teto
  seats:
    QOEM:
      Coronel: 12
      ...

VALIDATION:
  - every rank has exactly one rule
  - ceiling criterion <=> no next rank
  - next rank in the same hierarchy and more senior
  - non-ceiling rules require at least one year
  - every capped corps has a non-empty seat table
  - seat ranks belong to the corps hierarchy
  - uncapped (reserve) corps have no seats

SEE ALSO:
  - rank/rules.go: Table
  - rank/seats.go: SeatTable
  - config/config.go: statute path setting
*/
package statute

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/rank"
)

// ErrInvalidStatute wraps every validation failure.
var ErrInvalidStatute = errors.New("invalid statute")

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

type Document struct {
	Version       string                     `json:"version" yaml:"version"`
	EffectiveFrom string                     `json:"effective_from" yaml:"effective_from"`
	Rules         []RuleDoc                  `json:"rules" yaml:"rules"`
	Seats         map[string]map[string]uint `json:"seats" yaml:"seats"`
}

type RuleDoc struct {
	Rank         string `json:"rank" yaml:"rank"`
	MinimumYears uint   `json:"minimum_years,omitempty" yaml:"minimum_years,omitempty"`
	Criterion    string `json:"criterion" yaml:"criterion"`
	Next         string `json:"next,omitempty" yaml:"next,omitempty"`
}

// Statute is a validated pair of tables.
type Statute struct {
	Version       string
	EffectiveFrom generic.Date
	Rules         rank.Table
	Seats         rank.SeatTable
}

// Default returns the statute compiled into the binary.
func Default() Statute {
	return Statute{
		Version: "default",
		Rules:   rank.DefaultTable(),
		Seats:   rank.DefaultSeats(),
	}
}

// Problem is one validation failure.
type Problem struct {
	Where  string
	Reason string
}

func (p *Problem) Error() string { return p.Where + ": " + p.Reason }

func (p *Problem) Unwrap() error { return ErrInvalidStatute }

// =============================================================================
// LOADING
// =============================================================================

// Load reads and validates a statute file.
func Load(path string) (Statute, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Statute{}, fmt.Errorf("read statute %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return Statute{}, fmt.Errorf("statute %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a JSON document (first byte '{') or YAML otherwise.
func Parse(data []byte) (Statute, error) {
	var doc Document
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return Statute{}, fmt.Errorf("decode statute JSON: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return Statute{}, fmt.Errorf("decode statute YAML: %w", err)
	}
	return FromDocument(doc)
}

// FromDocument converts and validates a decoded document. All problems are
// reported together.
func FromDocument(doc Document) (Statute, error) {
	var problems []error
	report := func(where, format string, args ...any) {
		problems = append(problems, &Problem{Where: where, Reason: fmt.Sprintf(format, args...)})
	}

	s := Statute{Version: doc.Version}
	if doc.Version == "" {
		report("version", "required")
	}
	if doc.EffectiveFrom != "" {
		d, err := generic.ParseDate("effective_from", doc.EffectiveFrom)
		if err != nil {
			report("effective_from", "%v", err)
		}
		s.EffectiveFrom = d
	}

	var rules []rank.Rule
	seen := make(map[rank.Rank]bool)
	for i, rd := range doc.Rules {
		where := fmt.Sprintf("rules[%d]", i)
		r, err := rank.Parse(rd.Rank)
		if err != nil {
			report(where, "%v", err)
			continue
		}
		if seen[r] {
			report(where, "duplicate rule for %s", r)
			continue
		}
		seen[r] = true

		crit, ok := rank.ParseCriterion(rd.Criterion)
		if !ok {
			report(where, "unknown criterion %q", rd.Criterion)
			continue
		}
		rule := rank.Rule{Rank: r, MinimumYears: rd.MinimumYears, Criterion: crit}
		if rd.Next != "" {
			next, err := rank.Parse(rd.Next)
			if err != nil {
				report(where, "next: %v", err)
				continue
			}
			rule.Next, rule.HasNext = next, true
		}
		rules = append(rules, rule)
	}
	for _, r := range rank.All() {
		if !seen[r] {
			report("rules", "no rule for %s", r)
		}
	}

	seats := make(rank.SeatTable, len(doc.Seats))
	for code, byRank := range doc.Seats {
		c, err := rank.ParseCorps(code)
		if err != nil {
			report("seats", "%v", err)
			continue
		}
		inner := make(map[rank.Rank]uint, len(byRank))
		for name, n := range byRank {
			r, err := rank.Parse(name)
			if err != nil {
				report("seats."+code, "%v", err)
				continue
			}
			inner[r] = n
		}
		seats[c] = inner
	}

	if len(problems) > 0 {
		return Statute{}, errors.Join(problems...)
	}

	table, err := rank.NewTable(rules)
	if err != nil {
		return Statute{}, fmt.Errorf("%w: %v", ErrInvalidStatute, err)
	}
	s.Rules, s.Seats = table, seats
	if err := Validate(s.Rules, s.Seats); err != nil {
		return Statute{}, err
	}
	return s, nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the structural rules of a statute.
func Validate(table rank.Table, seats rank.SeatTable) error {
	var problems []error
	report := func(where, format string, args ...any) {
		problems = append(problems, &Problem{Where: where, Reason: fmt.Sprintf(format, args...)})
	}

	for _, rule := range table.Rules() {
		where := "rule " + rule.Rank.String()
		switch {
		case rule.Criterion == rank.RankCeiling && rule.HasNext:
			report(where, "ceiling rank cannot have a next rank")
		case rule.Criterion != rank.RankCeiling && !rule.HasNext:
			report(where, "%s rule needs a next rank", rule.Criterion)
		}
		if !rule.HasNext {
			continue
		}
		if !rule.Next.Valid() {
			report(where, "next rank %d is not a rank", rule.Next)
			continue
		}
		if rule.Next.Hierarchy() != rule.Rank.Hierarchy() {
			report(where, "next rank %s is in the %s hierarchy", rule.Next, rule.Next.Hierarchy())
		} else if !rank.Senior(rule.Next, rule.Rank) {
			report(where, "next rank %s does not outrank %s", rule.Next, rule.Rank)
		}
		if rule.MinimumYears == 0 {
			report(where, "minimum years must be positive")
		}
	}

	for _, c := range rank.AllCorps() {
		byRank, ok := seats[c]
		if !c.Capped() {
			if ok && len(byRank) > 0 {
				report("seats."+c.String(), "reserve corps has no seat cap")
			}
			continue
		}
		if len(byRank) == 0 {
			report("seats."+c.String(), "capped corps needs a seat table")
			continue
		}
		for _, r := range rank.All() {
			if _, ok := byRank[r]; ok && r.Hierarchy() != c.Hierarchy() {
				report("seats."+c.String(), "%s is not a %s rank", r, c.Hierarchy())
			}
		}
	}

	return errors.Join(problems...)
}

// Document returns the document form of a statute, rules in rank order.
func (s Statute) Document() Document {
	doc := Document{Version: s.Version, Seats: make(map[string]map[string]uint, len(s.Seats))}
	if !s.EffectiveFrom.IsZero() {
		doc.EffectiveFrom = s.EffectiveFrom.String()
	}
	for _, rule := range s.Rules.Rules() {
		rd := RuleDoc{Rank: rule.Rank.String(), MinimumYears: rule.MinimumYears, Criterion: rule.Criterion.String()}
		if rule.HasNext {
			rd.Next = rule.Next.String()
		}
		doc.Rules = append(doc.Rules, rd)
	}
	for c, byRank := range s.Seats {
		inner := make(map[string]uint, len(byRank))
		for r, n := range byRank {
			inner[r.String()] = n
		}
		doc.Seats[c.String()] = inner
	}
	return doc
}
