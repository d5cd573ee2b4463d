package rank

// =============================================================================
// PROMOTION CRITERION
// =============================================================================

type Criterion uint8

const (
	Seniority   Criterion = iota // antiguidade
	Merit                        // merecimento
	RankCeiling                  // top of the hierarchy, no further promotion
)

var criterionNames = [...]string{
	Seniority:   "antiguidade",
	Merit:       "merecimento",
	RankCeiling: "teto",
}

func (c Criterion) String() string {
	if int(c) >= len(criterionNames) {
		return "unknown"
	}
	return criterionNames[c]
}

func ParseCriterion(s string) (Criterion, bool) {
	switch normalize(s) {
	case "antiguidade", "seniority":
		return Seniority, true
	case "merecimento", "merit":
		return Merit, true
	case "teto", "ceiling", "rank ceiling":
		return RankCeiling, true
	}
	return 0, false
}

func (c Criterion) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Criterion) UnmarshalText(b []byte) error {
	parsed, ok := ParseCriterion(string(b))
	if !ok {
		return &UnknownCriterionError{Value: string(b)}
	}
	*c = parsed
	return nil
}

// =============================================================================
// RULE TABLE
// =============================================================================

// Rule is the promotion rule for one rank.
type Rule struct {
	Rank         Rank
	MinimumYears uint
	Criterion    Criterion
	Next         Rank
	HasNext      bool
}

// IsCeiling reports a rank with no next rank.
func (r Rule) IsCeiling() bool { return !r.HasNext }

// NextRank returns the next rank or nil at the ceiling.
func (r Rule) NextRank() *Rank {
	if !r.HasNext {
		return nil
	}
	next := r.Next
	return &next
}

// Table maps each rank to its rule. It is a value type over a fixed array:
// copies are independent and nothing mutates a Table after construction.
type Table struct {
	rules [numRanks]Rule
}

// NewTable builds a table from one rule per rank. Validation of the rules
// themselves (ceilings, hierarchy of next rank) lives in the statute package;
// here a missing rank is the only failure.
func NewTable(rules []Rule) (Table, error) {
	var t Table
	var seen [numRanks]bool
	for _, rule := range rules {
		if !rule.Rank.Valid() {
			return Table{}, &UnknownRankError{Rank: rule.Rank, Value: rule.Rank.String()}
		}
		t.rules[rule.Rank] = rule
		seen[rule.Rank] = true
	}
	for r, ok := range seen {
		if !ok {
			return Table{}, &MissingRuleError{Rank: Rank(r)}
		}
	}
	return t, nil
}

// RuleFor returns the rule of r inside the hierarchy selected by the member's
// corps. A rank of the other hierarchy has no rule there.
func (t Table) RuleFor(r Rank, isOfficer bool) (Rule, error) {
	want := Enlisted
	if isOfficer {
		want = Officer
	}
	if !r.Valid() || r.Hierarchy() != want {
		return Rule{}, &UnknownRankError{Rank: r, Value: r.String(), Hierarchy: want}
	}
	return t.rules[r], nil
}

// Rules returns every rule in rank declaration order.
func (t Table) Rules() []Rule {
	out := make([]Rule, numRanks)
	copy(out, t.rules[:])
	return out
}

var defaultTable = Table{rules: [numRanks]Rule{
	Coronel:          {Rank: Coronel, Criterion: RankCeiling},
	TenenteCoronel:   {Rank: TenenteCoronel, MinimumYears: 3, Criterion: Merit, Next: Coronel, HasNext: true},
	Major:            {Rank: Major, MinimumYears: 3, Criterion: Merit, Next: TenenteCoronel, HasNext: true},
	Capitao:          {Rank: Capitao, MinimumYears: 4, Criterion: Merit, Next: Major, HasNext: true},
	PrimeiroTenente:  {Rank: PrimeiroTenente, MinimumYears: 3, Criterion: Seniority, Next: Capitao, HasNext: true},
	SegundoTenente:   {Rank: SegundoTenente, MinimumYears: 2, Criterion: Seniority, Next: PrimeiroTenente, HasNext: true},
	Subtenente:       {Rank: Subtenente, Criterion: RankCeiling},
	PrimeiroSargento: {Rank: PrimeiroSargento, MinimumYears: 3, Criterion: Merit, Next: Subtenente, HasNext: true},
	SegundoSargento:  {Rank: SegundoSargento, MinimumYears: 4, Criterion: Merit, Next: PrimeiroSargento, HasNext: true},
	TerceiroSargento: {Rank: TerceiroSargento, MinimumYears: 4, Criterion: Seniority, Next: SegundoSargento, HasNext: true},
	Cabo:             {Rank: Cabo, MinimumYears: 3, Criterion: Seniority, Next: TerceiroSargento, HasNext: true},
	Soldado:          {Rank: Soldado, MinimumYears: 5, Criterion: Seniority, Next: Cabo, HasNext: true},
}}

// DefaultTable returns the rule table of the statute in force.
func DefaultTable() Table { return defaultTable }
