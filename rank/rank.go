/*
Package rank holds the statutory tables of the fire-department hierarchy.

PURPOSE:
  Ranks and corps are closed enumerations fixed by statute. Every table in
  this package is indexed by ordinal (fixed-size arrays), so adding a rank
  without a rule or a name is a compile-time mismatch, not a runtime default.

KEY TYPES:
  Rank:      Posto (officer) or graduação (enlisted)
  Hierarchy: Officer or enlisted sub-hierarchy
  Corps:     Quadro - selects hierarchy and seat allocation
  Table:     Rank -> promotion rule (minimum years, criterion, next rank)
  SeatTable: Corps -> rank -> statutory seats

PARSING:
  Stored strings are parsed with Parse/ParseCorps. Unknown values return
  UnknownRankError/UnknownCorpsError. There is no fallback rank.

SEE ALSO:
  - rules.go: RankTransitionRule table
  - seats.go: SeatAllocationTable
  - statute/: loading both tables from a versioned statute file
*/
package rank

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// HIERARCHY
// =============================================================================

type Hierarchy uint8

const (
	Officer Hierarchy = iota
	Enlisted

	// noHierarchy is reported by out-of-range ranks and corps. It matches
	// neither partition.
	noHierarchy
)

func (h Hierarchy) String() string {
	switch h {
	case Officer:
		return "officer"
	case Enlisted:
		return "enlisted"
	}
	return "unknown"
}

// =============================================================================
// RANK
// =============================================================================

type Rank uint8

// Declared in statutory order, most senior first within each hierarchy.
const (
	Coronel Rank = iota
	TenenteCoronel
	Major
	Capitao
	PrimeiroTenente
	SegundoTenente
	Subtenente
	PrimeiroSargento
	SegundoSargento
	TerceiroSargento
	Cabo
	Soldado

	numRanks
)

type rankInfo struct {
	name      string
	code      string
	hierarchy Hierarchy
	ordinal   int // seniority within hierarchy, 0 = most senior
}

var ranks = [numRanks]rankInfo{
	Coronel:          {"Coronel", "CEL", Officer, 0},
	TenenteCoronel:   {"Tenente-Coronel", "TC", Officer, 1},
	Major:            {"Major", "MAJ", Officer, 2},
	Capitao:          {"Capitão", "CAP", Officer, 3},
	PrimeiroTenente:  {"1º Tenente", "1TEN", Officer, 4},
	SegundoTenente:   {"2º Tenente", "2TEN", Officer, 5},
	Subtenente:       {"Subtenente", "ST", Enlisted, 0},
	PrimeiroSargento: {"1º Sargento", "1SGT", Enlisted, 1},
	SegundoSargento:  {"2º Sargento", "2SGT", Enlisted, 2},
	TerceiroSargento: {"3º Sargento", "3SGT", Enlisted, 3},
	Cabo:             {"Cabo", "CB", Enlisted, 4},
	Soldado:          {"Soldado", "SD", Enlisted, 5},
}

// All returns every rank in declaration order.
func All() []Rank {
	out := make([]Rank, numRanks)
	for i := range out {
		out[i] = Rank(i)
	}
	return out
}

// InHierarchy returns the ranks of one hierarchy, most senior first.
func InHierarchy(h Hierarchy) []Rank {
	var out []Rank
	for _, r := range All() {
		if ranks[r].hierarchy == h {
			out = append(out, r)
		}
	}
	return out
}

func (r Rank) Valid() bool { return r < numRanks }

func (r Rank) String() string {
	if !r.Valid() {
		return "Rank(" + strconv.Itoa(int(r)) + ")"
	}
	return ranks[r].name
}

func (r Rank) Code() string {
	if !r.Valid() {
		return ""
	}
	return ranks[r].code
}

func (r Rank) Hierarchy() Hierarchy {
	if !r.Valid() {
		return noHierarchy
	}
	return ranks[r].hierarchy
}

func (r Rank) IsOfficer() bool { return r.Valid() && ranks[r].hierarchy == Officer }

// Ordinal returns seniority within the rank's hierarchy (0 = most senior),
// or -1 for an invalid rank. Presentation order uses this table, never
// string comparison.
func Ordinal(r Rank) int {
	if !r.Valid() {
		return -1
	}
	return ranks[r].ordinal
}

// Senior reports whether a outranks b. Ranks of different hierarchies compare
// officers above enlisted; invalid ranks rank below every valid one.
func Senior(a, b Rank) bool {
	if !a.Valid() || !b.Valid() {
		return a.Valid()
	}
	if ranks[a].hierarchy != ranks[b].hierarchy {
		return ranks[a].hierarchy == Officer
	}
	return ranks[a].ordinal < ranks[b].ordinal
}

// Parse resolves a stored rank string: display name or code, case and
// accent insensitive ("Capitao", "1o Tenente", "1° tenente", "2TEN").
func Parse(s string) (Rank, error) {
	key := normalize(s)
	if r, ok := rankIndex[key]; ok {
		return r, nil
	}
	return 0, &UnknownRankError{Value: s}
}

func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, &UnknownRankError{Rank: r, Value: r.String()}
	}
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

var rankIndex = func() map[string]Rank {
	idx := make(map[string]Rank, 2*numRanks)
	for _, r := range All() {
		idx[normalize(ranks[r].name)] = r
		idx[normalize(ranks[r].code)] = r
	}
	return idx
}()

// normalize folds case, accents, ordinal indicators and separators.
// Chained transformers carry state, so one is built per call.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "°", "o")
	stripMarks := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	folded = strings.NewReplacer("-", " ", "_", " ", ".", "").Replace(folded)
	return strings.Join(strings.Fields(folded), " ")
}
