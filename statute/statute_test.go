package statute_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/rank"
	"github.com/cbm/promotion-engine/statute"
)

func problems(err error) []string {
	var out []string
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	if err != nil {
		out = append(out, err.Error())
	}
	return out
}

func TestLoad_TestdataMatchesDefault(t *testing.T) {
	// GIVEN: The checked-in statute file
	// WHEN: Loading it
	// THEN: It produces exactly the compiled-in tables

	s, err := statute.Load(filepath.Join("testdata", "statute.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "LC 2024/01", s.Version)
	assert.Equal(t, generic.NewDate(2024, 1, 1), s.EffectiveFrom)
	assert.Equal(t, rank.DefaultTable(), s.Rules)
	assert.Equal(t, rank.DefaultSeats(), s.Seats)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := statute.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_JSONDocument(t *testing.T) {
	// GIVEN: The default statute rendered as JSON
	// WHEN: Parsing it back
	// THEN: Same tables
	data, err := json.Marshal(statute.Default().Document())
	require.NoError(t, err)

	s, err := statute.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, rank.DefaultTable(), s.Rules)
	assert.Equal(t, rank.DefaultSeats(), s.Seats)
	assert.True(t, s.EffectiveFrom.IsZero())
}

func TestDocument_YAMLRoundTrip(t *testing.T) {
	s, err := statute.Load(filepath.Join("testdata", "statute.yaml"))
	require.NoError(t, err)

	data, err := yaml.Marshal(s.Document())
	require.NoError(t, err)

	again, err := statute.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestParse_ReportsEveryProblem(t *testing.T) {
	// GIVEN: A document with several independent mistakes
	// WHEN: Parsing
	// THEN: All of them are reported together, each wrapping ErrInvalidStatute

	doc := statute.Default().Document()
	doc.Version = ""
	doc.Rules[0].Criterion = "sorteio"
	doc.Rules = append(doc.Rules, statute.RuleDoc{Rank: "Almirante", Criterion: "teto"})
	doc.Seats["QXX"] = map[string]uint{"Major": 1}

	_, err := statute.FromDocument(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, statute.ErrInvalidStatute)

	got := problems(err)
	assert.Len(t, got, 4)
	assert.Contains(t, got, "version: required")
	assert.Contains(t, got, `rules[0]: unknown criterion "sorteio"`)

	var p *statute.Problem
	require.True(t, errors.As(err, &p))
	assert.NotEmpty(t, p.Where)
}

func TestParse_DuplicateRule(t *testing.T) {
	doc := statute.Default().Document()
	doc.Rules = append(doc.Rules, doc.Rules[3])

	_, err := statute.FromDocument(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, statute.ErrInvalidStatute)
	assert.Contains(t, err.Error(), "duplicate rule for Capitão")
}

func TestParse_BadDocuments(t *testing.T) {
	_, err := statute.Parse([]byte(`{"version": `))
	assert.ErrorContains(t, err, "decode statute JSON")

	_, err = statute.Parse([]byte("rules: [unterminated"))
	assert.ErrorContains(t, err, "decode statute YAML")

	_, err = statute.Parse([]byte("version: x\neffective_from: \"2024-02-30\"\n"))
	assert.ErrorIs(t, err, statute.ErrInvalidStatute)
}

func TestValidate(t *testing.T) {
	rulesWith := func(mutate func(rules []rank.Rule)) rank.Table {
		rules := rank.DefaultTable().Rules()
		mutate(rules)
		table, err := rank.NewTable(rules)
		require.NoError(t, err)
		return table
	}

	tests := []struct {
		name  string
		table rank.Table
		seats func(rank.SeatTable)
		want  string
	}{
		{
			name:  "ceiling with next",
			table: rulesWith(func(r []rank.Rule) { r[rank.Coronel].Next, r[rank.Coronel].HasNext = rank.Major, true }),
			want:  "rule Coronel: ceiling rank cannot have a next rank",
		},
		{
			name:  "seniority without next",
			table: rulesWith(func(r []rank.Rule) { r[rank.Cabo].HasNext = false }),
			want:  "rule Cabo: antiguidade rule needs a next rank",
		},
		{
			name:  "next in other hierarchy",
			table: rulesWith(func(r []rank.Rule) { r[rank.Subtenente] = rank.Rule{Rank: rank.Subtenente, MinimumYears: 2, Criterion: rank.Merit, Next: rank.SegundoTenente, HasNext: true} }),
			want:  "rule Subtenente: next rank 2º Tenente is in the officer hierarchy",
		},
		{
			name:  "next not more senior",
			table: rulesWith(func(r []rank.Rule) { r[rank.Major].Next = rank.Capitao }),
			want:  "rule Major: next rank Capitão does not outrank Major",
		},
		{
			name:  "zero years",
			table: rulesWith(func(r []rank.Rule) { r[rank.Soldado].MinimumYears = 0 }),
			want:  "rule Soldado: minimum years must be positive",
		},
		{
			name:  "capped corps without seats",
			table: rank.DefaultTable(),
			seats: func(s rank.SeatTable) { delete(s, rank.QOS) },
			want:  "seats.QOS: capped corps needs a seat table",
		},
		{
			name:  "reserve corps with seats",
			table: rank.DefaultTable(),
			seats: func(s rank.SeatTable) { s[rank.QORR] = map[rank.Rank]uint{rank.Major: 1} },
			want:  "seats.QORR: reserve corps has no seat cap",
		},
		{
			name:  "enlisted rank in officer corps",
			table: rank.DefaultTable(),
			seats: func(s rank.SeatTable) { s[rank.QOE][rank.Cabo] = 10 },
			want:  "seats.QOE: Cabo is not a officer rank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seats := rank.DefaultSeats()
			if tt.seats != nil {
				tt.seats(seats)
			}
			err := statute.Validate(tt.table, seats)
			require.Error(t, err)
			assert.ErrorIs(t, err, statute.ErrInvalidStatute)
			assert.Contains(t, problems(err), tt.want)
		})
	}

	assert.NoError(t, statute.Validate(rank.DefaultTable(), rank.DefaultSeats()))
}
