/*
Package vacancy reconciles the statutory seat table against a live census.

PURPOSE:
  Reports, per corps and rank, how many seats the statute allows, how many
  active members occupy them and how many are free. Feeds the vacancy view
  and the promotion board.

RULES:
  - Capped corps: one row for every rank in the corps' seat table, even with
    zero occupants. Available = max(0, allowed - occupied).
  - Uncapped (reserve) corps: one row per rank seen in the census, with
    allowed = available = 0. These rows are informational only.
  - Census entries that a capped corps' table does not cover are not counted;
    they are returned as MissingSeatConfigError issues.
  - Totals (officer, enlisted, grand) cover capped corps only.

PURITY:
  The accountant filters nothing (callers pass active members only), keeps no
  state between calls and orders everything by statutory tables, so equal
  inputs serialize to identical bytes.
*/
package vacancy

import (
	"sort"

	"github.com/cbm/promotion-engine/rank"
)

// CensusEntry is one active member as the accountant sees it.
type CensusEntry struct {
	Rank  rank.Rank
	Corps rank.Corps
}

type Row struct {
	Rank           rank.Rank `json:"rank"`
	AllowedSeats   uint      `json:"allowed_seats"`
	OccupiedSeats  uint      `json:"occupied_seats"`
	AvailableSeats uint      `json:"available_seats"`
}

type CorpsReport struct {
	Corps  rank.Corps `json:"corps"`
	Capped bool       `json:"capped"`
	Rows   []Row      `json:"rows"`
}

// Row returns the row for a rank, if present.
func (c CorpsReport) Row(r rank.Rank) (Row, bool) {
	for _, row := range c.Rows {
		if row.Rank == r {
			return row, true
		}
	}
	return Row{}, false
}

type Totals struct {
	AllowedSeats   uint `json:"allowed_seats"`
	OccupiedSeats  uint `json:"occupied_seats"`
	AvailableSeats uint `json:"available_seats"`
}

func (t Totals) add(row Row) Totals {
	return Totals{
		AllowedSeats:   t.AllowedSeats + row.AllowedSeats,
		OccupiedSeats:  t.OccupiedSeats + row.OccupiedSeats,
		AvailableSeats: t.AvailableSeats + row.AvailableSeats,
	}
}

// Summary rows are separate from the per-rank report.
type Summary struct {
	Officer  Totals `json:"officer"`
	Enlisted Totals `json:"enlisted"`
	Grand    Totals `json:"grand"`
}

type Report struct {
	Corps  []CorpsReport             `json:"corps"`
	Totals Summary                   `json:"totals"`
	Issues []*MissingSeatConfigError `json:"issues,omitempty"`
}

// For returns the report of one corps, if present.
func (r Report) For(c rank.Corps) (CorpsReport, bool) {
	for _, cr := range r.Corps {
		if cr.Corps == c {
			return cr, true
		}
	}
	return CorpsReport{}, false
}

// Accountant reads a seat table; it never modifies it.
type Accountant struct {
	Seats rank.SeatTable
}

func NewAccountant(seats rank.SeatTable) *Accountant {
	return &Accountant{Seats: seats}
}

type cell struct {
	corps rank.Corps
	rank  rank.Rank
}

// Account builds the vacancy report for an active-member census.
func (a *Accountant) Account(census []CensusEntry) Report {
	occupancy := make(map[cell]uint, len(census))
	for _, e := range census {
		occupancy[cell{e.Corps, e.Rank}]++
	}

	var report Report
	for _, c := range rank.AllCorps() {
		cr := CorpsReport{Corps: c, Capped: c.Capped(), Rows: []Row{}}
		if c.Capped() {
			if _, ok := a.Seats[c]; !ok {
				continue
			}
			for _, r := range a.Seats.Ranks(c) {
				allowed, _ := a.Seats.Seats(c, r)
				occupied := occupancy[cell{c, r}]
				row := Row{
					Rank:           r,
					AllowedSeats:   allowed,
					OccupiedSeats:  occupied,
					AvailableSeats: available(allowed, occupied),
				}
				cr.Rows = append(cr.Rows, row)
				if c.IsOfficer() {
					report.Totals.Officer = report.Totals.Officer.add(row)
				} else {
					report.Totals.Enlisted = report.Totals.Enlisted.add(row)
				}
				report.Totals.Grand = report.Totals.Grand.add(row)
			}
		} else {
			for _, r := range rank.All() {
				if n := occupancy[cell{c, r}]; n > 0 {
					cr.Rows = append(cr.Rows, Row{Rank: r, OccupiedSeats: n})
				}
			}
			sortByOrdinal(cr.Rows)
		}
		report.Corps = append(report.Corps, cr)
	}

	report.Issues = a.issues(occupancy)
	return report
}

// issues lists census cells a capped corps cannot seat, in corps then
// statutory rank order.
func (a *Accountant) issues(occupancy map[cell]uint) []*MissingSeatConfigError {
	var out []*MissingSeatConfigError
	for k, n := range occupancy {
		if !k.corps.Valid() || !k.rank.Valid() {
			out = append(out, &MissingSeatConfigError{Corps: k.corps, Rank: k.rank, Count: n})
			continue
		}
		if !k.corps.Capped() {
			continue
		}
		if _, ok := a.Seats.Seats(k.corps, k.rank); !ok {
			out = append(out, &MissingSeatConfigError{Corps: k.corps, Rank: k.rank, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Corps != out[j].Corps {
			return out[i].Corps < out[j].Corps
		}
		return out[i].Rank < out[j].Rank
	})
	return out
}

func available(allowed, occupied uint) uint {
	if occupied >= allowed {
		return 0
	}
	return allowed - occupied
}

// sortByOrdinal orders rows officers first, then by seniority.
func sortByOrdinal(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rank.Senior(rows[i].Rank, rows[j].Rank)
	})
}
