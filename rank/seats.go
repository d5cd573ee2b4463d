package rank

// =============================================================================
// SEAT ALLOCATION TABLE
// =============================================================================

// SeatTable holds statutory seats per rank for each capped corps.
// Uncapped (reserve) corps have no entry.
type SeatTable map[Corps]map[Rank]uint

// Seats returns the seats for (corps, rank) and whether the table defines them.
func (s SeatTable) Seats(c Corps, r Rank) (uint, bool) {
	byRank, ok := s[c]
	if !ok {
		return 0, false
	}
	n, ok := byRank[r]
	return n, ok
}

// Ranks returns the ranks configured for a corps in statutory order.
func (s SeatTable) Ranks(c Corps) []Rank {
	byRank := s[c]
	var out []Rank
	for _, r := range InHierarchy(c.Hierarchy()) {
		if _, ok := byRank[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy.
func (s SeatTable) Clone() SeatTable {
	out := make(SeatTable, len(s))
	for c, byRank := range s {
		inner := make(map[Rank]uint, len(byRank))
		for r, n := range byRank {
			inner[r] = n
		}
		out[c] = inner
	}
	return out
}

// DefaultSeats returns a fresh copy of the statutory seat allocation.
func DefaultSeats() SeatTable {
	return SeatTable{
		QOEM: {
			Coronel:         12,
			TenenteCoronel:  24,
			Major:           35,
			Capitao:         60,
			PrimeiroTenente: 70,
			SegundoTenente:  80,
		},
		QOE: {
			Major:           4,
			Capitao:         8,
			PrimeiroTenente: 12,
			SegundoTenente:  16,
		},
		QOS: {
			TenenteCoronel:  2,
			Major:           4,
			Capitao:         10,
			PrimeiroTenente: 14,
			SegundoTenente:  14,
		},
		QPBM: {
			Subtenente:       40,
			PrimeiroSargento: 80,
			SegundoSargento:  120,
			TerceiroSargento: 200,
			Cabo:             350,
			Soldado:          600,
		},
	}
}
