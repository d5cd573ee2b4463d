package generic

// =============================================================================
// PERIOD - Window of dates, used for time-in-rank and scoring windows
// =============================================================================

// Period is a closed date range [Start, End].
//
// Examples:
//   - Time in current rank: last promotion -> today
//   - Merit scoring window: day after last promotion -> board date
type Period struct {
	Start Date
	End   Date
}

// NewPeriod validates that End is not before Start.
func NewPeriod(start, end Date) (Period, error) {
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// Contains returns true if the date is within the period [Start, End]
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
