package forecast

import "fmt"

const (
	LabelAvailable     = "Promoção disponível"
	LabelNotApplicable = "N/A"
)

// RemainingLabel buckets the time left until the eligible date.
//
//	days < 0    -> "Promoção disponível"
//	months < 1  -> "N dias"
//	months < 12 -> "N meses"
//	otherwise   -> "Y anos e M meses"
//
// The buckets only depend on days and months counted to the same eligible
// date, so as the reference date advances the label moves years -> months ->
// days -> available and never back.
func RemainingLabel(days, months int) string {
	switch {
	case days < 0:
		return LabelAvailable
	case months < 1:
		return plural(days, "dia", "dias")
	case months < 12:
		return plural(months, "mês", "meses")
	default:
		return plural(months/12, "ano", "anos") + " e " + plural(months%12, "mês", "meses")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
