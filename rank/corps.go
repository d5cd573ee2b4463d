package rank

import "strings"

// =============================================================================
// CORPS (QUADRO)
// =============================================================================

// Corps is a statutory personnel category. It selects the rank hierarchy
// and the seat allocation, neither of which is stored per member.
type Corps uint8

// Declared in presentation order.
const (
	QOEM Corps = iota // Quadro de Oficiais de Estado-Maior
	QOE               // Quadro de Oficiais Especialistas
	QOS               // Quadro de Oficiais de Saúde
	QPBM              // Quadro de Praças Bombeiros Militares
	QORR              // Oficiais da Reserva Remunerada
	QPRR              // Praças da Reserva Remunerada

	numCorps
)

type corpsInfo struct {
	code      string
	name      string
	hierarchy Hierarchy
	capped    bool
}

var corps = [numCorps]corpsInfo{
	QOEM: {"QOEM", "Oficiais de Estado-Maior", Officer, true},
	QOE:  {"QOE", "Oficiais Especialistas", Officer, true},
	QOS:  {"QOS", "Oficiais de Saúde", Officer, true},
	QPBM: {"QPBM", "Praças Bombeiros Militares", Enlisted, true},
	QORR: {"QORR", "Oficiais da Reserva Remunerada", Officer, false},
	QPRR: {"QPRR", "Praças da Reserva Remunerada", Enlisted, false},
}

// AllCorps returns every corps in presentation order.
func AllCorps() []Corps {
	out := make([]Corps, numCorps)
	for i := range out {
		out[i] = Corps(i)
	}
	return out
}

func (c Corps) Valid() bool { return c < numCorps }

func (c Corps) String() string {
	if !c.Valid() {
		return "Corps(?)"
	}
	return corps[c].code
}

func (c Corps) Name() string {
	if !c.Valid() {
		return ""
	}
	return corps[c].name
}

func (c Corps) Hierarchy() Hierarchy {
	if !c.Valid() {
		return noHierarchy
	}
	return corps[c].hierarchy
}

// IsOfficer selects the officer partition of the rule table.
func (c Corps) IsOfficer() bool { return c.Hierarchy() == Officer }

// Capped reports whether the corps has statutory seat limits. Reserve
// categories are uncapped and only displayed.
func (c Corps) Capped() bool { return c.Valid() && corps[c].capped }

// ParseCorps resolves a stored corps code, case-insensitively.
func ParseCorps(s string) (Corps, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	for _, c := range AllCorps() {
		if corps[c].code == code {
			return c, nil
		}
	}
	return 0, &UnknownCorpsError{Value: s}
}

func (c Corps) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, &UnknownCorpsError{Value: c.String()}
	}
	return []byte(c.String()), nil
}

func (c *Corps) UnmarshalText(b []byte) error {
	parsed, err := ParseCorps(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
