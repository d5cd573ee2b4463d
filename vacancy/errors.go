package vacancy

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/rank"
)

// ErrMissingSeatConfig is returned when a capped corps has no seats for a rank
// its members hold.
var ErrMissingSeatConfig = errors.New("missing seat configuration")

func init() {
	generic.RegisterIntegrityError(ErrMissingSeatConfig)
}

// MissingSeatConfigError reports census members the seat table cannot place.
type MissingSeatConfigError struct {
	Corps rank.Corps
	Rank  rank.Rank
	Count uint
}

func (e *MissingSeatConfigError) Error() string {
	return fmt.Sprintf("missing seat configuration: %s has no seats for %s (%d members)", e.Corps, e.Rank, e.Count)
}

func (e *MissingSeatConfigError) Unwrap() error { return ErrMissingSeatConfig }

// MarshalJSON uses plain strings so an out-of-range value still serializes.
func (e *MissingSeatConfigError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Corps   string `json:"corps"`
		Rank    string `json:"rank"`
		Count   uint   `json:"count"`
		Message string `json:"message"`
	}{e.Corps.String(), e.Rank.String(), e.Count, e.Error()})
}
