/*
scenarios.go - Demo roster loaders for testing and demonstrations

PURPOSE:

	Provides pre-built rosters that populate the database with realistic
	data for demos. Dates are relative to the service's "today" so the
	forecast labels look the same whenever a scenario is loaded.

AVAILABLE SCENARIOS:

	brigade:       Mixed officers, enlisted and reserve; some eligible now
	seat-overflow: 38 QOEM majors against 35 seats
	merit-board:   1º Sargentos with career events, merit ordering
	data-quality:  Valid members plus rows the statute cannot interpret

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create members through the roster service (validated)
 3. Record career events
 4. data-quality writes broken rows straight to the store

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "brigade"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: report endpoints to inspect the loaded roster
  - cmd/promotions/reports.go: "seed" command, same loaders from the CLI
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/merit"
	"github.com/cbm/promotion-engine/roster"
	"github.com/cbm/promotion-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	load func(ctx context.Context, env seedEnv) error
}

var scenarios = []scenario{
	{ScenarioDTO{ID: "brigade", Name: "Brigade", Members: 13,
		Description: "Officers, enlisted and reserve across all corps; some eligible now"}, loadBrigade},
	{ScenarioDTO{ID: "seat-overflow", Name: "Seat Overflow", Members: 38,
		Description: "38 QOEM majors against 35 statutory seats"}, loadSeatOverflow},
	{ScenarioDTO{ID: "merit-board", Name: "Merit Board", Members: 5,
		Description: "Eligible 1º Sargentos ranked by merit points"}, loadMeritBoard},
	{ScenarioDTO{ID: "data-quality", Name: "Data Quality", Members: 6,
		Description: "Rows with unknown ranks, corps and dates are skipped and reported"}, loadDataQuality},
}

// ScenarioIDs lists the loadable scenarios.
func ScenarioIDs() []string {
	ids := make([]string, len(scenarios))
	for i, s := range scenarios {
		ids[i] = s.ID
	}
	return ids
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s.ScenarioDTO)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined roster.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentScenario = ""

	if err := LoadScenario(r.Context(), h.Service, h.Store, req.ScenarioID, time.Time{}); err != nil {
		if errors.Is(err, errUnknownScenario) {
			writeError(w, http.StatusBadRequest, "unknown scenario", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

var errUnknownScenario = fmt.Errorf("unknown scenario (valid: %v)", ScenarioIDs())

// LoadScenario resets the store and loads the scenario with dates relative
// to the day now falls on (zero now: the service clock).
func LoadScenario(ctx context.Context, svc *roster.Service, store *sqlite.Store, id string, now time.Time) error {
	var sc *scenario
	for i := range scenarios {
		if scenarios[i].ID == id {
			sc = &scenarios[i]
		}
	}
	if sc == nil {
		return errUnknownScenario
	}
	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	env := seedEnv{svc: svc, store: store, today: svc.Today(now), now: now}
	if err := sc.load(ctx, env); err != nil {
		return fmt.Errorf("scenario %s: %w", id, err)
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

type seedEnv struct {
	svc   *roster.Service
	store *sqlite.Store
	today generic.Date
	now   time.Time
}

// ago returns today minus years, months and days.
func (e seedEnv) ago(years, months, days int) string {
	return e.today.AddYears(-years).AddMonths(-months).AddDays(-days).String()
}

func (e seedEnv) member(ctx context.Context, reg, name, rnk, corps, last, blood string) (string, error) {
	m, err := e.svc.CreateMember(ctx, roster.MemberInput{
		Registration:      reg,
		DisplayName:       name,
		Rank:              rnk,
		Corps:             corps,
		LastPromotionDate: last,
		BloodType:         blood,
	})
	if err != nil {
		return "", fmt.Errorf("member %s: %w", reg, err)
	}
	return m.ID, nil
}

func (e seedEnv) event(ctx context.Context, id string, kind merit.Kind, date, doc string) error {
	d, err := generic.ParseDate("date", date)
	if err != nil {
		return err
	}
	_, err = e.svc.RecordEvent(ctx, id, merit.Event{
		Kind:        kind,
		Date:        d,
		Document:    doc,
		Description: string(kind),
		RecordedBy:  "seed",
	}, e.now)
	return err
}

func loadBrigade(ctx context.Context, e seedEnv) error {
	members := []struct{ reg, name, rnk, corps, last, blood string }{
		{"100001", "Ana Ribeiro", "Coronel", "QOEM", e.ago(3, 0, 0), "O+"},
		{"100002", "Bruno Matos", "Tenente-Coronel", "QOEM", e.ago(3, 0, 10), "A+"},
		{"100003", "Carla Nunes", "Major", "QOEM", e.ago(1, 0, 0), "B-"},
		{"100004", "Diego Farias", "Capitão", "QOEM", e.ago(4, 2, 0), "O-"},
		{"100005", "Elisa Prado", "Capitão", "QOEM", e.ago(4, 6, 0), "AB+"},
		{"100006", "Felipe Gomes", "1º Tenente", "QOE", e.ago(2, 11, 0), "A-"},
		{"100007", "Gabriela Lima", "2º Tenente", "QOS", e.ago(0, 0, 20), "O+"},
		{"200001", "Hugo Alves", "Subtenente", "QPBM", e.ago(6, 0, 0), "A+"},
		{"200002", "Iara Costa", "1º Sargento", "QPBM", e.ago(3, 1, 0), "B+"},
		{"200003", "João Pires", "1º Sargento", "QPBM", e.ago(3, 5, 0), "O+"},
		{"200004", "Karina Souza", "Cabo", "QPBM", e.ago(3, 0, 3), "A+"},
		{"200005", "Lucas Melo", "Soldado", "QPBM", e.ago(0, 0, 10), "O-"},
		{"900001", "Marcos Teles", "Major", "QORR", "2015-03-01", ""},
	}
	ids := make(map[string]string, len(members))
	for _, m := range members {
		id, err := e.member(ctx, m.reg, m.name, m.rnk, m.corps, m.last, m.blood)
		if err != nil {
			return err
		}
		ids[m.reg] = id
	}

	if err := e.event(ctx, ids["200002"], merit.KindDecoration, e.ago(1, 0, 0), "BG 041/ano-1"); err != nil {
		return err
	}
	if err := e.event(ctx, ids["200002"], merit.KindCourse, e.ago(0, 6, 0), "BG 012/ano"); err != nil {
		return err
	}
	return e.event(ctx, ids["200003"], merit.KindReprimand, e.ago(2, 0, 0), "BG 077/ano-2")
}

func loadSeatOverflow(ctx context.Context, e seedEnv) error {
	for i := 0; i < 38; i++ {
		reg := fmt.Sprintf("3%05d", i+1)
		name := fmt.Sprintf("Major %02d", i+1)
		if _, err := e.member(ctx, reg, name, "Major", "QOEM", e.ago(1+i%4, i%12, 0), ""); err != nil {
			return err
		}
	}
	return nil
}

func loadMeritBoard(ctx context.Context, e seedEnv) error {
	type seed struct {
		reg, name, last string
		events          []merit.Kind
	}
	seeds := []seed{
		{"400001", "Paula Rocha", e.ago(3, 2, 0), []merit.Kind{merit.KindDecoration, merit.KindCourse}},
		{"400002", "Rafael Dias", e.ago(3, 8, 0), []merit.Kind{merit.KindCommendation}},
		{"400003", "Sofia Araújo", e.ago(4, 0, 0), []merit.Kind{merit.KindCourse, merit.KindDetention}},
		{"400004", "Tiago Barros", e.ago(3, 1, 0), nil},
		{"400005", "Vera Campos", e.ago(1, 0, 0), []merit.Kind{merit.KindDecoration}},
	}
	for _, s := range seeds {
		id, err := e.member(ctx, s.reg, s.name, "1º Sargento", "QPBM", s.last, "")
		if err != nil {
			return err
		}
		for i, k := range s.events {
			date := e.ago(0, 2*(i+1), 0)
			if err := e.event(ctx, id, k, date, fmt.Sprintf("BG %s-%d", s.reg, i+1)); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadDataQuality(ctx context.Context, e seedEnv) error {
	valid := []struct{ reg, name, rnk, corps, last string }{
		{"500001", "Wagner Lopes", "Cabo", "QPBM", e.ago(3, 2, 0)},
		{"500002", "Xênia Freitas", "Capitão", "QOEM", e.ago(2, 0, 0)},
		{"500003", "Yuri Batista", "Soldado", "QPBM", e.ago(5, 1, 0)},
	}
	for _, m := range valid {
		if _, err := e.member(ctx, m.reg, m.name, m.rnk, m.corps, m.last, ""); err != nil {
			return err
		}
	}

	// Rows imported from the legacy roster without validation.
	broken := []sqlite.Member{
		{ID: "legacy-1", Registration: "L-1", DisplayName: "Legado Um", Rank: "Almirante", Corps: "QOEM", LastPromotionDate: "2020-01-10", Active: true},
		{ID: "legacy-2", Registration: "L-2", DisplayName: "Legado Dois", Rank: "Cabo", Corps: "QBM", LastPromotionDate: "2020-01-10", Active: true},
		{ID: "legacy-3", Registration: "L-3", DisplayName: "Legado Três", Rank: "Major", Corps: "QOEM", LastPromotionDate: "31/02/2020", Active: true},
	}
	for _, m := range broken {
		if err := e.store.SaveMember(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
