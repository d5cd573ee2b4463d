/*
handlers.go - HTTP API handlers for the promotion engine

PURPOSE:
  Exposes the roster service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the roster service.

ENDPOINTS:
  Members:
    GET    /api/members                     List members
    POST   /api/members                     Create member
    GET    /api/members/{id}                Member details
    PUT    /api/members/{id}                Replace member fields
    DELETE /api/members/{id}                Deactivate member

  Promotions:
    POST   /api/members/{id}/promotions     Promote to the next rank
    GET    /api/members/{id}/promotions     Promotion history

  Merit:
    POST   /api/members/{id}/events                    Record career event
    GET    /api/members/{id}/events                    Event history
    POST   /api/members/{id}/events/{entryID}/reverse  Reverse an event
    GET    /api/members/{id}/score                     Score since last promotion

  Reports:
    GET    /api/members/{id}/forecast       One member's forecast
    GET    /api/forecasts?corps=            Roster forecast (skip-and-report)
    GET    /api/vacancies                   Vacancy report
    GET    /api/boards/{corps}/{rank}       Promotion board
    GET    /api/statute                     Rule and seat tables in force
    GET    /api/eligibility                 Last eligibility scan
    POST   /api/eligibility/scan            Run a scan now

  Ops:
    GET    /healthz                         Database ping

REFERENCE DATE:
  Report endpoints accept ?as_of=YYYY-MM-DD to evaluate against another day.
  Without it the service clock (configured timezone) decides "today".

ERROR HANDLING:
  Errors are returned as JSON {"error","code","details"}:
  - 400: Validation errors, invalid input
  - 404: Member or entry not found
  - 409: Conflict (idempotency, duplicate registration, stale rank)
  - 422: Stored member data the statute cannot interpret
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo roster loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/merit"
	"github.com/cbm/promotion-engine/rank"
	"github.com/cbm/promotion-engine/roster"
	"github.com/cbm/promotion-engine/statute"
	"github.com/cbm/promotion-engine/store/sqlite"
	"github.com/cbm/promotion-engine/vacancy"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *roster.Service
	Store   *sqlite.Store
	Logger  *zap.Logger
	// Scheduler is optional; without it the eligibility endpoints scan on demand.
	Scheduler *EligibilityScheduler

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(svc *roster.Service, store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Store: store, Logger: logger}
}

// =============================================================================
// MEMBER HANDLERS
// =============================================================================

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Service.ListMembers(r.Context())
	if err != nil {
		h.writeWriteError(w, err)
		return
	}
	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = toMemberDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req MemberRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.Service.CreateMember(r.Context(), req.input())
	if err != nil {
		h.writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberDTO(m))
}

func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.GetMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(m))
}

func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req MemberRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.Service.UpdateMember(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(m))
}

func (h *Handler) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeactivateMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeWriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PROMOTION HANDLERS
// =============================================================================

func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	var req PromotionRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.Promote(r.Context(), chi.URLParam(r, "id"), roster.PromotionInput{
		Date:     req.Date,
		Document: req.Document,
	})
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPromotionDTO(p))
}

func (h *Handler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Service.Promotions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeWriteError(w, err)
		return
	}
	dtos := make([]PromotionDTO, len(ps))
	for i, p := range ps {
		dtos[i] = toPromotionDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// MERIT HANDLERS
// =============================================================================

func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !decode(w, r, &req) {
		return
	}
	kind, err := merit.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown event kind", err)
		return
	}
	date, err := generic.ParseDate("date", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event date", err)
		return
	}
	ev := merit.Event{
		Kind:        kind,
		Date:        date,
		Description: req.Description,
		Document:    req.Document,
		RecordedBy:  req.RecordedBy,
	}
	if req.Points != nil {
		p, err := generic.NewPointsFromString(*req.Points)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid points", err)
			return
		}
		ev.Points = &p
	}

	entry, err := h.Service.RecordEvent(r.Context(), chi.URLParam(r, "id"), ev, time.Time{})
	if err != nil {
		h.writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.Events(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeWriteError(w, err)
		return
	}
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ReverseEvent(w http.ResponseWriter, r *http.Request) {
	var req ReverseEventRequest
	if !decode(w, r, &req) {
		return
	}
	entry, err := h.Service.ReverseEvent(r.Context(),
		chi.URLParam(r, "id"),
		generic.EntryID(chi.URLParam(r, "entryID")),
		req.Reason, req.Actor, time.Time{})
	if err != nil {
		h.writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

func (h *Handler) GetScore(w http.ResponseWriter, r *http.Request) {
	now, ok := asOf(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	summary, err := h.Service.Score(r.Context(), id, now)
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScoreDTO(id, h.Service.Today(now), summary))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	now, ok := asOf(w, r)
	if !ok {
		return
	}
	f, err := h.Service.Forecast(r.Context(), chi.URLParam(r, "id"), now)
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) ListForecasts(w http.ResponseWriter, r *http.Request) {
	now, ok := asOf(w, r)
	if !ok {
		return
	}
	result, err := h.Service.Forecasts(r.Context(), r.URL.Query().Get("corps"), now)
	if err != nil {
		h.writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ForecastsResponse{
		AsOf:         result.AsOf,
		Forecasts:    result.Forecasts,
		SkippedCount: len(result.Skipped),
		Skipped:      toSkippedDTOs(result.Skipped),
	})
}

func (h *Handler) GetVacancies(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.Vacancies(r.Context())
	if err != nil {
		h.writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VacanciesResponse{
		Report:       view.Report,
		SkippedCount: len(view.Skipped),
		Skipped:      toSkippedDTOs(view.Skipped),
	})
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	now, ok := asOf(w, r)
	if !ok {
		return
	}
	board, err := h.Service.Board(r.Context(), chi.URLParam(r, "corps"), chi.URLParam(r, "rank"), now)
	if err != nil {
		h.writeWriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BoardResponse{
		Board:        board,
		SkippedCount: len(board.Skipped),
		Skipped:      toSkippedDTOs(board.Skipped),
	})
}

func (h *Handler) GetStatute(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Statute().Document())
}

// Health pings the database.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Store != nil {
		if err := h.Store.Ping(r.Context()); err != nil {
			h.Logger.Error("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

// asOf reads the optional ?as_of= reference date. Zero time means "today".
func asOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	v := r.URL.Query().Get("as_of")
	if v == "" {
		return time.Time{}, true
	}
	d, err := generic.ParseDate("as_of", v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of", err)
		return time.Time{}, false
	}
	return d.Time, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: codeForStatus(status)}
	if err != nil {
		if code := errorCode(err); code != "error" {
			resp.Code = code
		}
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeWriteError maps errors of calls driven by client input: a bad date
// in the request is the client's fault.
func (h *Handler) writeWriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, roster.ErrInvalidMember), generic.IsClientError(err),
		errors.Is(err, rank.ErrUnknownRank), errors.Is(err, rank.ErrUnknownCorps):
		writeError(w, http.StatusBadRequest, "invalid input", err)
	default:
		h.writeReadError(w, err)
	}
}

// writeReadError maps errors of calls that interpret stored data: a bad
// stored date is a data-integrity problem of that member.
func (h *Handler) writeReadError(w http.ResponseWriter, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case generic.IsConflict(err), errors.Is(err, sqlite.ErrDuplicateRegistration), errors.Is(err, sqlite.ErrRankChanged),
		errors.Is(err, roster.ErrInactiveMember):
		writeError(w, http.StatusConflict, "conflict", err)
	case generic.IsDataIntegrity(err), errors.Is(err, roster.ErrCeilingRank):
		writeError(w, http.StatusUnprocessableEntity, "member data cannot be processed", err)
	case errors.Is(err, roster.ErrInvalidMember), generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid input", err)
	default:
		h.Logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

// errorCode is the machine-readable code of an error.
func errorCode(err error) string {
	switch {
	case errors.Is(err, generic.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, rank.ErrUnknownRank):
		return "unknown_rank"
	case errors.Is(err, rank.ErrUnknownCorps):
		return "unknown_corps"
	case errors.Is(err, vacancy.ErrMissingSeatConfig):
		return "missing_seat_config"
	case errors.Is(err, statute.ErrInvalidStatute):
		return "invalid_statute"
	case errors.Is(err, roster.ErrInvalidMember):
		return "invalid_member"
	case errors.Is(err, roster.ErrCeilingRank):
		return "ceiling_rank"
	case errors.Is(err, roster.ErrInactiveMember):
		return "inactive_member"
	case errors.Is(err, generic.ErrInvalidBloodType):
		return "invalid_blood_type"
	case errors.Is(err, generic.ErrUnknownEventKind):
		return "unknown_event_kind"
	case errors.Is(err, generic.ErrInvalidPeriod):
		return "invalid_period"
	case generic.IsNotFound(err):
		return "not_found"
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		return "duplicate"
	case errors.Is(err, generic.ErrAlreadyReversed):
		return "already_reversed"
	case errors.Is(err, sqlite.ErrDuplicateRegistration):
		return "duplicate_registration"
	case errors.Is(err, sqlite.ErrRankChanged):
		return "rank_changed"
	}
	return "error"
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "unprocessable"
	}
	return "internal"
}
