/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the stored roster and the engine types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Members:    MemberDTO, MemberRequest
  Promotions: PromotionDTO, PromotionRequest
  Merit:      EntryDTO, EventRequest, ReverseEventRequest, ScoreDTO
  Reports:    ForecastsResponse, VacanciesResponse, BoardResponse, SkippedDTO
  Scenarios:  ScenarioDTO, LoadScenarioRequest

ENGINE TYPES:
  forecast.Forecast, vacancy.Report and forecast.Board carry their own JSON
  tags and are embedded as-is; ranks and corps serialize as display strings.

VALIDATION:
  Validation is done by the roster service, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/cbm/promotion-engine/forecast"
	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/merit"
	"github.com/cbm/promotion-engine/roster"
	"github.com/cbm/promotion-engine/store/sqlite"
	"github.com/cbm/promotion-engine/vacancy"
)

// =============================================================================
// MEMBERS
// =============================================================================

type MemberDTO struct {
	ID                string `json:"id"`
	Registration      string `json:"registration"`
	DisplayName       string `json:"display_name"`
	Rank              string `json:"rank"`
	Corps             string `json:"corps"`
	LastPromotionDate string `json:"last_promotion_date"`
	BirthDate         string `json:"birth_date,omitempty"`
	EntryDate         string `json:"entry_date,omitempty"`
	BloodType         string `json:"blood_type,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Email             string `json:"email,omitempty"`
	Active            bool   `json:"active"`
	CreatedAt         string `json:"created_at,omitempty"`
	UpdatedAt         string `json:"updated_at,omitempty"`
}

// MemberRequest creates or replaces a member.
type MemberRequest struct {
	Registration      string `json:"registration"`
	DisplayName       string `json:"display_name"`
	Rank              string `json:"rank"`
	Corps             string `json:"corps"`
	LastPromotionDate string `json:"last_promotion_date"`
	BirthDate         string `json:"birth_date"`
	EntryDate         string `json:"entry_date"`
	BloodType         string `json:"blood_type"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
}

func (r MemberRequest) input() roster.MemberInput {
	return roster.MemberInput{
		Registration:      r.Registration,
		DisplayName:       r.DisplayName,
		Rank:              r.Rank,
		Corps:             r.Corps,
		LastPromotionDate: r.LastPromotionDate,
		BirthDate:         r.BirthDate,
		EntryDate:         r.EntryDate,
		BloodType:         r.BloodType,
		Phone:             r.Phone,
		Email:             r.Email,
	}
}

func toMemberDTO(m sqlite.Member) MemberDTO {
	return MemberDTO{
		ID:                m.ID,
		Registration:      m.Registration,
		DisplayName:       m.DisplayName,
		Rank:              m.Rank,
		Corps:             m.Corps,
		LastPromotionDate: m.LastPromotionDate,
		BirthDate:         m.BirthDate,
		EntryDate:         m.EntryDate,
		BloodType:         m.BloodType,
		Phone:             m.Phone,
		Email:             m.Email,
		Active:            m.Active,
		CreatedAt:         formatTimestamp(m.CreatedAt),
		UpdatedAt:         formatTimestamp(m.UpdatedAt),
	}
}

// =============================================================================
// PROMOTIONS
// =============================================================================

type PromotionRequest struct {
	Date     string `json:"date"`
	Document string `json:"document"`
}

type PromotionDTO struct {
	ID         string `json:"id"`
	MemberID   string `json:"member_id"`
	FromRank   string `json:"from_rank"`
	ToRank     string `json:"to_rank"`
	PromotedOn string `json:"promoted_on"`
	Criterion  string `json:"criterion"`
	Document   string `json:"document,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func toPromotionDTO(p sqlite.Promotion) PromotionDTO {
	return PromotionDTO{
		ID:         p.ID,
		MemberID:   p.MemberID,
		FromRank:   p.FromRank,
		ToRank:     p.ToRank,
		PromotedOn: p.PromotedOn,
		Criterion:  p.Criterion,
		Document:   p.Document,
		CreatedAt:  formatTimestamp(p.CreatedAt),
	}
}

// =============================================================================
// MERIT
// =============================================================================

// EventRequest records a career event. Points is only honoured for courses.
type EventRequest struct {
	Kind        string  `json:"kind"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Document    string  `json:"document"`
	Points      *string `json:"points,omitempty"`
	RecordedBy  string  `json:"recorded_by"`
}

type ReverseEventRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

type EntryDTO struct {
	ID          string `json:"id"`
	MemberID    string `json:"member_id"`
	Kind        string `json:"kind"`
	Date        string `json:"date"`
	Points      string `json:"points"`
	Type        string `json:"type"`
	ReferenceID string `json:"reference_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func toEntryDTO(e generic.Entry) EntryDTO {
	dto := EntryDTO{
		ID:          string(e.ID),
		MemberID:    string(e.MemberID),
		Kind:        e.Kind,
		Date:        e.EffectiveAt.String(),
		Points:      e.Delta.String(),
		Type:        string(e.Type),
		ReferenceID: e.ReferenceID,
		Reason:      e.Reason,
		CreatedBy:   e.CreatedBy,
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.String()
	}
	return dto
}

type ScoreDTO struct {
	MemberID string         `json:"member_id"`
	AsOf     string         `json:"as_of"`
	Score    string         `json:"score"`
	Counts   map[string]int `json:"counts"`
}

func toScoreDTO(id string, asOf generic.Date, s merit.Summary) ScoreDTO {
	counts := make(map[string]int, len(merit.Kinds()))
	for _, k := range merit.Kinds() {
		counts[string(k)] = s.Counts[k]
	}
	return ScoreDTO{MemberID: id, AsOf: asOf.String(), Score: s.Score.String(), Counts: counts}
}

// =============================================================================
// REPORTS
// =============================================================================

// SkippedDTO is a member left out of a report.
type SkippedDTO struct {
	MemberID string `json:"member_id"`
	Code     string `json:"code"`
	Error    string `json:"error"`
}

func toSkippedDTOs(recs []forecast.RecordError) []SkippedDTO {
	out := make([]SkippedDTO, len(recs))
	for i, rec := range recs {
		out[i] = SkippedDTO{MemberID: string(rec.MemberID), Code: errorCode(rec.Err), Error: rec.Err.Error()}
	}
	return out
}

type ForecastsResponse struct {
	AsOf         generic.Date        `json:"as_of"`
	Forecasts    []forecast.Forecast `json:"forecasts"`
	SkippedCount int                 `json:"skipped_count"`
	Skipped      []SkippedDTO        `json:"skipped"`
}

type VacanciesResponse struct {
	vacancy.Report
	SkippedCount int          `json:"skipped_count"`
	Skipped      []SkippedDTO `json:"skipped"`
}

type BoardResponse struct {
	forecast.Board
	SkippedCount int          `json:"skipped_count"`
	Skipped      []SkippedDTO `json:"skipped"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Members     int    `json:"members"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
