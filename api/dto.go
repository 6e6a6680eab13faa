/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's model from the wire format used by the configuration wizard.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts are rendered as decimal strings ("1000.00") at the currency's
  minor-unit precision. Floats never cross the API.

TYPES:
  Timeline:  EventDTO, SummaryDTO, DateGroupDTO, TimelineResponse
  Drafts:    DraftDTO, DraftRequest, OverrideRequest
  Schedules: ScheduleDTO
  Scenarios: ScenarioDTO

SEE ALSO:
  - handlers.go: Uses these types
  - factory/contract.go: ContractJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/contract-engine/contract"
	"github.com/warp/contract-engine/factory"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// TimelineRequest computes a timeline without storing anything.
type TimelineRequest struct {
	Config    factory.ContractJSON `json:"config"`
	Overrides map[string]string    `json:"overrides,omitempty"`
}

// DraftRequest creates or replaces a draft. The id comes from the server
// on create and from the path on update.
type DraftRequest struct {
	Config    factory.ContractJSON `json:"config"`
	Overrides map[string]string    `json:"overrides,omitempty"`
}

// OverrideRequest moves one event to a new date.
type OverrideRequest struct {
	Date string `json:"date"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// EventDTO represents one timeline event.
type EventDTO struct {
	ID                string  `json:"id"`
	EventType         string  `json:"event_type"`
	BlockID           string  `json:"block_id,omitempty"`
	BlockName         string  `json:"block_name"`
	ScheduledDate     string  `json:"scheduled_date"`
	ComputedDate      string  `json:"computed_date"`
	Overridden        bool    `json:"overridden"`
	SequenceNumber    int     `json:"sequence_number"`
	TotalOccurrences  int     `json:"total_occurrences"`
	Label             string  `json:"label"`
	Amount            *string `json:"amount,omitempty"`
	Currency          string  `json:"currency,omitempty"`
	BillingCycleLabel string  `json:"billing_cycle_label,omitempty"`
}

// SummaryDTO aggregates a timeline.
type SummaryDTO struct {
	TotalEvents        int               `json:"total_events"`
	ServiceEvents      int               `json:"service_events"`
	BillingEvents      int               `json:"billing_events"`
	TotalBillingAmount string            `json:"total_billing_amount"`
	TotalsByCurrency   map[string]string `json:"totals_by_currency"`
	FirstDate          string            `json:"first_date,omitempty"`
	LastDate           string            `json:"last_date,omitempty"`
	SpanDays           int               `json:"span_days"`
}

// DateGroupDTO is one date bucket of the timeline view.
type DateGroupDTO struct {
	Date     string     `json:"date"`
	Services []EventDTO `json:"services"`
	Billings []EventDTO `json:"billings"`
}

// TimelineResponse is the full timeline payload.
type TimelineResponse struct {
	Events           []EventDTO     `json:"events"`
	Summary          SummaryDTO     `json:"summary"`
	Groups           []DateGroupDTO `json:"groups"`
	SkippedOverrides []string       `json:"skipped_overrides,omitempty"`
}

// DraftDTO represents a stored draft.
type DraftDTO struct {
	ID        string               `json:"id"`
	Config    factory.ContractJSON `json:"config"`
	Overrides map[string]string    `json:"overrides"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

// DraftResponse is returned by draft writes.
type DraftResponse struct {
	Draft            DraftDTO `json:"draft"`
	SkippedOverrides []string `json:"skipped_overrides,omitempty"`
}

// ScheduleDTO represents a confirmed schedule.
type ScheduleDTO struct {
	ID          string               `json:"id"`
	DraftID     string               `json:"draft_id,omitempty"`
	Config      factory.ContractJSON `json:"config"`
	Events      []EventDTO           `json:"events"`
	Summary     SummaryDTO           `json:"summary"`
	ConfirmedAt string               `json:"confirmed_at"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Config      factory.ContractJSON `json:"config"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEventDTO(e contract.ContractEvent) EventDTO {
	dto := EventDTO{
		ID:                e.ID,
		EventType:         string(e.Type),
		BlockID:           e.BlockID,
		BlockName:         e.BlockName,
		ScheduledDate:     e.ScheduledDate.String(),
		ComputedDate:      e.ComputedDate.String(),
		Overridden:        e.Overridden,
		SequenceNumber:    e.SequenceNumber,
		TotalOccurrences:  e.TotalOccurrences,
		Label:             e.Label(),
		Currency:          e.Currency,
		BillingCycleLabel: e.BillingCycleLabel,
	}
	if e.Amount != nil {
		s := formatAmount(*e.Amount, e.Currency)
		dto.Amount = &s
	}
	return dto
}

func toEventDTOs(events []contract.ContractEvent) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = toEventDTO(e)
	}
	return dtos
}

func toSummaryDTO(s contract.Summary) SummaryDTO {
	dto := SummaryDTO{
		TotalEvents:      s.TotalEvents,
		ServiceEvents:    s.ServiceEvents,
		BillingEvents:    s.BillingEvents,
		TotalsByCurrency: make(map[string]string, len(s.TotalsByCurrency)),
		FirstDate:        s.FirstDate.String(),
		LastDate:         s.LastDate.String(),
		SpanDays:         s.SpanDays,
	}

	currencies := s.Currencies()
	for _, c := range currencies {
		dto.TotalsByCurrency[c] = formatAmount(s.TotalsByCurrency[c], c)
	}
	// A single-currency timeline renders its total at that precision.
	totalCurrency := ""
	if len(currencies) == 1 {
		totalCurrency = currencies[0]
	}
	dto.TotalBillingAmount = formatAmount(s.TotalBillingAmount, totalCurrency)
	return dto
}

func toDateGroupDTOs(groups []contract.DateGroup) []DateGroupDTO {
	dtos := make([]DateGroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = DateGroupDTO{
			Date:     g.Date.String(),
			Services: toEventDTOs(g.Services()),
			Billings: toEventDTOs(g.Billings()),
		}
	}
	return dtos
}

func toTimelineResponse(events []contract.ContractEvent, skipped []string) TimelineResponse {
	return TimelineResponse{
		Events:           toEventDTOs(events),
		Summary:          toSummaryDTO(contract.Summarize(events)),
		Groups:           toDateGroupDTOs(contract.GroupByDate(events)),
		SkippedOverrides: skipped,
	}
}

func toDraftDTO(f *factory.ContractFactory, d contract.Draft) (DraftDTO, error) {
	cfg, err := f.ParseContract(d.ConfigJSON)
	if err != nil {
		return DraftDTO{}, err
	}
	return DraftDTO{
		ID:        d.ID,
		Config:    f.ToJSON(cfg),
		Overrides: overridesToMap(d.Overrides),
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
	}, nil
}

func overridesToMap(o contract.Overrides) map[string]string {
	out := make(map[string]string, len(o))
	for id, d := range o {
		out[id] = d.String()
	}
	return out
}

// formatAmount renders money at the currency's minor-unit precision.
func formatAmount(d decimal.Decimal, currency string) string {
	return d.StringFixed(contract.MinorUnits(currency))
}
