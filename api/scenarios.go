/*
scenarios.go - Demo contract definitions for testing and demonstrations

PURPOSE:
  Provides pre-built contracts that exercise each billing policy of the
  engine. Scenarios are read-only: they are computed on request and never
  written to the draft store.

AVAILABLE SCENARIOS:
  one-time-prepaid:  One-time block billed upfront (service + billing on day 1)
  monthly-service:   Monthly delivery over three months
  emi-installments:  Grand total split into six monthly installments
  quarterly-postpaid: Mixed billing, quarterly block invoiced in arrears
  shared-date:       Setup and first delivery on the same day
  full-stack:        Every block shape under mixed billing

USAGE VIA API:
  GET /api/scenarios
  GET /api/scenarios/quarterly-postpaid/timeline

ADDING NEW SCENARIOS:
  Append to the 'scenarios' slice; the config is a plain ContractJSON.

SEE ALSO:
  - handlers.go: Timeline rendering shared with drafts
  - factory/contract.go: Contract JSON definitions
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/contract-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

const scenarioStart = "2025-01-01"

var scenarios = []ScenarioDTO{
	{
		ID:          "one-time-prepaid",
		Name:        "One-Time Prepaid",
		Description: "Single one-time block under unified prepaid billing",
		Config: factory.ContractJSON{
			StartDate:        scenarioStart,
			DurationValue:    1,
			DurationUnit:     "months",
			PaymentMode:      "prepaid",
			BillingCycleType: strPtr("unified"),
			Currency:         "USD",
			SelectedBlocks: []factory.BlockJSON{
				{ID: "onboarding", Name: "Onboarding Workshop", Price: decimal.NewFromInt(1000), Quantity: 1, Cycle: "one_time", CategoryID: "service"},
			},
		},
	},
	{
		ID:          "monthly-service",
		Name:        "Monthly Service",
		Description: "Monthly delivery block over a three-month contract",
		Config: factory.ContractJSON{
			StartDate:        scenarioStart,
			DurationValue:    3,
			DurationUnit:     "months",
			PaymentMode:      "defined",
			BillingCycleType: strPtr("unified"),
			Currency:         "USD",
			SelectedBlocks: []factory.BlockJSON{
				{ID: "care", Name: "Managed Care", Price: decimal.NewFromInt(500), Quantity: 1, Cycle: "monthly", CategoryID: "service"},
			},
		},
	},
	{
		ID:          "emi-installments",
		Name:        "EMI Installments",
		Description: "Grand total of 6000 paid in six equal monthly installments",
		Config: factory.ContractJSON{
			StartDate:        scenarioStart,
			DurationValue:    6,
			DurationUnit:     "months",
			PaymentMode:      "emi",
			EMIMonths:        6,
			BillingCycleType: strPtr("unified"),
			GrandTotal:       decimalPtr(decimal.NewFromInt(6000)),
			Currency:         "USD",
			SelectedBlocks: []factory.BlockJSON{
				{ID: "care", Name: "Managed Care", Price: decimal.NewFromInt(1000), Quantity: 1, Cycle: "monthly", CategoryID: "service"},
			},
		},
	},
	{
		ID:          "quarterly-postpaid",
		Name:        "Quarterly Postpaid",
		Description: "Mixed billing with a quarterly block invoiced at the end of each quarter",
		Config: factory.ContractJSON{
			StartDate:           scenarioStart,
			DurationValue:       1,
			DurationUnit:        "years",
			PaymentMode:         "prepaid",
			BillingCycleType:    strPtr("mixed"),
			PerBlockPaymentType: map[string]string{"audit": "postpaid"},
			Currency:            "USD",
			SelectedBlocks: []factory.BlockJSON{
				{ID: "audit", Name: "Quarterly Audit", Price: decimal.NewFromInt(900), Quantity: 1, Cycle: "quarterly", CategoryID: "service"},
			},
		},
	},
	{
		ID:          "shared-date",
		Name:        "Shared Date",
		Description: "Setup fee and first monthly delivery land on the same day",
		Config: factory.ContractJSON{
			StartDate:        scenarioStart,
			DurationValue:    2,
			DurationUnit:     "months",
			PaymentMode:      "prepaid",
			BillingCycleType: strPtr("unified"),
			Currency:         "USD",
			SelectedBlocks: []factory.BlockJSON{
				{ID: "setup", Name: "Setup", Price: decimal.NewFromInt(250), Quantity: 1, Cycle: "one_time", CategoryID: "service"},
				{ID: "care", Name: "Managed Care", Price: decimal.NewFromInt(500), Quantity: 1, Cycle: "monthly", CategoryID: "service"},
			},
		},
	},
	{
		ID:          "full-stack",
		Name:        "Full Stack",
		Description: "One-time, monthly, quarterly, unlimited and billing-only blocks under mixed billing",
		Config: factory.ContractJSON{
			StartDate:     scenarioStart,
			DurationValue: 12,
			DurationUnit:  "months",
			PaymentMode:   "prepaid",
			PerBlockPaymentType: map[string]string{
				"support": "postpaid",
				"review":  "postpaid",
			},
			BillingCycleType: strPtr("mixed"),
			Currency:         "USD",
			SelectedBlocks: []factory.BlockJSON{
				{ID: "onboarding", Name: "Onboarding", Price: decimal.NewFromInt(1000), Quantity: 1, Cycle: "one_time", CategoryID: "service"},
				{ID: "support", Name: "Support Hours", Price: decimal.NewFromInt(250), Quantity: 2, Cycle: "monthly", CategoryID: "service"},
				{ID: "review", Name: "Quarterly Review", Price: decimal.NewFromInt(900), Quantity: 1, Cycle: "quarterly", CategoryID: "service"},
				{ID: "hosting", Name: "Hosting", Price: decimal.NewFromInt(120), Unlimited: true, Cycle: "monthly", CategoryID: "service"},
				{ID: "license", Name: "Platform License", Price: decimal.NewFromInt(5000), Quantity: 1, Cycle: "annually", CategoryID: "billing"},
			},
		},
	},
}

func findScenario(id string) (ScenarioDTO, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return ScenarioDTO{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetScenarioTimeline computes the timeline of one scenario.
func (h *Handler) GetScenarioTimeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := findScenario(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	cfg, err := h.Factory.FromJSON(s.Config)
	if err != nil {
		h.writeDomainError(w, "Invalid scenario", err)
		return
	}

	events := h.compute("scenario", cfg, nil)
	writeJSON(w, http.StatusOK, toTimelineResponse(events, nil))
}

func strPtr(s string) *string {
	return &s
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
