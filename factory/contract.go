/*
Package factory provides JSON to Go contract conversion.

PURPOSE:
  Converts the contract definitions posted by the configuration wizard
  into contract.Configuration values. The wizard sends loosely-typed data
  (nullable billing cycle, free-form per-block payment types), so the
  factory normalises it once and the engine only ever sees clean enums.

JSON SCHEMA:
  {
    "start_date": "2025-01-01",
    "duration_value": 12,
    "duration_unit": "months",
    "payment_mode": "emi",
    "emi_months": 6,
    "billing_cycle_type": "mixed",
    "per_block_payment_type": {"audit": "postpaid"},
    "grand_total": "6000",
    "currency": "USD",
    "selected_blocks": [
      {
        "id": "audit",
        "name": "Quarterly Audit",
        "price": 900,
        "quantity": 1,
        "cycle": "quarterly",
        "category_id": "service"
      }
    ]
  }

NORMALISATION:
  - Cycle aliases: "one-time", "onetime", "yearly", "annual"
  - Unknown payment mode or per-block payment type -> prepaid
  - billing_cycle_type null, "" or "none" -> no billing events
  - quantity < 1 -> 1, missing block name -> block id
  - grand_total absent -> sum of block values

HARD ERRORS (wrapping contract.ErrInvalidConfiguration):
  - Unparseable JSON or start_date
  - Empty or duplicate block ids, negative prices
  - Durations longer than MaxDurationYears
  - EMI schedules longer than MaxDurationYears in months

USAGE:
  f := factory.NewContractFactory()
  cfg, err := f.ParseContract(jsonString)
  events := contract.ComputeEvents(cfg)

SEE ALSO:
  - contract/types.go: Configuration definition
  - api/scenarios.go: Example contract definitions
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/contract-engine/calendar"
	"github.com/warp/contract-engine/contract"
)

// MaxDurationYears bounds contract length so a timeline stays renderable.
const MaxDurationYears = 100

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ContractJSON is the JSON representation of a contract configuration.
type ContractJSON struct {
	StartDate           string            `json:"start_date"`
	DurationValue       int               `json:"duration_value"`
	DurationUnit        string            `json:"duration_unit"`
	SelectedBlocks      []BlockJSON       `json:"selected_blocks"`
	PaymentMode         string            `json:"payment_mode"`
	EMIMonths           int               `json:"emi_months,omitempty"`
	PerBlockPaymentType map[string]string `json:"per_block_payment_type,omitempty"`
	BillingCycleType    *string           `json:"billing_cycle_type"`
	GrandTotal          *decimal.Decimal  `json:"grand_total,omitempty"`
	Currency            string            `json:"currency,omitempty"`
}

// BlockJSON represents one selected block.
type BlockJSON struct {
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity,omitempty"`
	Unlimited    bool            `json:"unlimited,omitempty"`
	Cycle        string          `json:"cycle"`
	ServiceCycle string          `json:"service_cycle,omitempty"`
	CategoryID   string          `json:"category_id,omitempty"`
}

// =============================================================================
// CONTRACT FACTORY
// =============================================================================

// ContractFactory converts JSON contracts to contract.Configuration.
type ContractFactory struct {
	// DefaultCurrency applies when a definition omits its currency.
	DefaultCurrency string
}

// NewContractFactory creates a factory defaulting to USD.
func NewContractFactory() *ContractFactory {
	return &ContractFactory{DefaultCurrency: "USD"}
}

// ParseContract parses a JSON string into a Configuration.
func (f *ContractFactory) ParseContract(jsonStr string) (contract.Configuration, error) {
	var cj ContractJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return contract.Configuration{}, fmt.Errorf("failed to parse contract JSON: %w: %v", contract.ErrInvalidConfiguration, err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts ContractJSON to a Configuration.
func (f *ContractFactory) FromJSON(cj ContractJSON) (contract.Configuration, error) {
	if strings.TrimSpace(cj.StartDate) == "" {
		return contract.Configuration{}, &contract.FieldError{Field: "start_date", Message: "is required"}
	}
	start, err := calendar.ParseDate(strings.TrimSpace(cj.StartDate))
	if err != nil {
		return contract.Configuration{}, &contract.FieldError{Field: "start_date", Message: err.Error()}
	}

	unit := parseDurationUnit(cj.DurationUnit)
	if exceedsMaxDuration(cj.DurationValue, unit) {
		return contract.Configuration{}, &contract.FieldError{
			Field:   "duration_value",
			Message: fmt.Sprintf("exceeds %d years", MaxDurationYears),
		}
	}

	if cj.EMIMonths > MaxDurationYears*12 {
		return contract.Configuration{}, &contract.FieldError{
			Field:   "emi_months",
			Message: fmt.Sprintf("exceeds %d installments", MaxDurationYears*12),
		}
	}

	cfg := contract.Configuration{
		StartDate:           start,
		DurationValue:       cj.DurationValue,
		DurationUnit:        unit,
		PaymentMode:         parsePaymentMode(cj.PaymentMode),
		EMIMonths:           cj.EMIMonths,
		PerBlockPaymentType: make(map[string]contract.BlockPaymentType, len(cj.PerBlockPaymentType)),
		BillingCycleType:    parseBillingCycleType(cj.BillingCycleType),
		Currency:            f.currency(cj.Currency),
	}

	seen := make(map[string]bool, len(cj.SelectedBlocks))
	for i, bj := range cj.SelectedBlocks {
		b, err := parseBlock(bj)
		if err != nil {
			field := fmt.Sprintf("selected_blocks[%d]", i)
			return contract.Configuration{}, &contract.FieldError{Field: field, Message: err.Error()}
		}
		if seen[b.ID] {
			field := fmt.Sprintf("selected_blocks[%d].id", i)
			return contract.Configuration{}, &contract.FieldError{Field: field, Message: fmt.Sprintf("duplicate block id %q", b.ID)}
		}
		seen[b.ID] = true
		cfg.Blocks = append(cfg.Blocks, b)
	}

	for id, raw := range cj.PerBlockPaymentType {
		cfg.PerBlockPaymentType[id] = parseBlockPaymentType(raw)
	}

	if cfg.PaymentMode == contract.PaymentEMI && cfg.EMIMonths < 1 {
		cfg.EMIMonths = 1
	}

	if cj.GrandTotal != nil {
		cfg.GrandTotal = *cj.GrandTotal
	} else {
		cfg.GrandTotal = cfg.BlocksTotal()
	}

	return cfg, nil
}

// ToJSON converts a Configuration back to its JSON representation.
func (f *ContractFactory) ToJSON(cfg contract.Configuration) ContractJSON {
	gt := cfg.GrandTotal
	cj := ContractJSON{
		StartDate:     cfg.StartDate.String(),
		DurationValue: cfg.DurationValue,
		DurationUnit:  string(cfg.DurationUnit),
		PaymentMode:   string(cfg.PaymentMode),
		EMIMonths:     cfg.EMIMonths,
		GrandTotal:    &gt,
		Currency:      cfg.Currency,
	}

	if cfg.BillingCycleType != contract.BillingNone {
		bct := string(cfg.BillingCycleType)
		cj.BillingCycleType = &bct
	}

	if len(cfg.PerBlockPaymentType) > 0 {
		cj.PerBlockPaymentType = make(map[string]string, len(cfg.PerBlockPaymentType))
		for id, pt := range cfg.PerBlockPaymentType {
			cj.PerBlockPaymentType[id] = string(pt)
		}
	}

	for _, b := range cfg.Blocks {
		cj.SelectedBlocks = append(cj.SelectedBlocks, BlockJSON{
			ID:           b.ID,
			Name:         b.Name,
			Price:        b.Price,
			Quantity:     b.Quantity,
			Unlimited:    b.Unlimited,
			Cycle:        string(b.Cycle),
			ServiceCycle: string(b.ServiceCycle),
			CategoryID:   b.CategoryID,
		})
	}
	return cj
}

// Marshal renders a Configuration as the canonical JSON string stored with
// drafts and confirmed schedules.
func (f *ContractFactory) Marshal(cfg contract.Configuration) (string, error) {
	b, err := json.Marshal(f.ToJSON(cfg))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (f *ContractFactory) currency(raw string) string {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if c == "" {
		return f.DefaultCurrency
	}
	return c
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseBlock(bj BlockJSON) (contract.Block, error) {
	id := strings.TrimSpace(bj.ID)
	if id == "" {
		return contract.Block{}, fmt.Errorf("id is required")
	}
	if bj.Price.IsNegative() {
		return contract.Block{}, fmt.Errorf("price must not be negative")
	}

	b := contract.Block{
		ID:         id,
		Name:       strings.TrimSpace(bj.Name),
		Price:      bj.Price,
		Quantity:   bj.Quantity,
		Unlimited:  bj.Unlimited,
		Cycle:      parseCycle(bj.Cycle),
		CategoryID: strings.TrimSpace(bj.CategoryID),
	}
	if b.Name == "" {
		b.Name = b.ID
	}
	if b.Quantity < 1 {
		b.Quantity = 1
	}
	if strings.TrimSpace(bj.ServiceCycle) != "" {
		b.ServiceCycle = parseCycle(bj.ServiceCycle)
	}
	return b, nil
}

func normalise(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

func parseCycle(s string) contract.Cycle {
	switch normalise(s) {
	case "monthly", "month":
		return contract.CycleMonthly
	case "quarterly", "quarter":
		return contract.CycleQuarterly
	case "annually", "annual", "yearly", "year":
		return contract.CycleAnnually
	default:
		return contract.CycleOneTime
	}
}

func parseDurationUnit(s string) contract.DurationUnit {
	switch normalise(s) {
	case "day", "days":
		return contract.DurationDays
	case "month", "months":
		return contract.DurationMonths
	case "year", "years":
		return contract.DurationYears
	default:
		// Unknown units reach the engine as-is and yield an empty timeline.
		return contract.DurationUnit(normalise(s))
	}
}

func parsePaymentMode(s string) contract.PaymentMode {
	switch normalise(s) {
	case "emi":
		return contract.PaymentEMI
	case "defined":
		return contract.PaymentDefined
	default:
		return contract.PaymentPrepaid
	}
}

func parseBlockPaymentType(s string) contract.BlockPaymentType {
	if normalise(s) == "postpaid" {
		return contract.BlockPostpaid
	}
	return contract.BlockPrepaid
}

func parseBillingCycleType(s *string) contract.BillingCycleType {
	if s == nil {
		return contract.BillingNone
	}
	switch normalise(*s) {
	case "", "none", "null":
		return contract.BillingNone
	case "mixed":
		return contract.BillingMixed
	default:
		return contract.BillingUnified
	}
}

func exceedsMaxDuration(value int, unit contract.DurationUnit) bool {
	switch unit {
	case contract.DurationDays:
		return value > MaxDurationYears*366
	case contract.DurationMonths:
		return value > MaxDurationYears*12
	case contract.DurationYears:
		return value > MaxDurationYears
	default:
		return false
	}
}
