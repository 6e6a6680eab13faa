/*
Package contract provides the contract event scheduling engine.

PURPOSE:
  Given a signed service contract's configuration (duration, selected
  blocks, payment mode, billing-cycle policy), the engine computes the
  full, deterministic timeline of future service-delivery and billing
  events. The engine is a pure function: no I/O, no clock, no global state.

KEY CONCEPTS IN THIS FILE (types.go):
  - Block: One sellable/deliverable line item (price, quantity, cycle)
  - Configuration: Immutable engine input for one computation
  - ContractEvent: One service or billing occurrence on the timeline

DATA FLOW:
  Configuration -> ComputeEvents -> []ContractEvent
                -> ApplyOverrides (caller-owned map) -> re-sorted events
                -> Summarize / GroupByDate -> presentation

DESIGN PRINCIPLES:
  1. Totality: malformed input degrades to an empty or defaulted timeline,
     the engine never returns an error
  2. Determinism: same input, same ids, same dates, same order
  3. Precision: money uses decimal.Decimal, never float64
  4. Non-destructive overrides: user date changes never alter the base
     computation

USAGE:
  events := contract.ComputeEvents(cfg)
  events = contract.ApplyOverrides(events, overrides)
  summary := contract.Summarize(events)
  groups := contract.GroupByDate(events)

SEE ALSO:
  - engine.go: Event computation
  - billing.go: Billing policy resolution
  - overrides.go: Override application
  - summary.go, group.go: Timeline utilities
*/
package contract

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/contract-engine/calendar"
)

// =============================================================================
// POLICY ENUMS
// =============================================================================

type DurationUnit string

const (
	DurationDays   DurationUnit = "days"
	DurationMonths DurationUnit = "months"
	DurationYears  DurationUnit = "years"
)

type PaymentMode string

const (
	PaymentPrepaid PaymentMode = "prepaid"
	PaymentEMI     PaymentMode = "emi"
	PaymentDefined PaymentMode = "defined"
)

// BlockPaymentType is the per-block billing timing under mixed billing.
type BlockPaymentType string

const (
	BlockPrepaid  BlockPaymentType = "prepaid"
	BlockPostpaid BlockPaymentType = "postpaid"
)

// BillingCycleType selects how billing timing is governed.
// BillingNone produces a service-only preview.
type BillingCycleType string

const (
	BillingNone    BillingCycleType = ""
	BillingUnified BillingCycleType = "unified"
	BillingMixed   BillingCycleType = "mixed"
)

type Cycle string

const (
	CycleOneTime   Cycle = "one_time"
	CycleMonthly   Cycle = "monthly"
	CycleQuarterly Cycle = "quarterly"
	CycleAnnually  Cycle = "annually"
)

// Months returns the calendar step of the cycle. One-time cycles step 0.
func (c Cycle) Months() int {
	switch c {
	case CycleMonthly:
		return 1
	case CycleQuarterly:
		return 3
	case CycleAnnually:
		return 12
	default:
		return 0
	}
}

// IsRecurring reports whether the cycle repeats within a contract.
func (c Cycle) IsRecurring() bool { return c.Months() > 0 }

// Label is the human cadence name shown on billing events.
func (c Cycle) Label() string {
	switch c {
	case CycleMonthly:
		return "Monthly"
	case CycleQuarterly:
		return "Quarterly"
	case CycleAnnually:
		return "Annually"
	default:
		return "One-time"
	}
}

type EventType string

const (
	EventService EventType = "service"
	EventBilling EventType = "billing"
)

// Billing cycle labels that are not derived from a block cycle.
const (
	LabelPrepaid        = "Prepaid"
	LabelEMIInstallment = "EMI Installment"
)

// ContractInstallmentName is the block name carried by contract-level EMI
// events, which are not attributed to any single block.
const ContractInstallmentName = "Contract Installment"

// =============================================================================
// BLOCK - One line item of a contract
// =============================================================================

// CategoryBillingOnly marks blocks without a service-delivery dimension.
const CategoryBillingOnly = "billing"

type Block struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Quantity int

	// Unlimited disregards Quantity: one flat charge of Price per occurrence.
	Unlimited bool

	Cycle Cycle

	// ServiceCycle overrides the delivery cadence. Empty means Cycle.
	ServiceCycle Cycle

	CategoryID string
}

// HasService reports whether the block produces service events.
func (b Block) HasService() bool { return b.CategoryID != CategoryBillingOnly }

// DeliveryCycle is the cadence used for service events.
func (b Block) DeliveryCycle() Cycle {
	if b.ServiceCycle != "" {
		return b.ServiceCycle
	}
	return b.Cycle
}

// OccurrenceAmount is the charge for a single occurrence of the block.
func (b Block) OccurrenceAmount() decimal.Decimal {
	if b.Unlimited {
		return b.Price
	}
	qty := b.Quantity
	if qty < 1 {
		qty = 1
	}
	return b.Price.Mul(decimal.NewFromInt(int64(qty)))
}

// =============================================================================
// CONFIGURATION - Engine input
// =============================================================================

type Configuration struct {
	StartDate     calendar.Date
	DurationValue int
	DurationUnit  DurationUnit

	Blocks []Block

	PaymentMode PaymentMode
	EMIMonths   int

	// PerBlockPaymentType is consulted only under BillingMixed.
	PerBlockPaymentType map[string]BlockPaymentType
	BillingCycleType    BillingCycleType

	GrandTotal decimal.Decimal
	Currency   string
}

// EndDate returns the last day covered by the contract, or the zero date
// when the duration is not usable.
func (c Configuration) EndDate() calendar.Date {
	if c.StartDate.IsZero() || c.DurationValue <= 0 {
		return calendar.Date{}
	}
	var end calendar.Date
	switch c.DurationUnit {
	case DurationDays:
		end = c.StartDate.AddDays(c.DurationValue)
	case DurationMonths:
		end = c.StartDate.AddMonths(c.DurationValue)
	case DurationYears:
		end = c.StartDate.AddYears(c.DurationValue)
	default:
		return calendar.Date{}
	}
	return end.AddDays(-1)
}

// Span returns the inclusive date range of the contract.
func (c Configuration) Span() (calendar.Span, bool) {
	end := c.EndDate()
	if end.IsZero() {
		return calendar.Span{}, false
	}
	return calendar.Span{Start: c.StartDate, End: end}, true
}

// PaymentTypeFor resolves a block's mixed-billing timing. Missing or
// unknown entries bill upfront.
func (c Configuration) PaymentTypeFor(blockID string) BlockPaymentType {
	if c.PerBlockPaymentType[blockID] == BlockPostpaid {
		return BlockPostpaid
	}
	return BlockPrepaid
}

// =============================================================================
// CONTRACT EVENT - Engine output
// =============================================================================

type ContractEvent struct {
	ID        string
	Type      EventType
	BlockID   string
	BlockName string

	// ScheduledDate is the effective date (override applied, if any).
	ScheduledDate calendar.Date
	// ComputedDate is always the engine's date.
	ComputedDate calendar.Date
	Overridden   bool

	SequenceNumber   int
	TotalOccurrences int

	// Amount is nil for service events.
	Amount   *decimal.Decimal
	Currency string

	BillingCycleLabel string

	// position is the index in the engine's sorted output. It breaks ties
	// when overridden events are re-sorted.
	position int
}

// IsBilling reports whether the event carries a charge.
func (e ContractEvent) IsBilling() bool { return e.Type == EventBilling }

// Label renders the "2/4" position within the series.
func (e ContractEvent) Label() string {
	return fmt.Sprintf("%d/%d", e.SequenceNumber, e.TotalOccurrences)
}
