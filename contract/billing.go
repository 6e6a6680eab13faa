/*
billing.go - Billing policy resolution

PURPOSE:
  Decides whether, when and for how much each block is billed. Billing is
  resolved once per computation from the contract-level policy and the
  per-block payment types.

RESOLUTION ORDER:
  1. BillingCycleType empty       -> no billing (service-only preview)
  2. PaymentMode emi              -> contract-level installments only,
                                     under unified AND mixed billing
  3. unified + prepaid            -> one lump per block at start
     unified + defined            -> one charge per block cycle, in advance
  4. mixed, block prepaid         -> one lump at start
     mixed, block postpaid        -> one charge per block cycle, in arrears

AMOUNTS:
  Per-occurrence amount = price x quantity (price alone if unlimited).
  A lump charge bills every occurrence of the block's cycle at once, so the
  billing events of a block always add up to the block's contract value.

IN ARREARS:
  A postpaid charge is dated on the last day of its cycle period, clamped
  to the contract end. It is never earlier than the service occurrence it
  pays for; one-time postpaid blocks bill on the start date.
*/
package contract

import (
	"github.com/shopspring/decimal"
	"github.com/warp/contract-engine/calendar"
)

type billingTiming int

const (
	billUpfront billingTiming = iota
	billInAdvance
	billInArrears
)

func billingEvents(cfg Configuration, span calendar.Span) []ContractEvent {
	switch cfg.BillingCycleType {
	case BillingUnified, BillingMixed:
	default:
		return nil
	}

	if cfg.PaymentMode == PaymentEMI {
		return installmentEvents(cfg, span)
	}

	var events []ContractEvent
	for _, b := range cfg.Blocks {
		events = append(events, blockBillingEvents(cfg, b, span, timingFor(cfg, b))...)
	}
	return events
}

func timingFor(cfg Configuration, b Block) billingTiming {
	if cfg.BillingCycleType == BillingMixed {
		if cfg.PaymentTypeFor(b.ID) == BlockPostpaid {
			return billInArrears
		}
		return billUpfront
	}
	if cfg.PaymentMode == PaymentDefined {
		return billInAdvance
	}
	return billUpfront
}

func blockBillingEvents(cfg Configuration, b Block, span calendar.Span, timing billingTiming) []ContractEvent {
	dates := occurrences(b.Cycle, span)
	perOccurrence := b.OccurrenceAmount()

	if timing == billUpfront {
		label := LabelPrepaid
		if !b.Cycle.IsRecurring() {
			label = b.Cycle.Label()
		}
		total := blockValue(b, span)
		return []ContractEvent{
			billingEvent(cfg, b, 1, 1, span.Start, total, label),
		}
	}

	events := make([]ContractEvent, 0, len(dates))
	for k, d := range dates {
		at := d
		if timing == billInArrears {
			at = cycleEnd(b.Cycle, span, k)
		}
		events = append(events, billingEvent(cfg, b, k+1, len(dates), at, perOccurrence, b.Cycle.Label()))
	}
	return events
}

// blockValue is the block's contract value: every billing occurrence of
// its cycle inside span.
func blockValue(b Block, span calendar.Span) decimal.Decimal {
	n := len(occurrences(b.Cycle, span))
	return b.OccurrenceAmount().Mul(decimal.NewFromInt(int64(n)))
}

// BlockValue returns the contract value of b under cfg's duration. When the
// duration is unusable a single occurrence is assumed.
func (c Configuration) BlockValue(b Block) decimal.Decimal {
	span, ok := c.Span()
	if !ok {
		return b.OccurrenceAmount()
	}
	return blockValue(b, span)
}

// BlocksTotal sums BlockValue over every selected block.
func (c Configuration) BlocksTotal() decimal.Decimal {
	total := decimal.Zero
	for _, b := range c.Blocks {
		total = total.Add(c.BlockValue(b))
	}
	return total
}

func billingEvent(cfg Configuration, b Block, seq, total int, at calendar.Date, amount decimal.Decimal, label string) ContractEvent {
	return ContractEvent{
		ID:                blockEventID(b.ID, EventBilling, seq),
		Type:              EventBilling,
		BlockID:           b.ID,
		BlockName:         b.Name,
		ScheduledDate:     at,
		ComputedDate:      at,
		SequenceNumber:    seq,
		TotalOccurrences:  total,
		Amount:            decimalPtr(amount),
		Currency:          cfg.Currency,
		BillingCycleLabel: label,
	}
}

// installmentEvents splits the grand total into monthly installments from
// the start date. The installment count is independent of the contract
// span, so the installments always sum to the grand total.
func installmentEvents(cfg Configuration, span calendar.Span) []ContractEvent {
	n := cfg.EMIMonths
	if n < 1 {
		n = 1
	}
	amounts := SplitInstallments(cfg.GrandTotal, n, cfg.Currency)

	events := make([]ContractEvent, 0, n)
	for i, amount := range amounts {
		at := span.Start.AddMonths(i)
		events = append(events, ContractEvent{
			ID:                installmentEventID(i + 1),
			Type:              EventBilling,
			BlockName:         ContractInstallmentName,
			ScheduledDate:     at,
			ComputedDate:      at,
			SequenceNumber:    i + 1,
			TotalOccurrences:  n,
			Amount:            decimalPtr(amount),
			Currency:          cfg.Currency,
			BillingCycleLabel: LabelEMIInstallment,
		})
	}
	return events
}
