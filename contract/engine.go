package contract

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/warp/contract-engine/calendar"
)

// =============================================================================
// EVENT COMPUTATION ENGINE
// =============================================================================

// ComputeEvents returns the full, sorted timeline of service and billing
// events for cfg. It never fails: a configuration without a usable start
// date or duration yields an empty, non-nil list.
//
// Algorithm:
//  1. Derive the inclusive contract span [StartDate, EndDate]
//  2. Emit service events for every service-bearing block
//  3. Emit billing events according to the billing policy (billing.go)
//  4. Sort by date, service before billing on the same day
func ComputeEvents(cfg Configuration) []ContractEvent {
	span, ok := cfg.Span()
	if !ok {
		return []ContractEvent{}
	}

	var events []ContractEvent
	for _, b := range cfg.Blocks {
		if b.HasService() {
			events = append(events, serviceEvents(b, span, cfg.Currency)...)
		}
	}
	events = append(events, billingEvents(cfg, span)...)

	if events == nil {
		return []ContractEvent{}
	}
	SortEvents(events)
	for i := range events {
		events[i].position = i
	}
	return events
}

func serviceEvents(b Block, span calendar.Span, currency string) []ContractEvent {
	dates := occurrences(b.DeliveryCycle(), span)
	events := make([]ContractEvent, 0, len(dates))
	for i, d := range dates {
		seq := i + 1
		events = append(events, ContractEvent{
			ID:               blockEventID(b.ID, EventService, seq),
			Type:             EventService,
			BlockID:          b.ID,
			BlockName:        b.Name,
			ScheduledDate:    d,
			ComputedDate:     d,
			SequenceNumber:   seq,
			TotalOccurrences: len(dates),
			Currency:         currency,
		})
	}
	return events
}

// occurrences counts then lists the cycle boundaries inside span. Each
// boundary is anchored on span.Start so month-end clamping never drifts.
// Every cycle yields at least one occurrence, at span.Start.
func occurrences(c Cycle, span calendar.Span) []calendar.Date {
	step := c.Months()
	if step == 0 {
		return []calendar.Date{span.Start}
	}

	count := 0
	for span.Start.AddMonths(count * step).BeforeOrEqual(span.End) {
		count++
	}
	if count == 0 {
		return []calendar.Date{span.Start}
	}

	dates := make([]calendar.Date, count)
	for k := range dates {
		dates[k] = span.Start.AddMonths(k * step)
	}
	return dates
}

// cycleEnd returns the last day of the k-th (0-based) period of cycle c,
// never past the end of the contract.
func cycleEnd(c Cycle, span calendar.Span, k int) calendar.Date {
	step := c.Months()
	if step == 0 {
		return span.Start
	}
	end := span.Start.AddMonths((k + 1) * step).AddDays(-1)
	if end.After(span.End) {
		return span.End
	}
	return end
}

// =============================================================================
// ORDERING
// =============================================================================

// SortEvents orders events by date, placing service before billing on the
// same day. Remaining ties fall back to the engine's original order, then
// to the current relative order.
func SortEvents(events []ContractEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return eventLess(events[i], events[j])
	})
}

func eventLess(a, b ContractEvent) bool {
	if c := a.ScheduledDate.Compare(b.ScheduledDate); c != 0 {
		return c < 0
	}
	if a.Type != b.Type {
		return a.Type == EventService
	}
	return a.position < b.position
}

// =============================================================================
// EVENT IDENTIFIERS
// =============================================================================

// eventNamespace scopes the name-based (v5) event ids.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("warp.contract-engine.event"))

// blockEventID derives a stable id from (block id, event type, sequence).
func blockEventID(blockID string, t EventType, seq int) string {
	name := fmt.Sprintf("block\x00%s\x00%s\x00%d", blockID, t, seq)
	return uuid.NewSHA1(eventNamespace, []byte(name)).String()
}

// installmentEventID derives a stable id for a contract-level installment.
func installmentEventID(seq int) string {
	name := fmt.Sprintf("contract\x00emi\x00%d", seq)
	return uuid.NewSHA1(eventNamespace, []byte(name)).String()
}
