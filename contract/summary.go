package contract

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/contract-engine/calendar"
)

// =============================================================================
// SUMMARY - Aggregate view of a timeline
// =============================================================================

type Summary struct {
	TotalEvents   int
	ServiceEvents int
	BillingEvents int

	// TotalBillingAmount sums every billing amount regardless of currency.
	// Contracts are single-currency; TotalsByCurrency exposes the split.
	TotalBillingAmount decimal.Decimal
	TotalsByCurrency   map[string]decimal.Decimal

	FirstDate calendar.Date
	LastDate  calendar.Date

	// SpanDays counts both the first and the last day. Zero when empty.
	SpanDays int
}

// Currencies returns the currencies present in the summary, sorted.
func (s Summary) Currencies() []string {
	out := make([]string, 0, len(s.TotalsByCurrency))
	for c := range s.TotalsByCurrency {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Summarize reduces events to counts and totals. The input does not need
// to be sorted.
func Summarize(events []ContractEvent) Summary {
	s := Summary{
		TotalBillingAmount: decimal.Zero,
		TotalsByCurrency:   make(map[string]decimal.Decimal),
	}

	for _, e := range events {
		s.TotalEvents++
		switch e.Type {
		case EventService:
			s.ServiceEvents++
		case EventBilling:
			s.BillingEvents++
			if e.Amount != nil {
				s.TotalBillingAmount = s.TotalBillingAmount.Add(*e.Amount)
				s.TotalsByCurrency[e.Currency] = s.TotalsByCurrency[e.Currency].Add(*e.Amount)
			}
		}

		if e.ScheduledDate.IsZero() {
			continue
		}
		if s.FirstDate.IsZero() || e.ScheduledDate.Before(s.FirstDate) {
			s.FirstDate = e.ScheduledDate
		}
		if s.LastDate.IsZero() || e.ScheduledDate.After(s.LastDate) {
			s.LastDate = e.ScheduledDate
		}
	}

	if !s.FirstDate.IsZero() {
		s.SpanDays = calendar.Span{Start: s.FirstDate, End: s.LastDate}.Days()
	}
	return s
}
