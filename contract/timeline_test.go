package contract_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/contract-engine/calendar"
	"github.com/warp/contract-engine/contract"
)

// =============================================================================
// OVERRIDE TESTS
// =============================================================================

func TestApplyOverrides_MovesEventAndResorts(t *testing.T) {
	// GIVEN: A 3-month monthly timeline
	cfg := config(3, block("care", "500", contract.CycleMonthly))
	cfg.PaymentMode = contract.PaymentDefined
	base := contract.ComputeEvents(cfg)
	first := base[0]

	// WHEN: The first delivery is moved past the second one
	overrides := contract.Overrides{}
	overrides.Set(first.ID, date(2025, time.February, 15))
	moved := contract.ApplyOverrides(base, overrides)

	// THEN: Only the date changes, and ordering still holds
	require.Len(t, moved, len(base))
	assertOrdered(t, moved)

	var found contract.ContractEvent
	for _, e := range moved {
		if e.ID == first.ID {
			found = e
		}
	}
	assert.Equal(t, date(2025, time.February, 15), found.ScheduledDate)
	assert.Equal(t, first.ComputedDate, found.ComputedDate)
	assert.True(t, found.Overridden)
	assert.Equal(t, first.SequenceNumber, found.SequenceNumber)
	assert.Equal(t, first.TotalOccurrences, found.TotalOccurrences)
	assert.Equal(t, first.Amount, found.Amount)

	// Base output untouched
	assert.Equal(t, jan1(), base[0].ScheduledDate)
	assert.False(t, base[0].Overridden)
}

func TestApplyOverrides_ResetRestoresComputation(t *testing.T) {
	base := contract.ComputeEvents(richConfig())
	target := base[3]

	overrides := contract.Overrides{}
	overrides.Set(target.ID, date(2025, time.December, 31))
	moved := contract.ApplyOverrides(base, overrides)
	assert.NotEqual(t, base, moved)

	overrides.Reset(target.ID)
	assert.Equal(t, base, contract.ApplyOverrides(base, overrides))

	// Re-applying to an already overridden list also restores the base.
	assert.Equal(t, base, contract.ApplyOverrides(moved, overrides))
}

func TestApplyOverrides_IgnoresInvalidAndUnknown(t *testing.T) {
	base := contract.ComputeEvents(config(1, block("setup", "1000", contract.CycleOneTime)))

	overrides := contract.Overrides{
		base[0].ID:     {},
		"not-an-event": date(2030, time.January, 1),
	}
	assert.Equal(t, base, contract.ApplyOverrides(base, overrides))

	// Set ignores zero dates entirely
	o := contract.Overrides{}
	o.Set(base[0].ID, calendar.Date{})
	assert.Empty(t, o)
}

func TestApplyOverrides_SameDateIsNotOverridden(t *testing.T) {
	base := contract.ComputeEvents(config(1, block("setup", "1000", contract.CycleOneTime)))
	out := contract.ApplyOverrides(base, contract.Overrides{base[0].ID: base[0].ComputedDate})
	assert.False(t, out[0].Overridden)
}

func TestParseOverrides_DropsUnparseable(t *testing.T) {
	parsed, skipped := contract.ParseOverrides(map[string]string{
		"a": "2025-03-01",
		"b": "not a date",
		"c": "2025-02-30",
		"d": "",
	})
	assert.Equal(t, contract.Overrides{"a": date(2025, time.March, 1)}, parsed)
	assert.Equal(t, []string{"b", "c", "d"}, skipped)
}

// =============================================================================
// SUMMARY TESTS
// =============================================================================

func TestSummarize_Empty(t *testing.T) {
	s := contract.Summarize(nil)
	assert.Zero(t, s.TotalEvents)
	assert.Zero(t, s.ServiceEvents)
	assert.Zero(t, s.BillingEvents)
	assert.Zero(t, s.SpanDays)
	assert.True(t, s.TotalBillingAmount.IsZero())
	assert.True(t, s.FirstDate.IsZero())
	assert.Empty(t, s.Currencies())
}

func TestSummarize_CountsAndSpan(t *testing.T) {
	// GIVEN: Scenario D (4 deliveries, 4 postpaid invoices, Jan 1 - Dec 31)
	cfg := config(12, block("audit", "900", contract.CycleQuarterly))
	cfg.BillingCycleType = contract.BillingMixed
	cfg.PerBlockPaymentType = map[string]contract.BlockPaymentType{"audit": contract.BlockPostpaid}

	s := contract.Summarize(contract.ComputeEvents(cfg))

	assert.Equal(t, 8, s.TotalEvents)
	assert.Equal(t, 4, s.ServiceEvents)
	assert.Equal(t, 4, s.BillingEvents)
	assert.True(t, money("3600").Equal(s.TotalBillingAmount))
	assert.True(t, money("3600").Equal(s.TotalsByCurrency["USD"]))
	assert.Equal(t, []string{"USD"}, s.Currencies())
	assert.Equal(t, jan1(), s.FirstDate)
	assert.Equal(t, date(2025, time.December, 31), s.LastDate)
	assert.Equal(t, 365, s.SpanDays)
}

func TestSummarize_SingleDayIsOneDaySpan(t *testing.T) {
	s := contract.Summarize(contract.ComputeEvents(config(1, block("setup", "1000", contract.CycleOneTime))))
	assert.Equal(t, 1, s.SpanDays)
	assert.Equal(t, 2, s.TotalEvents)
}

func TestSummarize_UsesOverriddenDates(t *testing.T) {
	base := contract.ComputeEvents(config(1, block("setup", "1000", contract.CycleOneTime)))
	moved := contract.ApplyOverrides(base, contract.Overrides{base[1].ID: date(2025, time.January, 10)})
	assert.Equal(t, 10, contract.Summarize(moved).SpanDays)
}

// =============================================================================
// DATE GROUP TESTS
// =============================================================================

func TestScenarioE_GroupSharedDate(t *testing.T) {
	// GIVEN: A service and a billing event on the same date
	events := contract.ComputeEvents(config(1, block("setup", "1000", contract.CycleOneTime)))
	require.Len(t, events, 2)

	// WHEN: Grouping by date
	groups := contract.GroupByDate(events)

	// THEN: One group with both events in engine order
	require.Len(t, groups, 1)
	assert.Equal(t, jan1(), groups[0].Date)
	assert.Equal(t, events, groups[0].Events)
	assert.Len(t, groups[0].Services(), 1)
	assert.Len(t, groups[0].Billings(), 1)
}

func TestGroupByDate_PreservesOrderAcrossGroups(t *testing.T) {
	events := contract.ComputeEvents(richConfig())
	groups := contract.GroupByDate(events)

	var flattened []contract.ContractEvent
	for i, g := range groups {
		if i > 0 {
			assert.True(t, groups[i-1].Date.Before(g.Date))
		}
		for _, e := range g.Events {
			assert.Equal(t, g.Date, e.ScheduledDate)
		}
		flattened = append(flattened, g.Events...)
	}
	assert.Equal(t, events, flattened)
	assert.Equal(t, groups, contract.GroupByDate(events))
}

func TestGroupByDate_Empty(t *testing.T) {
	groups := contract.GroupByDate(nil)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

// =============================================================================
// MONEY TESTS
// =============================================================================

func TestSplitInstallments(t *testing.T) {
	parts := contract.SplitInstallments(money("100"), 3, "USD")
	require.Len(t, parts, 3)
	assert.Equal(t, "33.33", parts[0].StringFixed(2))
	assert.Equal(t, "33.34", parts[2].StringFixed(2))

	parts = contract.SplitInstallments(money("2"), 3, "USD")
	assert.Equal(t, "0.67", parts[0].StringFixed(2))
	assert.Equal(t, "0.66", parts[2].StringFixed(2))

	parts = contract.SplitInstallments(money("10"), 0, "USD")
	require.Len(t, parts, 1)
	assert.True(t, money("10").Equal(parts[0]))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int32(2), contract.MinorUnits("usd"))
	assert.Equal(t, int32(0), contract.MinorUnits("JPY"))
	assert.Equal(t, int32(3), contract.MinorUnits("KWD"))
	assert.Equal(t, int32(2), contract.MinorUnits(""))
}
