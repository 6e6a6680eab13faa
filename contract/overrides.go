package contract

import (
	"sort"

	"github.com/warp/contract-engine/calendar"
)

// =============================================================================
// OVERRIDES - User-chosen replacement dates, keyed by event id
// =============================================================================

// Overrides maps event ids to replacement dates. The map is owned by the
// caller; the engine only ever reads it.
type Overrides map[string]calendar.Date

// Set records a replacement date. Zero dates are ignored.
func (o Overrides) Set(eventID string, d calendar.Date) {
	if d.IsZero() {
		return
	}
	o[eventID] = d
}

// Reset removes the replacement date, restoring the computed date.
func (o Overrides) Reset(eventID string) { delete(o, eventID) }

// Clone returns an independent copy.
func (o Overrides) Clone() Overrides {
	out := make(Overrides, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// ParseOverrides converts raw "YYYY-MM-DD" values. Entries that do not
// parse are dropped and their ids returned in sorted order.
func ParseOverrides(raw map[string]string) (Overrides, []string) {
	out := make(Overrides, len(raw))
	var skipped []string
	for id, s := range raw {
		d, err := calendar.ParseDate(s)
		if err != nil || d.IsZero() {
			skipped = append(skipped, id)
			continue
		}
		out[id] = d
	}
	sort.Strings(skipped)
	return out, skipped
}

// ApplyOverrides returns a new, re-sorted event list in which every event
// with a valid override is moved to its replacement date. The input slice
// is not modified, and amounts, sequence numbers and totals are never
// touched. ComputedDate always holds the engine's date, so dropping an
// override and re-applying restores the original timeline exactly.
func ApplyOverrides(events []ContractEvent, overrides Overrides) []ContractEvent {
	out := make([]ContractEvent, len(events))
	copy(out, events)

	for i := range out {
		e := &out[i]
		if e.ComputedDate.IsZero() {
			e.ComputedDate = e.ScheduledDate
		}
		e.ScheduledDate = e.ComputedDate
		e.Overridden = false

		if d, ok := overrides[e.ID]; ok && !d.IsZero() {
			e.ScheduledDate = d
			e.Overridden = !d.Equal(e.ComputedDate)
		}
	}

	SortEvents(out)
	return out
}
