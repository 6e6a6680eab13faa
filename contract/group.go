package contract

import "github.com/warp/contract-engine/calendar"

// =============================================================================
// DATE GROUPS - Buckets for the timeline view
// =============================================================================

// DateGroup holds the events that share one calendar date.
type DateGroup struct {
	Date   calendar.Date
	Events []ContractEvent
}

// Services returns the group's service events, in order.
func (g DateGroup) Services() []ContractEvent { return g.filter(EventService) }

// Billings returns the group's billing events, in order.
func (g DateGroup) Billings() []ContractEvent { return g.filter(EventBilling) }

func (g DateGroup) filter(t EventType) []ContractEvent {
	var out []ContractEvent
	for _, e := range g.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// GroupByDate partitions events into one group per distinct date. Group
// order follows the first appearance of each date, and events keep their
// input order inside a group, so a sorted timeline stays sorted.
func GroupByDate(events []ContractEvent) []DateGroup {
	groups := []DateGroup{}
	index := make(map[calendar.Date]int)

	for _, e := range events {
		i, ok := index[e.ScheduledDate]
		if !ok {
			i = len(groups)
			index[e.ScheduledDate] = i
			groups = append(groups, DateGroup{Date: e.ScheduledDate})
		}
		groups[i].Events = append(groups[i].Events, e)
	}
	return groups
}
