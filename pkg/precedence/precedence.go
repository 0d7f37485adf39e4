// Package precedence derives the precedence relation consumed by the
// scheduler: one row per consecutive activity-instance pair within a case.
// Two paths are provided: a pure in-memory derivation over an EventLog, and
// a DuckDB derivation over a CSV file using LEAD window functions.
package precedence

import (
	"sort"

	"github.com/tokenflow/tokenflow/internal/model"
)

// instance is one activity execution: a start/complete pair, or a single
// instantaneous event when the log carries no lifecycle information.
type instance struct {
	activity string
	start    model.NullTime
	end      model.NullTime

	// order is the global arrival index of the instance's first event.
	order int64
}

// Derive builds precedence rows from an in-memory event log. Events without
// a valid timestamp cannot be ordered and are excluded. Lifecycle "start"
// events open an activity instance that the next "complete" of the same
// activity closes; everything else is an instantaneous instance.
func Derive(log *model.EventLog) []model.PrecedenceEdge {
	type caseEvents struct {
		id     string
		events []int // indices into log.Events
	}

	var order []string
	byCase := make(map[string]*caseEvents)
	for i := range log.Events {
		e := &log.Events[i]
		if !e.Timestamp.Valid {
			continue
		}
		c, ok := byCase[e.CaseID]
		if !ok {
			c = &caseEvents{id: e.CaseID}
			byCase[e.CaseID] = c
			order = append(order, e.CaseID)
		}
		c.events = append(c.events, i)
	}

	var rows []model.PrecedenceEdge
	for _, id := range order {
		c := byCase[id]

		// Arrival index breaks timestamp ties.
		sort.SliceStable(c.events, func(a, b int) bool {
			return log.Events[c.events[a]].Timestamp.Nanos < log.Events[c.events[b]].Timestamp.Nanos
		})

		instances := pairLifecycles(log, c.events)

		sort.SliceStable(instances, func(a, b int) bool {
			return instances[a].start.Nanos < instances[b].start.Nanos
		})

		// One row per activity instance. The last instance of a case has no
		// successor; its lead fields stay missing so it still contributes to
		// case bounds but never schedules a token movement.
		for i := 0; i < len(instances); i++ {
			cur := instances[i]
			row := model.PrecedenceEdge{
				CaseID:       id,
				FromActivity: cur.activity,
				StartTime:    cur.start,
				EndTime:      cur.end,
				MinOrder:     cur.order,
			}
			if i+1 < len(instances) {
				next := instances[i+1]
				row.ToActivity = next.activity
				row.NextStartTime = next.start
				row.NextEndTime = next.end
			}
			rows = append(rows, row)
		}
	}

	return rows
}

// pairLifecycles folds a case's time-ordered events into activity instances.
func pairLifecycles(log *model.EventLog, events []int) []instance {
	var instances []instance
	open := make(map[string]int) // activity -> index into instances

	for _, idx := range events {
		e := &log.Events[idx]
		switch e.Lifecycle {
		case "start":
			instances = append(instances, instance{
				activity: e.Activity,
				start:    e.Timestamp,
				end:      e.Timestamp,
				order:    int64(idx),
			})
			open[e.Activity] = len(instances) - 1

		case "complete":
			if i, ok := open[e.Activity]; ok {
				instances[i].end = e.Timestamp
				delete(open, e.Activity)
				continue
			}
			instances = append(instances, instance{
				activity: e.Activity,
				start:    e.Timestamp,
				end:      e.Timestamp,
				order:    int64(idx),
			})

		default:
			instances = append(instances, instance{
				activity: e.Activity,
				start:    e.Timestamp,
				end:      e.Timestamp,
				order:    int64(idx),
			})
		}
	}

	return instances
}
