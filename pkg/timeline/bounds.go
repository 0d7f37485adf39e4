// Package timeline turns precedence relations into the per-case animation
// schedule: case/log bounds, the time-compression factor, and the ordered,
// gap-free token segment table.
package timeline

import (
	"github.com/tokenflow/tokenflow/internal/model"
)

// ExtractBounds computes per-case start/end/duration from precedence rows,
// ignoring missing timestamps, plus the log-wide min/max over all cases.
// Cases with no valid start or no valid end are excluded from the result and
// from every later stage. A log with zero surviving cases yields empty
// bounds, not an error.
func ExtractBounds(rows []model.PrecedenceEdge) ([]model.CaseBounds, model.LogBounds) {
	type agg struct {
		start model.NullTime
		end   model.NullTime
	}

	// First-seen case order keeps the output deterministic.
	var order []string
	byCase := make(map[string]*agg)

	for i := range rows {
		r := &rows[i]
		a, ok := byCase[r.CaseID]
		if !ok {
			a = &agg{}
			byCase[r.CaseID] = a
			order = append(order, r.CaseID)
		}
		if r.StartTime.Valid && (!a.start.Valid || r.StartTime.Nanos < a.start.Nanos) {
			a.start = r.StartTime
		}
		if r.EndTime.Valid && (!a.end.Valid || r.EndTime.Nanos > a.end.Nanos) {
			a.end = r.EndTime
		}
	}

	var cases []model.CaseBounds
	var log model.LogBounds

	for _, id := range order {
		a := byCase[id]
		if !a.start.Valid || !a.end.Valid {
			continue
		}
		cases = append(cases, model.CaseBounds{
			CaseID:   id,
			Start:    a.start,
			End:      a.end,
			Duration: a.end.Seconds() - a.start.Seconds(),
		})
		if !log.Start.Valid || a.start.Nanos < log.Start.Nanos {
			log.Start = a.start
		}
		if !log.End.Valid || a.end.Nanos > log.End.Nanos {
			log.End = a.end
		}
	}

	if log.Start.Valid && log.End.Valid {
		log.Duration = log.End.Seconds() - log.Start.Seconds()
	}

	return cases, log
}
