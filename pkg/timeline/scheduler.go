package timeline

import (
	"sort"

	"github.com/tokenflow/tokenflow/internal/model"
	"github.com/tokenflow/tokenflow/pkg/config"
	"github.com/tokenflow/tokenflow/pkg/graph"
)

// Exclusions counts rows dropped while building the schedule. Exclusion is
// local and non-fatal: it shrinks the output but never aborts.
type Exclusions struct {
	// MissingCaseBounds counts rows whose case survived no bounds extraction.
	MissingCaseBounds int `json:"missing_case_bounds"`

	// UnmappedEdges counts rows whose activity transition has no edge in the
	// rendered graph.
	UnmappedEdges int `json:"unmapped_edges"`

	// MissingTimestamps counts rows lacking the end or next-start timestamp.
	MissingTimestamps int `json:"missing_timestamps"`

	// ParallelOverlaps counts rows where the next activity instance started
	// before the current one ended. A single moving token cannot represent
	// concurrent execution, so these rows are removed from the schedule.
	ParallelOverlaps int `json:"parallel_overlaps"`
}

// Total returns the number of excluded rows.
func (e Exclusions) Total() int {
	return e.MissingCaseBounds + e.UnmappedEdges + e.MissingTimestamps + e.ParallelOverlaps
}

func (e *Exclusions) add(other Exclusions) {
	e.MissingCaseBounds += other.MissingCaseBounds
	e.UnmappedEdges += other.UnmappedEdges
	e.MissingTimestamps += other.MissingTimestamps
	e.ParallelOverlaps += other.ParallelOverlaps
}

// Scheduler builds the ordered, gap-free, positive-duration per-case token
// schedule. It holds only immutable inputs, so a single Scheduler may be
// shared across concurrently scheduled cases.
type Scheduler struct {
	Mode   string
	Factor float64
	Edges  *graph.EdgeSet

	// LogStart is the shared origin used in absolute mode.
	LogStart model.NullTime
}

// Schedule builds the full segment table, case by case, in the order the
// cases appear in bounds. Rows whose case produced no bounds are counted as
// excluded. A case with zero surviving rows contributes no segments.
func (s *Scheduler) Schedule(rows []model.PrecedenceEdge, cases []model.CaseBounds) ([]model.TokenSegment, Exclusions) {
	byCase := make(map[string][]model.PrecedenceEdge, len(cases))
	for i := range rows {
		byCase[rows[i].CaseID] = append(byCase[rows[i].CaseID], rows[i])
	}

	var excl Exclusions
	known := make(map[string]bool, len(cases))
	var segments []model.TokenSegment

	for i := range cases {
		known[cases[i].CaseID] = true
		segs, e := s.ScheduleCase(cases[i], byCase[cases[i].CaseID])
		segments = append(segments, segs...)
		excl.add(e)
	}

	for id, caseRows := range byCase {
		if !known[id] {
			excl.MissingCaseBounds += len(caseRows)
		}
	}

	return segments, excl
}

// candidate is a precedence row that survived join, filter and raw timing.
type candidate struct {
	row              *model.PrecedenceEdge
	edgeID           int
	tokenStart       float64 // raw, later tie-broken then re-sequenced
	tokenDuration    float64
	activityDuration float64
}

// ScheduleCase builds the segment chain for a single case. Steps follow the
// row order given by min_order (original arrival sequence):
//
//  1. attach the graph edge id; drop unmapped transitions
//  2. compute raw timing on the animation clock
//  3. drop negative travel durations (parallel overlap)
//  4. push tied starts apart by exactly Epsilon, in arrival order
//  5. re-sequence into a contiguous chain via a running duration sum
//  6. attach the case-level animation duration to every segment
func (s *Scheduler) ScheduleCase(bounds model.CaseBounds, rows []model.PrecedenceEdge) ([]model.TokenSegment, Exclusions) {
	var excl Exclusions

	origin := bounds.Start.Seconds()
	if s.Mode == config.ModeAbsolute {
		origin = s.LogStart.Seconds()
	}

	cands := make([]candidate, 0, len(rows))
	for i := range rows {
		r := &rows[i]

		// Terminal rows (a case's last activity instance has no successor)
		// and rows with missing timestamps drop out first; they exist in the
		// precedence table only to carry bounds information.
		if !r.EndTime.Valid || !r.NextStartTime.Valid {
			excl.MissingTimestamps++
			continue
		}
		edgeID, ok := s.Edges.Lookup(r.FromActivity, r.ToActivity)
		if !ok {
			excl.UnmappedEdges++
			continue
		}

		tokenStart := (r.EndTime.Seconds() - origin) / s.Factor
		tokenDuration := (r.NextStartTime.Seconds() - r.EndTime.Seconds()) / s.Factor
		if tokenDuration < 0 {
			excl.ParallelOverlaps++
			continue
		}

		// Dwell at the destination. A missing next end means zero dwell;
		// Epsilon keeps the duration strictly positive either way.
		dwell := 0.0
		if r.NextEndTime.Valid {
			if d := (r.NextEndTime.Seconds() - r.NextStartTime.Seconds()) / s.Factor; d > 0 {
				dwell = d
			}
		}

		cands = append(cands, candidate{
			row:              r,
			edgeID:           edgeID,
			tokenStart:       tokenStart,
			tokenDuration:    tokenDuration,
			activityDuration: Epsilon + dwell,
		})
	}

	if len(cands) == 0 {
		return nil, excl
	}

	// Arrival order.
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].row.MinOrder < cands[j].row.MinOrder
	})

	breakTies(cands)

	// Running sum of durations from the minimum raw start. Each segment's
	// start is the previous segment's end, so the chain is contiguous and
	// strictly increasing: every increment is at least Epsilon.
	minStart := cands[0].tokenStart
	for _, c := range cands[1:] {
		if c.tokenStart < minStart {
			minStart = c.tokenStart
		}
	}

	segments := make([]model.TokenSegment, 0, len(cands))
	cum := 0.0
	start := minStart
	end := minStart
	for _, c := range cands {
		cum += c.tokenDuration + c.activityDuration
		end = minStart + cum + Epsilon

		segments = append(segments, model.TokenSegment{
			CaseID:           bounds.CaseID,
			EdgeID:           c.edgeID,
			FromActivity:     c.row.FromActivity,
			ToActivity:       c.row.ToActivity,
			TokenStart:       start,
			TokenDuration:    c.tokenDuration,
			ActivityDuration: c.activityDuration,
		})
		start = end
	}

	// Case duration is the maximum token end, which the running sum makes
	// the last one.
	for i := range segments {
		segments[i].CaseDuration = end
	}

	return segments, excl
}

// breakTies adjusts raw starts so rows landing on an identical value resolve
// in arrival order, exactly Epsilon apart. Each row is offset by the gap
// between its arrival rank and its fractional (mean) rank by start value:
// when arrival order agrees with start order, untied rows keep their start
// untouched while a group of n ties spreads symmetrically around the shared
// value.
func breakTies(cands []candidate) {
	n := len(cands)
	if n < 2 {
		return
	}

	rankByStart := make([]float64, n)
	for i := 0; i < n; i++ {
		less, equal := 0, 0
		for j := 0; j < n; j++ {
			switch {
			case cands[j].tokenStart < cands[i].tokenStart:
				less++
			case cands[j].tokenStart == cands[i].tokenStart:
				equal++
			}
		}
		// Mean of the ranks the tied group occupies.
		rankByStart[i] = float64(less) + float64(equal+1)/2
	}

	for i := 0; i < n; i++ {
		arrival := float64(i + 1)
		cands[i].tokenStart += (arrival - rankByStart[i]) * Epsilon
	}
}
