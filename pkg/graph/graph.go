// Package graph holds the process-graph edge set consumed by the scheduler.
// Each edge is keyed by its (from activity, to activity) pair and carries a
// stable numeric identifier the rendering layer uses to address SVG paths.
package graph

import (
	"sort"

	"github.com/tokenflow/tokenflow/internal/model"
)

// Edge is a single directed process-graph edge.
type Edge struct {
	ID   int    `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

type pair struct {
	from, to string
}

// EdgeSet maps (from activity, to activity) pairs to edge identifiers.
type EdgeSet struct {
	edges []Edge
	byKey map[pair]int
}

// NewEdgeSet creates an empty edge set.
func NewEdgeSet() *EdgeSet {
	return &EdgeSet{byKey: make(map[pair]int)}
}

// Add inserts an edge and returns its identifier. Adding an existing
// (from, to) pair returns the identifier assigned on first insertion.
func (s *EdgeSet) Add(from, to string) int {
	key := pair{from, to}
	if id, ok := s.byKey[key]; ok {
		return id
	}
	id := len(s.edges) + 1
	s.edges = append(s.edges, Edge{ID: id, From: from, To: to})
	s.byKey[key] = id
	return id
}

// Lookup returns the edge identifier for an activity pair. Transitions not
// present in the rendered graph report ok=false and are never animated.
func (s *EdgeSet) Lookup(from, to string) (id int, ok bool) {
	id, ok = s.byKey[pair{from, to}]
	return id, ok
}

// Len returns the number of edges.
func (s *EdgeSet) Len() int {
	return len(s.edges)
}

// Edges returns all edges ordered by identifier.
func (s *EdgeSet) Edges() []Edge {
	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FromPrecedence derives the directly-follows edge set from precedence rows,
// for callers that do not supply an externally laid-out graph. Terminal rows
// (no successor activity) contribute no edge. Identifiers are assigned in
// first-seen row order, so the derivation is deterministic for a given input
// table.
func FromPrecedence(rows []model.PrecedenceEdge) *EdgeSet {
	s := NewEdgeSet()
	for i := range rows {
		if rows[i].ToActivity == "" {
			continue
		}
		s.Add(rows[i].FromActivity, rows[i].ToActivity)
	}
	return s
}
