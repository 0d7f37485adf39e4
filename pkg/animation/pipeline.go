// Package animation assembles the complete animation payload: the token
// segment table, the three attribute keyframe tables, and the boundary
// metadata the rendering layer needs. The whole pipeline is a pure batch
// transform of its inputs; identical inputs yield identical payloads apart
// from the generated payload ID.
package animation

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tokenflow/tokenflow/internal/model"
	"github.com/tokenflow/tokenflow/pkg/attributes"
	"github.com/tokenflow/tokenflow/pkg/config"
	"github.com/tokenflow/tokenflow/pkg/graph"
	"github.com/tokenflow/tokenflow/pkg/timeline"
)

// Inputs holds the read-only collaborator outputs the pipeline consumes.
type Inputs struct {
	// Log is required only when an attribute source references an event
	// attribute column.
	Log *model.EventLog

	// Precedence is the externally derived (or pkg/precedence-built)
	// precedence table.
	Precedence []model.PrecedenceEdge

	// Edges is the process-graph edge set. Nil derives the directly-follows
	// edge set from the precedence rows.
	Edges *graph.EdgeSet

	// Attribute value sources. Nil means the per-attribute constant default.
	Size  attributes.Source
	Color attributes.Source
	Image attributes.Source

	// Progress, when set, is called after each scheduled case. It may be
	// called from multiple goroutines.
	Progress func(done, total int)
}

// Payload is the assembled output consumed by the rendering boundary.
type Payload struct {
	ID       string  `json:"id"`
	Mode     string  `json:"mode"`
	Duration float64 `json:"duration"`
	Factor   float64 `json:"factor"`

	Segments []model.TokenSegment    `json:"segments"`
	Sizes    []model.AttributeSample `json:"sizes"`
	Colors   []model.AttributeSample `json:"colors"`
	Images   []model.AttributeSample `json:"images"`

	CaseIDs []string `json:"cases"`

	// StartActivity and EndActivity mark the graph's start and end nodes:
	// the first segment's source and the last segment's destination.
	StartActivity string `json:"start_activity"`
	EndActivity   string `json:"end_activity"`

	// Pass-through display dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Exclusions reports rows dropped on the way; informational only.
	Exclusions timeline.Exclusions `json:"exclusions"`
}

// Build runs the full pipeline. Configuration and degenerate-input errors
// abort immediately with no partial payload; data exclusions only shrink the
// output. A log whose cases all lack valid timestamps yields an empty
// payload, not an error.
func Build(ctx context.Context, cfg *config.Config, in Inputs) (*Payload, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	payload := &Payload{
		ID:       uuid.NewString(),
		Mode:     cfg.Animation.Mode,
		Duration: cfg.Animation.Duration,
		Width:    cfg.Display.Width,
		Height:   cfg.Display.Height,
	}

	cases, logBounds := timeline.ExtractBounds(in.Precedence)
	if len(cases) == 0 {
		return payload, nil
	}

	factor, err := timeline.ComputeFactor(cfg.Animation.Mode, cfg.Animation.Duration, cases, logBounds)
	if err != nil {
		return nil, err
	}
	payload.Factor = factor

	edges := in.Edges
	if edges == nil {
		edges = graph.FromPrecedence(in.Precedence)
	}

	segments, excl, err := scheduleCases(ctx, cfg, factor, edges, logBounds, cases, in.Precedence, in.Progress)
	if err != nil {
		return nil, err
	}
	payload.Segments = segments
	payload.Exclusions = excl

	builder := &attributes.Builder{
		Mode:     cfg.Animation.Mode,
		Factor:   factor,
		LogStart: logBounds.Start,
		Cases:    cases,
	}
	if payload.Sizes, err = builder.Build(attributes.AttrSize, in.Size, in.Log); err != nil {
		return nil, err
	}
	if payload.Colors, err = builder.Build(attributes.AttrColor, in.Color, in.Log); err != nil {
		return nil, err
	}
	if payload.Images, err = builder.Build(attributes.AttrImage, in.Image, in.Log); err != nil {
		return nil, err
	}

	for i := range cases {
		payload.CaseIDs = append(payload.CaseIDs, cases[i].CaseID)
	}
	if len(segments) > 0 {
		payload.StartActivity = segments[0].FromActivity
		payload.EndActivity = segments[len(segments)-1].ToActivity
	}

	return payload, nil
}

// scheduleCases fans the scheduler out per case. Steps 1-6 depend only on a
// single case's rows, never cross-case, so casewise sharding is safe; the
// per-case results are concatenated in bounds order to keep the output
// deterministic.
func scheduleCases(ctx context.Context, cfg *config.Config, factor float64, edges *graph.EdgeSet, logBounds model.LogBounds, cases []model.CaseBounds, rows []model.PrecedenceEdge, progress func(done, total int)) ([]model.TokenSegment, timeline.Exclusions, error) {
	byCase := make(map[string][]model.PrecedenceEdge, len(cases))
	for i := range rows {
		byCase[rows[i].CaseID] = append(byCase[rows[i].CaseID], rows[i])
	}

	var excl timeline.Exclusions
	known := make(map[string]bool, len(cases))
	for i := range cases {
		known[cases[i].CaseID] = true
	}
	for id, caseRows := range byCase {
		if !known[id] {
			excl.MissingCaseBounds += len(caseRows)
		}
	}

	sched := &timeline.Scheduler{
		Mode:     cfg.Animation.Mode,
		Factor:   factor,
		Edges:    edges,
		LogStart: logBounds.Start,
	}

	perCase := make([][]model.TokenSegment, len(cases))
	perExcl := make([]timeline.Exclusions, len(cases))

	var done atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range cases {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			perCase[i], perExcl[i] = sched.ScheduleCase(cases[i], byCase[cases[i].CaseID])
			if progress != nil {
				progress(int(done.Add(1)), len(cases))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, timeline.Exclusions{}, err
	}

	var segments []model.TokenSegment
	for i := range cases {
		segments = append(segments, perCase[i]...)
		excl = addExclusions(excl, perExcl[i])
	}

	return segments, excl, nil
}

func addExclusions(a, b timeline.Exclusions) timeline.Exclusions {
	a.MissingCaseBounds += b.MissingCaseBounds
	a.UnmappedEdges += b.UnmappedEdges
	a.MissingTimestamps += b.MissingTimestamps
	a.ParallelOverlaps += b.ParallelOverlaps
	return a
}
