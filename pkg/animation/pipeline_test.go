package animation

import (
	"context"
	"math"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/tokenflow/tokenflow/internal/model"
	"github.com/tokenflow/tokenflow/pkg/attributes"
	"github.com/tokenflow/tokenflow/pkg/config"
	"github.com/tokenflow/tokenflow/pkg/errors"
)

func ts(seconds float64) model.NullTime {
	return model.NanosOf(int64(seconds * 1e9))
}

// instantLog builds a per-instance precedence table for a single case with
// instantaneous events A@0, B@10, C@20.
func instantPrecedence() []model.PrecedenceEdge {
	return []model.PrecedenceEdge{
		{CaseID: "c1", FromActivity: "A", ToActivity: "B", StartTime: ts(0), EndTime: ts(0), NextStartTime: ts(10), NextEndTime: ts(10), MinOrder: 0},
		{CaseID: "c1", FromActivity: "B", ToActivity: "C", StartTime: ts(10), EndTime: ts(10), NextStartTime: ts(20), NextEndTime: ts(20), MinOrder: 1},
		{CaseID: "c1", FromActivity: "C", StartTime: ts(20), EndTime: ts(20), MinOrder: 2},
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Animation.Mode = config.ModeAbsolute
	cfg.Animation.Duration = 60
	return cfg
}

func TestBuild_EndToEnd(t *testing.T) {
	payload, err := Build(context.Background(), testConfig(), Inputs{
		Precedence: instantPrecedence(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(payload.Factor-20.0/60.0) > 1e-12 {
		t.Errorf("factor = %v, want 1/3", payload.Factor)
	}
	if len(payload.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(payload.Segments))
	}
	if payload.StartActivity != "A" || payload.EndActivity != "C" {
		t.Errorf("start/end = %s/%s, want A/C", payload.StartActivity, payload.EndActivity)
	}
	if !reflect.DeepEqual(payload.CaseIDs, []string{"c1"}) {
		t.Errorf("case ids = %v, want [c1]", payload.CaseIDs)
	}
	if payload.ID == "" {
		t.Error("payload id must be set")
	}

	// Default constant attributes: one keyframe per case each.
	if len(payload.Sizes) != 1 || len(payload.Colors) != 1 || len(payload.Images) != 1 {
		t.Errorf("attribute keyframes = %d/%d/%d, want 1 each",
			len(payload.Sizes), len(payload.Colors), len(payload.Images))
	}
	if payload.Sizes[0].Value != attributes.DefaultSize {
		t.Errorf("size default = %q, want %q", payload.Sizes[0].Value, attributes.DefaultSize)
	}
}

func TestBuild_EmptyPrecedenceYieldsEmptyPayload(t *testing.T) {
	payload, err := Build(context.Background(), testConfig(), Inputs{})
	if err != nil {
		t.Fatalf("zero surviving cases must be an empty result, got error %v", err)
	}

	if len(payload.Segments) != 0 || len(payload.CaseIDs) != 0 {
		t.Errorf("expected empty payload, got %d segments, %d cases",
			len(payload.Segments), len(payload.CaseIDs))
	}
}

func TestBuild_InstantaneousLogAborts(t *testing.T) {
	rows := []model.PrecedenceEdge{
		{CaseID: "c1", FromActivity: "A", StartTime: ts(7), EndTime: ts(7), MinOrder: 0},
	}

	_, err := Build(context.Background(), testConfig(), Inputs{Precedence: rows})
	if err == nil {
		t.Fatal("expected degenerate-input error, got nil")
	}
	if !errors.IsDegenerateInput(err) {
		t.Errorf("error code = %v, want degenerate input", errors.GetCode(err))
	}
}

func TestBuild_InvalidConfigAbortsBeforeWork(t *testing.T) {
	cfg := testConfig()
	cfg.Animation.Mode = "backwards"

	_, err := Build(context.Background(), cfg, Inputs{Precedence: instantPrecedence()})
	if err == nil {
		t.Fatal("expected configuration error, got nil")
	}
	if !errors.IsConfiguration(err) {
		t.Errorf("error code = %v, want configuration", errors.GetCode(err))
	}
}

func TestBuild_Deterministic(t *testing.T) {
	in := Inputs{Precedence: instantPrecedence()}

	first, err := Build(context.Background(), testConfig(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Build(context.Background(), testConfig(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Identical apart from the generated payload ID.
	second.ID = first.ID
	if !reflect.DeepEqual(first, second) {
		t.Error("two builds over identical inputs differ")
	}
}

func TestBuild_ManyCasesParallelSchedulingIsOrdered(t *testing.T) {
	var rows []model.PrecedenceEdge
	caseIDs := []string{"c01", "c02", "c03", "c04", "c05", "c06", "c07", "c08"}
	for i, id := range caseIDs {
		base := float64(i * 100)
		rows = append(rows,
			model.PrecedenceEdge{
				CaseID: id, FromActivity: "A", ToActivity: "B",
				StartTime: ts(base), EndTime: ts(base),
				NextStartTime: ts(base + 10), NextEndTime: ts(base + 10),
				MinOrder: 0,
			},
			model.PrecedenceEdge{
				CaseID: id, FromActivity: "B",
				StartTime: ts(base + 10), EndTime: ts(base + 10),
				MinOrder: 1,
			},
		)
	}

	payload, err := Build(context.Background(), testConfig(), Inputs{Precedence: rows})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(payload.CaseIDs, caseIDs) {
		t.Errorf("case order = %v, want bounds order %v", payload.CaseIDs, caseIDs)
	}

	var gotOrder []string
	for _, seg := range payload.Segments {
		gotOrder = append(gotOrder, seg.CaseID)
	}
	if !reflect.DeepEqual(gotOrder, caseIDs) {
		t.Errorf("segment concatenation order = %v, want %v", gotOrder, caseIDs)
	}
}

func TestBuild_ProgressCallback(t *testing.T) {
	var calls atomic.Int64

	_, err := Build(context.Background(), testConfig(), Inputs{
		Precedence: instantPrecedence(),
		Progress: func(done, total int) {
			calls.Add(1)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("progress called %d times, want once per case", calls.Load())
	}
}
