package attributes

import (
	"math"
	"testing"

	"github.com/tokenflow/tokenflow/internal/model"
	"github.com/tokenflow/tokenflow/pkg/config"
	"github.com/tokenflow/tokenflow/pkg/errors"
)

func ts(seconds float64) model.NullTime {
	return model.NanosOf(int64(seconds * 1e9))
}

func testBuilder() *Builder {
	return &Builder{
		Mode:     config.ModeAbsolute,
		Factor:   1,
		LogStart: ts(0),
		Cases: []model.CaseBounds{
			{CaseID: "c1", Start: ts(0), End: ts(40), Duration: 40},
		},
	}
}

func TestBuild_RunLengthCompaction(t *testing.T) {
	// Values [5,5,7,7,5] at five timestamps: indices 0, 2 and 4 survive.
	rows := []Sample{
		{CaseID: "c1", Time: ts(0), Value: "5"},
		{CaseID: "c1", Time: ts(10), Value: "5"},
		{CaseID: "c1", Time: ts(20), Value: "7"},
		{CaseID: "c1", Time: ts(30), Value: "7"},
		{CaseID: "c1", Time: ts(40), Value: "5"},
	}

	out, err := testBuilder().Build(AttrSize, ExternalTable{Rows: rows}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.AttributeSample{
		{CaseID: "c1", Time: 0, Value: "5"},
		{CaseID: "c1", Time: 20, Value: "7"},
		{CaseID: "c1", Time: 40, Value: "5"},
	}
	if len(out) != len(want) {
		t.Fatalf("expected %d samples, got %d: %+v", len(want), len(out), out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d = %+v, want %+v", i, out[i], want[i])
		}
	}
}

func TestBuild_CompactionKeepsChangedValueAtTiedTime(t *testing.T) {
	// Not generic dedup: a changed value right after an identical timestamp
	// is kept; an unchanged one at a tied time is dropped.
	rows := []Sample{
		{CaseID: "c1", Time: ts(10), Value: "red"},
		{CaseID: "c1", Time: ts(10), Value: "red"},
		{CaseID: "c1", Time: ts(10), Value: "blue"},
	}

	out, err := testBuilder().Build(AttrColor, ExternalTable{Rows: rows}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected 2 samples, got %d: %+v", len(out), out)
	}
	if out[0].Value != "red" || out[1].Value != "blue" {
		t.Errorf("expected [red blue], got [%s %s]", out[0].Value, out[1].Value)
	}
}

func TestBuild_ConstantDefaultPerCase(t *testing.T) {
	b := testBuilder()
	b.Cases = append(b.Cases, model.CaseBounds{CaseID: "c2", Start: ts(100), End: ts(140), Duration: 40})

	out, err := b.Build(AttrColor, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected one constant sample per case, got %d", len(out))
	}
	for _, s := range out {
		if s.Value != DefaultColor {
			t.Errorf("value = %q, want default %q", s.Value, DefaultColor)
		}
	}
}

func TestBuild_ColumnRefProjectsLog(t *testing.T) {
	log := &model.EventLog{Events: []model.Event{
		{CaseID: "c1", Activity: "A", Timestamp: ts(0), Attributes: map[string]string{"amount": "10"}},
		{CaseID: "c1", Activity: "B", Timestamp: ts(20), Attributes: map[string]string{"amount": "10"}},
		{CaseID: "c1", Activity: "C", Timestamp: ts(40), Attributes: map[string]string{"amount": "30"}},
	}}

	out, err := testBuilder().Build(AttrSize, ColumnRef{Name: "amount"}, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected 2 samples after compaction, got %d", len(out))
	}
	if out[0].Value != "10" || out[1].Value != "30" {
		t.Errorf("expected [10 30], got [%s %s]", out[0].Value, out[1].Value)
	}
}

func TestBuild_UnknownColumnIsConfigurationError(t *testing.T) {
	log := &model.EventLog{Events: []model.Event{
		{CaseID: "c1", Activity: "A", Timestamp: ts(0)},
	}}

	_, err := testBuilder().Build(AttrSize, ColumnRef{Name: "nope"}, log)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.IsCode(err, errors.CodeBadAttributeSource) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.CodeBadAttributeSource)
	}
	if !errors.IsConfiguration(err) {
		t.Error("bad attribute source must classify as a configuration error")
	}
}

func TestBuild_RescaleRelativeMode(t *testing.T) {
	b := &Builder{
		Mode:   config.ModeRelative,
		Factor: 2,
		Cases: []model.CaseBounds{
			{CaseID: "c1", Start: ts(100), End: ts(140), Duration: 40},
		},
	}
	rows := []Sample{
		{CaseID: "c1", Time: ts(100), Value: "a"},
		{CaseID: "c1", Time: ts(120), Value: "b"},
	}

	out, err := b.Build(AttrImage, ExternalTable{Rows: rows}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(out[0].Time-0) > 1e-9 || math.Abs(out[1].Time-10) > 1e-9 {
		t.Errorf("rescaled times = [%v %v], want [0 10]", out[0].Time, out[1].Time)
	}
}

func TestBuild_DropsSamplesForExcludedCases(t *testing.T) {
	rows := []Sample{
		{CaseID: "c1", Time: ts(5), Value: "x"},
		{CaseID: "ghost", Time: ts(5), Value: "y"},
	}

	out, err := testBuilder().Build(AttrImage, ExternalTable{Rows: rows}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, s := range out {
		if s.CaseID == "ghost" {
			t.Error("samples for cases without bounds must be excluded")
		}
	}
}

func TestSourceFromConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AttributeConfig
		want Source
	}{
		{"default", config.AttributeConfig{}, Constant{Value: DefaultSize}},
		{"constant", config.AttributeConfig{Constant: "9"}, Constant{Value: "9"}},
		{"column", config.AttributeConfig{Column: "amount"}, ColumnRef{Name: "amount"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SourceFromConfig(AttrSize, tt.cfg, nil)
			if got != tt.want {
				t.Errorf("SourceFromConfig = %#v, want %#v", got, tt.want)
			}
		})
	}
}
