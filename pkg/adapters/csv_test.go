package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tokenflow/tokenflow/pkg/errors"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadEventLog(t *testing.T) {
	path := writeCSV(t, "log.csv",
		"case_id,activity,timestamp,lifecycle,amount\n"+
			"c1,A,100,start,42\n"+
			"c1,A,105,complete,\n"+
			"c1,B,,,\n")

	log, err := LoadEventLog(path, DefaultEventColumns())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(log.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(log.Events))
	}

	first := log.Events[0]
	if first.CaseID != "c1" || first.Activity != "A" || first.Lifecycle != "start" {
		t.Errorf("events[0] = %+v", first)
	}
	if first.Timestamp.Nanos != 100*1e9 {
		t.Errorf("events[0] timestamp = %d, want 100s", first.Timestamp.Nanos)
	}
	if first.Attributes["amount"] != "42" {
		t.Errorf("attributes = %v, want amount=42", first.Attributes)
	}

	// Empty attribute cells contribute no entry.
	if _, ok := log.Events[1].Attributes["amount"]; ok {
		t.Error("empty cell must not become an attribute")
	}

	// Empty timestamp stays explicitly missing.
	if log.Events[2].Timestamp.Valid {
		t.Error("empty timestamp must be invalid, not zero")
	}
}

func TestLoadEventLog_CustomColumns(t *testing.T) {
	path := writeCSV(t, "log.csv",
		"Case ID,Task,When\nc1,A,100\n")

	log, err := LoadEventLog(path, EventColumns{
		CaseID: "Case ID", Activity: "Task", Timestamp: "When",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(log.Events) != 1 || log.Events[0].Activity != "A" {
		t.Fatalf("events = %+v", log.Events)
	}
	if log.Events[0].Lifecycle != "" {
		t.Error("absent lifecycle column must leave lifecycle empty")
	}
}

func TestLoadEventLog_MissingColumn(t *testing.T) {
	path := writeCSV(t, "log.csv", "case_id,activity\nc1,A\n")

	_, err := LoadEventLog(path, DefaultEventColumns())
	if err == nil {
		t.Fatal("expected missing-column error, got nil")
	}
	if !errors.IsCode(err, errors.CodeMissingColumn) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.CodeMissingColumn)
	}
}

func TestLoadEventLog_BadTimestamp(t *testing.T) {
	path := writeCSV(t, "log.csv",
		"case_id,activity,timestamp\nc1,A,yesterday\n")

	_, err := LoadEventLog(path, DefaultEventColumns())
	if err == nil {
		t.Fatal("expected timestamp error, got nil")
	}
	if !errors.IsCode(err, errors.CodeInvalidTimestamp) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.CodeInvalidTimestamp)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := writeCSV(t, "precedence.csv",
		"case_id,from_activity,to_activity,start_time,end_time,next_start_time,next_end_time,min_order\n"+
			"c1,A,B,0,0,10,10,0\n"+
			"c1,B,,10,10,,,1\n")

	rows, err := LoadPrecedence(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ToActivity != "B" || rows[0].NextStartTime.Nanos != 10*1e9 {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].ToActivity != "" || rows[1].NextStartTime.Valid {
		t.Errorf("terminal row = %+v, want empty successor", rows[1])
	}
	if rows[1].MinOrder != 1 {
		t.Errorf("min_order = %d, want 1", rows[1].MinOrder)
	}
}

func TestLoadPrecedence_BadMinOrder(t *testing.T) {
	path := writeCSV(t, "precedence.csv",
		"case_id,from_activity,to_activity,start_time,end_time,next_start_time,next_end_time,min_order\n"+
			"c1,A,B,0,0,10,10,first\n")

	_, err := LoadPrecedence(path)
	if err == nil {
		t.Fatal("expected malformed-row error, got nil")
	}
	if !errors.IsCode(err, errors.CodeMalformedRow) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.CodeMalformedRow)
	}
}

func TestLoadEdges(t *testing.T) {
	path := writeCSV(t, "edges.csv", "from,to\nA,B\nB,C\nA,B\n")

	edges, err := LoadEdges(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edges.Len() != 2 {
		t.Errorf("len = %d, want 2 (duplicate collapsed)", edges.Len())
	}
	if id, ok := edges.Lookup("A", "B"); !ok || id != 1 {
		t.Errorf("lookup A->B = %d, %v, want 1, true", id, ok)
	}
}

func TestLoadAttributeTable(t *testing.T) {
	path := writeCSV(t, "sizes.csv", "case,time,value\nc1,0,5\nc1,10,7\n")

	samples, err := LoadAttributeTable(path, "size")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[1].CaseID != "c1" || samples[1].Value != "7" || samples[1].Time.Nanos != 10*1e9 {
		t.Errorf("samples[1] = %+v", samples[1])
	}
}

func TestLoadAttributeTable_RejectsExtraColumns(t *testing.T) {
	path := writeCSV(t, "sizes.csv", "case,time,value,note\nc1,0,5,x\n")

	_, err := LoadAttributeTable(path, "size")
	if err == nil {
		t.Fatal("expected configuration error, got nil")
	}
	if !errors.IsCode(err, errors.CodeBadAttributeSource) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.CodeBadAttributeSource)
	}
}

func TestParseNullTime(t *testing.T) {
	tests := []struct {
		value     string
		wantValid bool
		wantNanos int64
		wantErr   bool
	}{
		{value: "", wantValid: false},
		{value: "NA", wantValid: false},
		{value: "100", wantValid: true, wantNanos: 100 * 1e9},
		{value: "100.5", wantValid: true, wantNanos: 100.5 * 1e9},
		{value: "1970-01-01 00:01:40", wantValid: true, wantNanos: 100 * 1e9},
		{value: "1970-01-01T00:01:40Z", wantValid: true, wantNanos: 100 * 1e9},
		{value: "not a time", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseNullTime(tt.value, 1)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseNullTime(%q): expected error", tt.value)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseNullTime(%q): %v", tt.value, err)
			continue
		}
		if got.Valid != tt.wantValid {
			t.Errorf("parseNullTime(%q).Valid = %v, want %v", tt.value, got.Valid, tt.wantValid)
			continue
		}
		if got.Valid && got.Nanos != tt.wantNanos {
			t.Errorf("parseNullTime(%q) = %d, want %d", tt.value, got.Nanos, tt.wantNanos)
		}
	}
}
