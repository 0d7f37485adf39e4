// Package adapters provides the thin CSV boundary loaders for the tables
// TokenFlow consumes: event log, precedence relation, process-graph edge
// list, and external attribute tables. Loading is a boundary concern only;
// full log ingestion belongs to external collaborators.
package adapters

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/tokenflow/tokenflow/internal/model"
	"github.com/tokenflow/tokenflow/pkg/attributes"
	"github.com/tokenflow/tokenflow/pkg/errors"
	"github.com/tokenflow/tokenflow/pkg/graph"
)

// EventColumns names the event log's required columns.
type EventColumns struct {
	CaseID    string
	Activity  string
	Timestamp string
	Lifecycle string // optional
}

// DefaultEventColumns matches common process mining exports.
func DefaultEventColumns() EventColumns {
	return EventColumns{
		CaseID:    "case_id",
		Activity:  "activity",
		Timestamp: "timestamp",
		Lifecycle: "lifecycle",
	}
}

// header resolves column names to indices, or -1 when absent.
type header struct {
	names []string
	index map[string]int
}

func readHeader(r *csv.Reader) (*header, error) {
	record, err := r.Read()
	if err != nil {
		return nil, err
	}
	h := &header{names: record, index: make(map[string]int, len(record))}
	for i, name := range record {
		h.index[name] = i
	}
	return h, nil
}

func (h *header) resolve(name string) int {
	if i, ok := h.index[name]; ok {
		return i
	}
	return -1
}

// require returns the index of a column or a missing-column error carrying
// the available column names for diagnosis.
func (h *header) require(name string) (int, error) {
	if i := h.resolve(name); i >= 0 {
		return i, nil
	}
	return -1, errors.MissingColumn(name, h.names)
}

// LoadEventLog reads a CSV event log. Empty timestamps stay explicitly
// missing; unparseable ones are input errors with their row number.
func LoadEventLog(path string, cols EventColumns) (*model.EventLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	caseIdx, err := h.require(cols.CaseID)
	if err != nil {
		return nil, err
	}
	actIdx, err := h.require(cols.Activity)
	if err != nil {
		return nil, err
	}
	tsIdx, err := h.require(cols.Timestamp)
	if err != nil {
		return nil, err
	}
	lcIdx := h.resolve(cols.Lifecycle)

	log := &model.EventLog{}
	row := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.MalformedRow(row, err.Error())
		}
		row++

		ts, err := parseNullTime(record[tsIdx], row)
		if err != nil {
			return nil, err
		}

		event := model.Event{
			CaseID:    record[caseIdx],
			Activity:  record[actIdx],
			Timestamp: ts,
		}
		if lcIdx >= 0 {
			event.Lifecycle = record[lcIdx]
		}

		// Remaining columns become named attributes.
		for i, name := range h.names {
			if i == caseIdx || i == actIdx || i == tsIdx || i == lcIdx {
				continue
			}
			if record[i] == "" {
				continue
			}
			if event.Attributes == nil {
				event.Attributes = make(map[string]string)
			}
			event.Attributes[name] = record[i]
		}

		log.Events = append(log.Events, event)
	}

	return log, nil
}

// LoadPrecedence reads a precedence table with the fixed columns
// case_id, from_activity, to_activity, start_time, end_time,
// next_start_time, next_end_time, min_order.
func LoadPrecedence(path string) ([]model.PrecedenceEdge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var idx [8]int
	for i, name := range []string{
		"case_id", "from_activity", "to_activity",
		"start_time", "end_time", "next_start_time", "next_end_time",
		"min_order",
	} {
		if idx[i], err = h.require(name); err != nil {
			return nil, err
		}
	}

	var rows []model.PrecedenceEdge
	row := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.MalformedRow(row, err.Error())
		}
		row++

		var times [4]model.NullTime
		for i := 0; i < 4; i++ {
			if times[i], err = parseNullTime(record[idx[3+i]], row); err != nil {
				return nil, err
			}
		}
		minOrder, err := strconv.ParseInt(record[idx[7]], 10, 64)
		if err != nil {
			return nil, errors.MalformedRow(row, "min_order is not an integer")
		}

		rows = append(rows, model.PrecedenceEdge{
			CaseID:        record[idx[0]],
			FromActivity:  record[idx[1]],
			ToActivity:    record[idx[2]],
			StartTime:     times[0],
			EndTime:       times[1],
			NextStartTime: times[2],
			NextEndTime:   times[3],
			MinOrder:      minOrder,
		})
	}

	return rows, nil
}

// LoadEdges reads a process-graph edge list with columns from, to.
// Identifiers are assigned in row order.
func LoadEdges(path string) (*graph.EdgeSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	fromIdx, err := h.require("from")
	if err != nil {
		return nil, err
	}
	toIdx, err := h.require("to")
	if err != nil {
		return nil, err
	}

	edges := graph.NewEdgeSet()
	row := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.MalformedRow(row, err.Error())
		}
		row++
		edges.Add(record[fromIdx], record[toIdx])
	}

	return edges, nil
}

// LoadAttributeTable reads an external attribute table, which must carry
// exactly the columns case, time, value. Anything else is a configuration
// defect.
func LoadAttributeTable(path, attribute string) ([]attributes.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	if len(h.names) != 3 || h.resolve("case") < 0 || h.resolve("time") < 0 || h.resolve("value") < 0 {
		return nil, errors.BadAttributeSource(attribute, "external table must have exactly the columns case, time, value").
			WithContext("columns", h.names)
	}
	caseIdx := h.resolve("case")
	timeIdx := h.resolve("time")
	valueIdx := h.resolve("value")

	var samples []attributes.Sample
	row := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.MalformedRow(row, err.Error())
		}
		row++

		ts, err := parseNullTime(record[timeIdx], row)
		if err != nil {
			return nil, err
		}
		samples = append(samples, attributes.Sample{
			CaseID: record[caseIdx],
			Time:   ts,
			Value:  record[valueIdx],
		})
	}

	return samples, nil
}

// timestampFormats are tried in order; common process mining exports first.
var timestampFormats = []string{
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
}

// parseNullTime parses a timestamp field. Empty means explicitly missing.
func parseNullTime(value string, row int) (model.NullTime, error) {
	if value == "" || value == "NA" {
		return model.NullTime{}, nil
	}

	// Numeric values are epoch seconds.
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return model.NanosOf(int64(secs * 1e9)), nil
	}

	for _, format := range timestampFormats {
		if t, err := time.Parse(format, value); err == nil {
			return model.TimeOf(t), nil
		}
	}

	return model.NullTime{}, errors.InvalidTimestamp(value, row)
}
