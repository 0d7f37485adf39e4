// Package attributes resolves and compacts the size/color/image value
// streams that drive token appearance. Each attribute's values come from a
// tagged variant source: a constant, a per-event column of the log, or an
// externally supplied case/time/value table. Resolved streams are run-length
// compacted per case and rescaled onto the animation clock.
package attributes

import (
	"sort"

	"github.com/tokenflow/tokenflow/internal/model"
	"github.com/tokenflow/tokenflow/pkg/config"
	"github.com/tokenflow/tokenflow/pkg/errors"
)

// Token attribute names.
const (
	AttrSize  = "size"
	AttrColor = "color"
	AttrImage = "image"
)

// Constant defaults used when no value source is configured.
const (
	DefaultSize  = "4"
	DefaultColor = "#DC143C"
	DefaultImage = ""
)

// Sample is a raw attribute observation on the real clock.
type Sample struct {
	CaseID string
	Time   model.NullTime
	Value  string
}

// Source is the tagged variant naming where an attribute's values come from.
type Source interface {
	isSource()
}

// Constant is a fixed value for every token.
type Constant struct {
	Value string
}

// ColumnRef names a per-event attribute column of the log.
type ColumnRef struct {
	Name string
}

// ExternalTable is a caller-supplied case/time/value table used as-is.
type ExternalTable struct {
	Rows []Sample
}

func (Constant) isSource()      {}
func (ColumnRef) isSource()     {}
func (ExternalTable) isSource() {}

// DefaultSource returns the constant default for an attribute.
func DefaultSource(attr string) Source {
	switch attr {
	case AttrSize:
		return Constant{Value: DefaultSize}
	case AttrColor:
		return Constant{Value: DefaultColor}
	default:
		return Constant{Value: DefaultImage}
	}
}

// SourceFromConfig maps an attribute's configuration onto a Source. External
// tables are loaded by the caller (the table is a file path at the config
// boundary) and passed through external.
func SourceFromConfig(attr string, cfg config.AttributeConfig, external []Sample) Source {
	switch {
	case cfg.Table != "":
		return ExternalTable{Rows: external}
	case cfg.Column != "":
		return ColumnRef{Name: cfg.Column}
	case cfg.Constant != "":
		return Constant{Value: cfg.Constant}
	default:
		return DefaultSource(attr)
	}
}

// Builder resolves, compacts and rescales one attribute stream at a time.
// Cases excluded from bounds extraction are excluded here too.
type Builder struct {
	Mode   string
	Factor float64

	// LogStart is the shared origin used in absolute mode.
	LogStart model.NullTime
	Cases    []model.CaseBounds
}

// Build resolves src for the named attribute and returns the compacted,
// rescaled sample table. A nil src means the per-attribute constant default.
// An unresolvable source is a configuration error and aborts the computation.
func (b *Builder) Build(attr string, src Source, log *model.EventLog) ([]model.AttributeSample, error) {
	if src == nil {
		src = DefaultSource(attr)
	}

	raw, err := b.resolve(attr, src, log)
	if err != nil {
		return nil, err
	}

	return b.compact(raw), nil
}

// resolve materializes the raw sample stream for a source.
func (b *Builder) resolve(attr string, src Source, log *model.EventLog) ([]Sample, error) {
	switch s := src.(type) {
	case Constant:
		// One sample per case, pinned to the case start so the value holds
		// for the whole animation.
		samples := make([]Sample, 0, len(b.Cases))
		for i := range b.Cases {
			samples = append(samples, Sample{
				CaseID: b.Cases[i].CaseID,
				Time:   b.Cases[i].Start,
				Value:  s.Value,
			})
		}
		return samples, nil

	case ColumnRef:
		if log == nil || !log.HasAttribute(s.Name) {
			return nil, errors.BadAttributeSource(attr, "unknown event attribute column").
				WithContext("column", s.Name)
		}
		var samples []Sample
		for i := range log.Events {
			e := &log.Events[i]
			v, ok := e.Attributes[s.Name]
			if !ok || !e.Timestamp.Valid {
				continue
			}
			samples = append(samples, Sample{CaseID: e.CaseID, Time: e.Timestamp, Value: v})
		}
		return samples, nil

	case ExternalTable:
		if s.Rows == nil {
			return nil, errors.BadAttributeSource(attr, "external table has no rows")
		}
		return s.Rows, nil

	default:
		return nil, errors.BadAttributeSource(attr, "unrecognized source variant")
	}
}

// compact sorts samples per case by time and retains only the first sample
// and samples whose value differs from the immediately preceding retained
// one. This collapses runs of identical values into single keyframes; it is
// not generic deduplication — a changed value right after an identical
// timestamp is kept. Retained times are then rescaled onto the animation
// clock.
func (b *Builder) compact(raw []Sample) []model.AttributeSample {
	byCase := make(map[string][]Sample, len(b.Cases))
	for _, s := range raw {
		if !s.Time.Valid {
			continue
		}
		byCase[s.CaseID] = append(byCase[s.CaseID], s)
	}

	var out []model.AttributeSample
	for i := range b.Cases {
		c := &b.Cases[i]
		samples := byCase[c.CaseID]
		if len(samples) == 0 {
			continue
		}

		sort.SliceStable(samples, func(a, b int) bool {
			return samples[a].Time.Nanos < samples[b].Time.Nanos
		})

		origin := c.Start.Seconds()
		if b.Mode == config.ModeAbsolute {
			origin = b.LogStart.Seconds()
		}

		last := ""
		first := true
		for _, s := range samples {
			if !first && s.Value == last {
				continue
			}
			out = append(out, model.AttributeSample{
				CaseID: s.CaseID,
				Time:   (s.Time.Seconds() - origin) / b.Factor,
				Value:  s.Value,
			})
			last = s.Value
			first = false
		}
	}

	return out
}
