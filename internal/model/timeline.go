package model

import "time"

// NullTime is an explicitly-optional timestamp stored as int64 nanoseconds
// since the Unix epoch. Missing source values stay Invalid instead of
// propagating through arithmetic as NaN.
type NullTime struct {
	Nanos int64
	Valid bool
}

// TimeOf wraps a time.Time into a valid NullTime.
func TimeOf(t time.Time) NullTime {
	return NullTime{Nanos: t.UnixNano(), Valid: true}
}

// NanosOf wraps raw epoch nanoseconds into a valid NullTime.
func NanosOf(ns int64) NullTime {
	return NullTime{Nanos: ns, Valid: true}
}

// Seconds returns the timestamp as float64 epoch seconds.
// Only meaningful when Valid.
func (t NullTime) Seconds() float64 {
	return float64(t.Nanos) / 1e9
}

// PrecedenceEdge is one row per consecutive activity-instance pair within a
// case. Derived externally (or by pkg/precedence) and treated as immutable.
type PrecedenceEdge struct {
	CaseID       string
	FromActivity string
	ToActivity   string

	// Timing of the current activity instance.
	StartTime NullTime
	EndTime   NullTime

	// Timing of the following activity instance.
	NextStartTime NullTime
	NextEndTime   NullTime

	// MinOrder is the stable arrival index used for tie-breaking.
	MinOrder int64
}

// CaseBounds holds per-case start/end/duration derived from precedence rows.
type CaseBounds struct {
	CaseID string
	Start  NullTime
	End    NullTime

	// Duration in real seconds.
	Duration float64
}

// LogBounds holds the global min/max over all case bounds.
type LogBounds struct {
	Start NullTime
	End   NullTime

	// Duration in real seconds.
	Duration float64
}

// AttributeSample is one keyframe of a token attribute on the animation
// clock. Value is attribute-specific (numeric for size, hex for color, URL
// for image) but structurally identical across the three attributes.
type AttributeSample struct {
	CaseID string  `json:"case"`
	Time   float64 `json:"time"`
	Value  string  `json:"value"`
}

// TokenSegment is one edge traversal plus the dwell at its destination, on
// the animation clock. Per case, segments ordered by TokenStart form a
// strictly increasing, contiguous chain.
type TokenSegment struct {
	CaseID       string `json:"case"`
	EdgeID       int    `json:"edge_id"`
	FromActivity string `json:"from"`
	ToActivity   string `json:"to"`

	// TokenStart is when the token leaves FromActivity.
	TokenStart float64 `json:"token_start"`

	// TokenDuration is the edge-traversal time. Never negative.
	TokenDuration float64 `json:"token_duration"`

	// ActivityDuration is the dwell time at ToActivity. Always positive.
	ActivityDuration float64 `json:"activity_duration"`

	// CaseDuration is the case-level animation duration, attached to every
	// segment of the case.
	CaseDuration float64 `json:"case_duration"`
}
