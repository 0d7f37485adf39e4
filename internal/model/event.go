// Package model defines core data structures for TokenFlow.
package model

// Event represents a single process mining event. Events are owned by the
// external log and are never mutated here.
type Event struct {
	// CaseID identifies the process instance (trace).
	CaseID string

	// Activity is the event name/activity label.
	Activity string

	// Timestamp of the event. Invalid when the source value was missing.
	Timestamp NullTime

	// Lifecycle is the transition marker ("start", "complete", ...).
	// Empty when the log carries no lifecycle information.
	Lifecycle string

	// Attributes holds additional named values as opaque strings.
	Attributes map[string]string
}

// EventLog is an in-memory event table.
type EventLog struct {
	Events []Event
}

// HasAttribute reports whether any event in the log carries the named
// attribute. Used to validate column-reference value sources.
func (l *EventLog) HasAttribute(name string) bool {
	for i := range l.Events {
		if _, ok := l.Events[i].Attributes[name]; ok {
			return true
		}
	}
	return false
}

// CaseIDs returns the distinct case identifiers in first-seen order.
func (l *EventLog) CaseIDs() []string {
	seen := make(map[string]bool, 64)
	var ids []string
	for i := range l.Events {
		id := l.Events[i].CaseID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
