// Package events records workflow activity so operators can answer "what
// happened to this document" after the fact. Events are append-only rows in
// a small sqlite database next to the content database.
package events

import (
	"time"
)

// EventType identifies what happened during a workflow operation
type EventType string

const (
	// EventDocumentDiscovered indicates discovery created a new entry
	EventDocumentDiscovered EventType = "document_discovered"
	// EventReviewCompleted indicates a document was scored for the first time
	EventReviewCompleted EventType = "review_completed"
	// EventImproveCompleted indicates an improvement was applied and committed
	EventImproveCompleted EventType = "improve_completed"
	// EventImprovementRejected indicates an improvement failed the integrity checks
	EventImprovementRejected EventType = "improvement_rejected"
	// EventBatchCompleted indicates a batch operation finished
	EventBatchCompleted EventType = "batch_completed"
	// EventWorkflowCompleted indicates a full discover/review/improve run finished
	EventWorkflowCompleted EventType = "workflow_completed"
)

// Severity indicates how operators should read an event
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is one recorded workflow occurrence
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path,omitempty"` // document this event concerns, if any
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`

	// Data carries operation-specific detail (scores, costs, batch counts)
	Data map[string]any `json:"data,omitempty"`
}

// Filter selects events for retrieval
type Filter struct {
	Path      string    // only events for this document
	Type      EventType // only events of this type
	AfterTime time.Time // only events after this time
	Limit     int       // max rows (0 = default 50)
}
