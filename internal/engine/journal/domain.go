// Package journal defines the domain types for the order journal.
//
// The journal is a durable, append-only trail of every checkpoint an order
// execution goes through. It serves two purposes:
//
//  1. Recovery: on restart the engine reads the journal, re-drives orders
//     that were in flight when the process crashed, and skips steps whose
//     outcome is already recorded — replay is deterministic and produces no
//     duplicate side effects.
//
//  2. Observability: each row carries the trace_id of the OpenTelemetry span
//     that was active when it was written, so a journal row can be joined
//     directly with the distributed trace.
package journal

import "time"

// Status is the kind of checkpoint a journal entry records.
type Status string

const (
	// StatusStarted marks the creation of an order; the entry carries the
	// serialized request so the order can be re-driven from the log alone.
	StatusStarted Status = "STARTED"

	// StatusStepOK and StatusStepFailed record the final outcome of one
	// step — after all retry attempts have resolved, not per attempt.
	StatusStepOK     Status = "STEP_OK"
	StatusStepFailed Status = "STEP_FAILED"

	// Terminal outcomes, mirroring the order's terminal status.
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status ends an order's life.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Entry is a single row in the order journal.
type Entry struct {
	// OrderID is the business identifier of the order this entry belongs to.
	OrderID string

	// Status is the checkpoint kind.
	Status Status

	// Step names the step this entry refers to. Empty for STARTED and
	// terminal entries.
	Step string

	// Payload is the JSON-serialized request. Written once on STARTED,
	// empty otherwise.
	Payload string

	// Error holds the failure message for STEP_FAILED entries.
	Error string

	// TraceID and SpanID identify the OpenTelemetry span active when the
	// entry was written. Empty when no span was active (e.g. unit tests).
	TraceID string
	SpanID  string

	// RecordedAt is the wall-clock time of the checkpoint.
	RecordedAt time.Time
}
