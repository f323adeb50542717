package journal

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	TraceID string // 32 lowercase hex chars; empty when no active span
	SpanID  string // 16 lowercase hex chars
}

// ExtractTraceInfo reads the active OpenTelemetry span from ctx and returns
// its trace_id and span_id as hex strings. If the context carries no valid
// span (e.g. in unit tests) both fields are empty and the caller should
// store them as-is.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds a journal entry with the trace info extracted from ctx and
// the current wall-clock time.
//
//	entry := journal.NewEntry(ctx, orderID, journal.StatusStepOK, "brew", "", "")
//	_ = repo.Append(ctx, entry)
func NewEntry(ctx context.Context, orderID string, status Status, step, payload, errMsg string) *Entry {
	ti := ExtractTraceInfo(ctx)
	return &Entry{
		OrderID:    orderID,
		Status:     status,
		Step:       step,
		Payload:    payload,
		Error:      errMsg,
		TraceID:    ti.TraceID,
		SpanID:     ti.SpanID,
		RecordedAt: time.Now().UTC(),
	}
}
