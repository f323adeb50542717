package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/jcmexdev/coffee-sagas/internal/domain"
	"github.com/jcmexdev/coffee-sagas/internal/engine/journal"
	"github.com/jcmexdev/coffee-sagas/internal/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/jcmexdev/coffee-sagas/internal/engine")

// Instance is one running (or finished) order execution. It delivers the
// cancel signal and status query to the workflow and retains the terminal
// result for idempotent retrieval.
type Instance struct {
	orderID string
	wf      Workflow
	engine  *Engine

	// result is written exactly once, before done is closed. Readers must
	// wait on done first; the channel close provides the happens-before.
	result domain.OrderResult
	done   chan struct{}
}

// OrderID returns the identifier this instance is keyed by.
func (i *Instance) OrderID() string { return i.orderID }

// run executes the workflow to its terminal result and checkpoints it.
func (i *Instance) run(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "order.run")
	span.SetAttributes(attribute.String("order_id", i.orderID))
	defer span.End()

	start := time.Now()
	res := i.wf.Run(ctx, &instanceHost{inst: i})
	i.result = res

	span.SetAttributes(attribute.String("order_status", string(res.Status)))

	if repo := i.engine.journal; repo != nil {
		entry := journal.NewEntry(ctx, i.orderID, terminalStatus(res.Status), "", "", "")
		if err := repo.Append(ctx, entry); err != nil {
			// The in-memory result is still authoritative; a replay after a
			// crash would re-derive the same terminal state from the step
			// outcomes already journaled.
			slog.ErrorContext(ctx, "failed to checkpoint terminal result", "order_id", i.orderID, "error", err)
		}
	}

	metrics.ObserveTerminal(string(res.Status), time.Since(start))
	slog.InfoContext(ctx, "order finished", "order_id", i.orderID, "status", res.Status, "amount_cents", res.AmountCents)

	close(i.done)
}

// Result blocks until the order reaches a terminal status, then returns the
// result snapshot. Every call returns the identical value; callers may
// disconnect and fetch again later.
func (i *Instance) Result(ctx context.Context) (domain.OrderResult, error) {
	select {
	case <-i.done:
		return i.result, nil
	case <-ctx.Done():
		return domain.OrderResult{}, ctx.Err()
	}
}

// Done reports whether the instance has reached a terminal status.
func (i *Instance) Done() bool {
	select {
	case <-i.done:
		return true
	default:
		return false
	}
}

// Cancel delivers the cancel signal. It is idempotent, non-blocking, and
// safe to call at any point in the instance's life; after termination it has
// no effect. The workflow observes it at its next pre-step check.
func (i *Instance) Cancel() {
	i.wf.Cancel()
}

// Status delivers the status query: a read-only snapshot of current state
// that never disturbs execution.
func (i *Instance) Status() domain.StatusSnapshot {
	return i.wf.Status()
}

func terminalStatus(s domain.OrderStatus) journal.Status {
	switch s {
	case domain.StatusCompleted:
		return journal.StatusCompleted
	case domain.StatusCancelled:
		return journal.StatusCancelled
	default:
		return journal.StatusFailed
	}
}
