// Package engine is the in-process durable-execution host for order
// workflows. It owns the instance registry, dispatches steps with retry and
// backoff, checkpoints progress to the journal, and re-drives unfinished
// orders after a restart.
//
// The engine guarantees the workflow three things:
//
//   - step dispatch is at-least-once against the executor but the recorded
//     outcome is consulted first, so a replayed order never re-runs a step
//     whose outcome is already journaled;
//   - signals and queries are serialized against the workflow's own state
//     transitions (the workflow holds the lock, see internal/workflow);
//   - a terminal result is retained and returned identically on every fetch.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jcmexdev/coffee-sagas/internal/domain"
	"github.com/jcmexdev/coffee-sagas/internal/engine/journal"
	"github.com/jcmexdev/coffee-sagas/internal/pkg/metrics"
)

// Step is a single unit of side-effecting work dispatched through the host.
// Execute may fail transiently; the engine retries it per the RetryPolicy.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
}

// Host is the surface the workflow sees. Dispatch suspends the workflow's
// logical thread until the step resolves: success, retries exhausted, or a
// non-retryable failure.
type Host interface {
	Dispatch(ctx context.Context, step Step, policy RetryPolicy, timeout time.Duration) error
}

// Workflow is one order's state machine. Run executes the step sequence to a
// terminal result and must never panic or leak an error — failure is part of
// its result model. Cancel and Status are the signal and query handlers;
// both must be non-blocking and safe to call concurrently with Run.
type Workflow interface {
	Run(ctx context.Context, host Host) domain.OrderResult
	Cancel()
	Status() domain.StatusSnapshot
}

// WorkflowFactory builds a fresh workflow instance for a request. Called
// once per order, and again on Resume when re-driving a journaled order.
type WorkflowFactory func(req domain.OrderRequest) Workflow

// Engine is the instance registry and step dispatcher. One Engine serves the
// whole process; instances of different orders run fully independently.
type Engine struct {
	mu        sync.Mutex
	instances map[string]*Instance

	newWorkflow WorkflowFactory
	journal     journal.Repository // may be nil: no durability
}

// New creates an engine. repo may be nil, in which case progress is kept in
// memory only and Resume is a no-op.
func New(factory WorkflowFactory, repo journal.Repository) *Engine {
	return &Engine{
		instances:   make(map[string]*Instance),
		newWorkflow: factory,
		journal:     repo,
	}
}

// StartOrder validates the request, registers a new instance keyed by the
// order identifier and starts its execution. The identifier is the
// uniqueness key: a collision with any known instance — in flight or
// terminal — is rejected and the original instance is unaffected.
//
// The returned instance is live immediately; the caller may detach and later
// reattach via Instance to fetch the same result.
func (e *Engine) StartOrder(ctx context.Context, req domain.OrderRequest) (*Instance, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.instances[req.OrderID]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateOrder, req.OrderID)
	}

	if e.journal != nil {
		payload, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("engine: marshal request: %w", err)
		}
		entry := journal.NewEntry(ctx, req.OrderID, journal.StatusStarted, "", string(payload), "")
		if err := e.journal.Append(ctx, entry); err != nil {
			return nil, fmt.Errorf("engine: checkpoint start: %w", err)
		}
	}

	return e.startLocked(ctx, req), nil
}

// startLocked registers and launches an instance. Caller holds e.mu.
func (e *Engine) startLocked(ctx context.Context, req domain.OrderRequest) *Instance {
	inst := &Instance{
		orderID: req.OrderID,
		wf:      e.newWorkflow(req),
		engine:  e,
		done:    make(chan struct{}),
	}
	e.instances[req.OrderID] = inst

	metrics.OrdersStarted.Inc()
	slog.InfoContext(ctx, "order started", "order_id", req.OrderID, "drink", req.Drink, "size", req.Size)

	// Detach from the caller's context so the order is not cancelled when
	// the HTTP response is sent, while keeping tracing metadata.
	go inst.run(context.WithoutCancel(ctx))

	return inst
}

// Instance returns the instance registered for the order identifier.
func (e *Engine) Instance(orderID string) (*Instance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	inst, ok := e.instances[orderID]
	return inst, ok
}

// Resume re-drives every journaled order that has no terminal entry. Step
// dispatch consults the journal first, so steps that completed before the
// crash are skipped and the state machine deterministically reaches the
// point where it left off. Returns the number of orders resumed.
func (e *Engine) Resume(ctx context.Context) (int, error) {
	if e.journal == nil {
		return 0, nil
	}

	open, err := e.journal.OpenOrders(ctx)
	if err != nil {
		return 0, fmt.Errorf("engine: resume: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	resumed := 0
	for _, entry := range open {
		if _, exists := e.instances[entry.OrderID]; exists {
			continue
		}
		var req domain.OrderRequest
		if err := json.Unmarshal([]byte(entry.Payload), &req); err != nil {
			slog.ErrorContext(ctx, "skipping unreadable journal payload", "order_id", entry.OrderID, "error", err)
			continue
		}
		e.startLocked(ctx, req)
		resumed++
	}

	if resumed > 0 {
		slog.InfoContext(ctx, "resumed unfinished orders", "count", resumed)
	}
	return resumed, nil
}
