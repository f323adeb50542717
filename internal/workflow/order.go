// Package workflow implements the order state machine: the fixed
// charge → brew → notify sequence, the cooperative cancellation protocol,
// and the status/result snapshot model.
//
// One OrderWorkflow instance exists per order. Run executes as a single
// logical thread that suspends at each step dispatch; Cancel and Status are
// short, non-suspending handlers that may be invoked concurrently with Run.
// The workflow's mutex is the serialization point the engine relies on: no
// handler ever observes a state transition halfway through.
package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jcmexdev/coffee-sagas/internal/domain"
	"github.com/jcmexdev/coffee-sagas/internal/engine"
)

// Executor ports. The step services implement these; the workflow depends on
// the abstraction so the engine and tests can inject their own.

// PaymentClient charges the customer for an order.
type PaymentClient interface {
	Charge(ctx context.Context, in domain.ChargeInput) error
}

// BrewClient prepares the drink. Brewing is the flaky step in practice,
// which is what the retry policy exists for.
type BrewClient interface {
	Brew(ctx context.Context, in domain.BrewInput) error
}

// ReceiptClient delivers the order receipt.
type ReceiptClient interface {
	SendReceipt(ctx context.Context, in domain.ReceiptInput) error
}

// Deps bundles the collaborators injected into every workflow instance.
// They are constructed once at process startup and shared across orders.
type Deps struct {
	Pricer   domain.Pricer
	Payments PaymentClient
	Brewer   BrewClient
	Notifier ReceiptClient
}

// Options carries the per-step dispatch configuration.
type Options struct {
	// Retry applies to every step dispatch.
	Retry engine.RetryPolicy

	// StepTimeout bounds a single executor attempt. Exceeding it counts as
	// a failed attempt.
	StepTimeout time.Duration
}

// DefaultOptions is the production dispatch configuration: up to 5 attempts
// with delays of 1s, 2s, 4s, 8s, and a 10s per-attempt timeout.
func DefaultOptions() Options {
	return Options{
		Retry: engine.RetryPolicy{
			MaxAttempts:        5,
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
		},
		StepTimeout: 10 * time.Second,
	}
}

// OrderWorkflow is the per-order state machine. All mutable fields are
// guarded by mu; Run only holds the lock between step dispatches, never
// across one, so signal and query handlers stay non-blocking.
type OrderWorkflow struct {
	req  domain.OrderRequest
	deps Deps
	opts Options

	mu          sync.Mutex
	state       domain.OrderState
	amountCents int
	terminal    domain.OrderStatus // empty until a terminal snapshot is built
}

// New builds a workflow for the request. The request is assumed validated by
// the engine.
func New(req domain.OrderRequest, deps Deps, opts Options) *OrderWorkflow {
	return &OrderWorkflow{req: req, deps: deps, opts: opts}
}

// Run drives the order to a terminal result. Pricing runs first — it is
// deterministic, so it needs no dispatch. Each step is guarded by a
// cancellation check: a cancel signal observed at the boundary short-circuits
// to a CANCELLED result without dispatching that step or any later one. A
// step failure surfacing from the host (retries exhausted or non-retryable)
// is caught here and converted to a FAILED result; it never escapes as a
// fault of the instance.
func (w *OrderWorkflow) Run(ctx context.Context, host engine.Host) domain.OrderResult {
	w.mu.Lock()
	w.amountCents = w.deps.Pricer.PriceCents(w.req)
	amount := w.amountCents
	w.mu.Unlock()

	slog.InfoContext(ctx, "running order",
		"order_id", w.req.OrderID, "drink", w.req.Drink, "size", w.req.Size, "amount_cents", amount)

	steps := []struct {
		step engine.Step
		mark func(s *domain.OrderState)
	}{
		{
			step: chargeStep{client: w.deps.Payments, input: domain.ChargeInput{
				OrderID: w.req.OrderID, AmountCents: amount,
			}},
			mark: func(s *domain.OrderState) { s.Charged = true },
		},
		{
			step: brewStep{client: w.deps.Brewer, input: domain.BrewInput{
				OrderID: w.req.OrderID, Drink: w.req.Drink, Size: w.req.Size,
			}},
			mark: func(s *domain.OrderState) { s.Brewed = true },
		},
		{
			step: notifyStep{client: w.deps.Notifier, input: domain.ReceiptInput{
				OrderID: w.req.OrderID,
			}},
			mark: func(s *domain.OrderState) { s.ReceiptSent = true },
		},
	}

	for _, s := range steps {
		if w.cancelled() {
			return w.finish(domain.StatusCancelled)
		}
		if err := host.Dispatch(ctx, s.step, w.opts.Retry, w.opts.StepTimeout); err != nil {
			slog.ErrorContext(ctx, "order step failed",
				"order_id", w.req.OrderID, "step", s.step.Name(), "error", err)
			return w.finish(domain.StatusFailed)
		}
		w.mu.Lock()
		s.mark(&w.state)
		w.mu.Unlock()
	}

	return w.finish(domain.StatusCompleted)
}

// Cancel is the signal handler. Idempotent, non-blocking, no I/O. The flag
// is observed at the next pre-step check only: a step already dispatched
// runs to completion (cancellation is cooperative, not preemptive), and a
// signal arriving after the last step started has no effect.
func (w *OrderWorkflow) Cancel() {
	w.mu.Lock()
	w.state.Cancelled = true
	w.mu.Unlock()
}

// Status is the query handler: a read-only copy of current state, valid at
// any point in the workflow's life. Before pricing the amount reads as 0;
// after termination the snapshot carries the terminal status and the final
// flag values.
func (w *OrderWorkflow) Status() domain.StatusSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return domain.StatusSnapshot{
		OrderID:     w.req.OrderID,
		Charged:     w.state.Charged,
		Brewed:      w.state.Brewed,
		ReceiptSent: w.state.ReceiptSent,
		Cancelled:   w.state.Cancelled,
		AmountCents: w.amountCents,
		Status:      w.terminal,
	}
}

func (w *OrderWorkflow) cancelled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Cancelled
}

// finish builds the terminal result snapshot exactly once.
func (w *OrderWorkflow) finish(status domain.OrderStatus) domain.OrderResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.terminal = status
	return domain.OrderResult{
		OrderID:     w.req.OrderID,
		Status:      status,
		Charged:     w.state.Charged,
		Brewed:      w.state.Brewed,
		ReceiptSent: w.state.ReceiptSent,
		AmountCents: w.amountCents,
	}
}
