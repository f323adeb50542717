package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcmexdev/coffee-sagas/internal/engine/journal"
	"github.com/jcmexdev/coffee-sagas/internal/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
)

// instanceHost is the Host handed to a single workflow run. It binds step
// dispatch to the instance's order identifier for journaling.
type instanceHost struct {
	inst *Instance
}

// Dispatch resolves one step: replayed from the journal if its outcome is
// already recorded, otherwise executed with per-attempt timeout and
// exponential backoff. The outcome — success or terminal failure — is
// journaled once, after the last attempt, so a crash mid-step re-runs the
// step (at-least-once) while a crash after the checkpoint replays it for
// free.
func (h *instanceHost) Dispatch(ctx context.Context, step Step, policy RetryPolicy, timeout time.Duration) error {
	orderID := h.inst.orderID
	repo := h.inst.engine.journal

	if repo != nil {
		prior, err := repo.StepOutcome(ctx, orderID, step.Name())
		if err != nil {
			return fmt.Errorf("engine: read journal for step %q: %w", step.Name(), err)
		}
		if prior != nil {
			slog.InfoContext(ctx, "replaying journaled step outcome",
				"order_id", orderID, "step", step.Name(), "status", prior.Status)
			if prior.Status == journal.StatusStepOK {
				return nil
			}
			return fmt.Errorf("%w: step %q (journaled): %s", ErrStepFailed, step.Name(), prior.Error)
		}
	}

	ctx, span := tracer.Start(ctx, "step."+step.Name())
	span.SetAttributes(attribute.String("order_id", orderID))
	defer span.End()

	policy = policy.withDefaults()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var lastErr error
	interval := policy.InitialInterval

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = h.execute(ctx, step, timeout)
		if lastErr == nil {
			metrics.StepAttempts.WithLabelValues(step.Name(), "ok").Inc()
			span.SetAttributes(attribute.Int("attempts", attempt))
			return h.record(ctx, step, journal.StatusStepOK, "")
		}

		metrics.StepAttempts.WithLabelValues(step.Name(), "error").Inc()
		slog.WarnContext(ctx, "step attempt failed",
			"order_id", orderID, "step", step.Name(), "attempt", attempt, "error", lastErr)

		if IsNonRetryable(lastErr) || attempt == policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		interval = time.Duration(float64(interval) * policy.BackoffCoefficient)
	}

	failure := fmt.Errorf("%w: step %q: %w", ErrStepFailed, step.Name(), lastErr)
	if err := h.record(ctx, step, journal.StatusStepFailed, lastErr.Error()); err != nil {
		return err
	}
	return failure
}

// execute runs a single attempt bounded by the per-attempt timeout.
// Exceeding the timeout counts as a failed attempt like any other.
func (h *instanceHost) execute(ctx context.Context, step Step, timeout time.Duration) error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return step.Execute(attemptCtx)
}

// record checkpoints the step's final outcome.
func (h *instanceHost) record(ctx context.Context, step Step, status journal.Status, errMsg string) error {
	repo := h.inst.engine.journal
	if repo == nil {
		return nil
	}
	entry := journal.NewEntry(ctx, h.inst.orderID, status, step.Name(), "", errMsg)
	if err := repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("engine: checkpoint step %q: %w", step.Name(), err)
	}
	return nil
}
