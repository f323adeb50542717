package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jcmexdev/coffee-sagas/internal/domain"
	"github.com/jcmexdev/coffee-sagas/internal/engine"
	"github.com/jcmexdev/coffee-sagas/internal/engine/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStep is a scripted executor: fails the first failFirst attempts, or
// always, optionally with the non-retryable marker.
type fakeStep struct {
	name         string
	failFirst    int
	alwaysFail   bool
	nonRetryable bool

	mu    sync.Mutex
	calls int
}

func (s *fakeStep) Name() string { return s.name }

func (s *fakeStep) Execute(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.alwaysFail || s.calls <= s.failFirst {
		err := errors.New("boom")
		if s.nonRetryable {
			return engine.NonRetryable(err)
		}
		return err
	}
	return nil
}

func (s *fakeStep) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// probeWorkflow drives a fixed step list through the host and records the
// dispatch errors, so tests can exercise the engine without the real order
// state machine.
type probeWorkflow struct {
	req     domain.OrderRequest
	steps   []engine.Step
	policy  engine.RetryPolicy
	timeout time.Duration

	mu   sync.Mutex
	errs []error
}

func (p *probeWorkflow) Run(ctx context.Context, host engine.Host) domain.OrderResult {
	status := domain.StatusCompleted
	for _, s := range p.steps {
		err := host.Dispatch(ctx, s, p.policy, p.timeout)
		p.mu.Lock()
		p.errs = append(p.errs, err)
		p.mu.Unlock()
		if err != nil {
			status = domain.StatusFailed
			break
		}
	}
	return domain.OrderResult{OrderID: p.req.OrderID, Status: status}
}

func (p *probeWorkflow) Cancel() {}

func (p *probeWorkflow) Status() domain.StatusSnapshot {
	return domain.StatusSnapshot{OrderID: p.req.OrderID}
}

func (p *probeWorkflow) dispatchErrs() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.errs...)
}

func fastPolicy() engine.RetryPolicy {
	return engine.RetryPolicy{MaxAttempts: 5, InitialInterval: time.Millisecond, BackoffCoefficient: 2.0}
}

func newProbeEngine(probe *probeWorkflow, repo journal.Repository) *engine.Engine {
	return engine.New(func(req domain.OrderRequest) engine.Workflow {
		probe.req = req
		return probe
	}, repo)
}

func validRequest(id string) domain.OrderRequest {
	return domain.OrderRequest{OrderID: id, Drink: "espresso", Size: domain.SizeS}
}

func TestDispatchRetriesUntilCap(t *testing.T) {
	step := &fakeStep{name: "brew", alwaysFail: true}
	probe := &probeWorkflow{steps: []engine.Step{step}, policy: fastPolicy(), timeout: time.Second}
	eng := newProbeEngine(probe, journal.NewMemory())

	start := time.Now()
	inst, err := eng.StartOrder(context.Background(), validRequest("retry-cap"))
	require.NoError(t, err)

	res, err := inst.Result(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, 5, step.Calls(), "always-failing step must be attempted exactly MaxAttempts times")

	// Backoff delays are 1, 2, 4, 8 units between the five attempts.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)

	errs := probe.dispatchErrs()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], engine.ErrStepFailed)
}

func TestDispatchSucceedsAfterTransientFailures(t *testing.T) {
	step := &fakeStep{name: "brew", failFirst: 2}
	probe := &probeWorkflow{steps: []engine.Step{step}, policy: fastPolicy(), timeout: time.Second}
	eng := newProbeEngine(probe, journal.NewMemory())

	inst, err := eng.StartOrder(context.Background(), validRequest("retry-recovers"))
	require.NoError(t, err)

	res, err := inst.Result(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Equal(t, 3, step.Calls())
}

func TestDispatchNonRetryableSkipsRemainingAttempts(t *testing.T) {
	step := &fakeStep{name: "charge", alwaysFail: true, nonRetryable: true}
	probe := &probeWorkflow{steps: []engine.Step{step}, policy: fastPolicy(), timeout: time.Second}
	eng := newProbeEngine(probe, journal.NewMemory())

	inst, err := eng.StartOrder(context.Background(), validRequest("non-retryable"))
	require.NoError(t, err)

	res, err := inst.Result(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, 1, step.Calls())
}

func TestStepTimeoutCountsAsFailedAttempt(t *testing.T) {
	step := &blockingStep{name: "brew", block: 50 * time.Millisecond}
	probe := &probeWorkflow{
		steps:   []engine.Step{step},
		policy:  engine.RetryPolicy{MaxAttempts: 2, InitialInterval: time.Millisecond, BackoffCoefficient: 2.0},
		timeout: 5 * time.Millisecond,
	}
	eng := newProbeEngine(probe, nil)

	inst, err := eng.StartOrder(context.Background(), validRequest("timeout"))
	require.NoError(t, err)

	res, err := inst.Result(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, 2, step.Calls())
}

// blockingStep honors the attempt context, so each attempt fails with the
// per-attempt timeout instead of completing.
type blockingStep struct {
	name  string
	block time.Duration

	mu    sync.Mutex
	calls int
}

func (s *blockingStep) Name() string { return s.name }

func (s *blockingStep) Execute(ctx context.Context) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.block):
		return nil
	}
}

func (s *blockingStep) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestStartOrderRejectsDuplicateID(t *testing.T) {
	step := &fakeStep{name: "charge"}
	probe := &probeWorkflow{steps: []engine.Step{step}, policy: fastPolicy(), timeout: time.Second}
	eng := newProbeEngine(probe, journal.NewMemory())

	inst, err := eng.StartOrder(context.Background(), validRequest("dup"))
	require.NoError(t, err)

	_, err = eng.StartOrder(context.Background(), validRequest("dup"))
	assert.ErrorIs(t, err, engine.ErrDuplicateOrder)

	// The original instance is unaffected.
	res, err := inst.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, res.Status)

	// Terminal instances keep owning the identifier.
	_, err = eng.StartOrder(context.Background(), validRequest("dup"))
	assert.ErrorIs(t, err, engine.ErrDuplicateOrder)
}

func TestStartOrderValidatesRequest(t *testing.T) {
	probe := &probeWorkflow{policy: fastPolicy(), timeout: time.Second}
	eng := newProbeEngine(probe, nil)

	_, err := eng.StartOrder(context.Background(), domain.OrderRequest{Drink: "latte", Size: domain.SizeM})
	assert.ErrorIs(t, err, domain.ErrEmptyOrderID)

	_, err = eng.StartOrder(context.Background(), domain.OrderRequest{OrderID: "1", Size: domain.SizeM})
	assert.ErrorIs(t, err, domain.ErrEmptyDrink)
}

func TestResultIsIdempotent(t *testing.T) {
	step := &fakeStep{name: "charge"}
	probe := &probeWorkflow{steps: []engine.Step{step}, policy: fastPolicy(), timeout: time.Second}
	eng := newProbeEngine(probe, journal.NewMemory())

	inst, err := eng.StartOrder(context.Background(), validRequest("idem"))
	require.NoError(t, err)

	first, err := inst.Result(context.Background())
	require.NoError(t, err)
	for range 3 {
		again, err := inst.Result(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDispatchReplaysJournaledOutcome(t *testing.T) {
	repo := journal.NewMemory()
	ctx := context.Background()

	// A previous run already recorded the charge outcome.
	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "replay", journal.StatusStepOK, "charge", "", "")))

	step := &fakeStep{name: "charge"}
	probe := &probeWorkflow{steps: []engine.Step{step}, policy: fastPolicy(), timeout: time.Second}
	eng := newProbeEngine(probe, repo)

	inst, err := eng.StartOrder(ctx, validRequest("replay"))
	require.NoError(t, err)

	res, err := inst.Result(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Equal(t, 0, step.Calls(), "journaled step must not be re-executed")
}

func TestDispatchReplaysJournaledFailure(t *testing.T) {
	repo := journal.NewMemory()
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "replay-fail", journal.StatusStepFailed, "charge", "", "boom")))

	step := &fakeStep{name: "charge"}
	probe := &probeWorkflow{steps: []engine.Step{step}, policy: fastPolicy(), timeout: time.Second}
	eng := newProbeEngine(probe, repo)

	inst, err := eng.StartOrder(ctx, validRequest("replay-fail"))
	require.NoError(t, err)

	res, err := inst.Result(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, 0, step.Calls())
}

func TestResumeRedrivesOpenOrders(t *testing.T) {
	repo := journal.NewMemory()
	ctx := context.Background()

	// Crash left one order STARTED with its charge already checkpointed.
	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "resume-1", journal.StatusStarted, "",
		`{"order_id":"resume-1","drink":"espresso","size":"S"}`, "")))
	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "resume-1", journal.StatusStepOK, "charge", "", "")))

	charge := &fakeStep{name: "charge"}
	notify := &fakeStep{name: "notify"}
	probe := &probeWorkflow{steps: []engine.Step{charge, notify}, policy: fastPolicy(), timeout: time.Second}
	eng := newProbeEngine(probe, repo)

	resumed, err := eng.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, resumed)

	inst, ok := eng.Instance("resume-1")
	require.True(t, ok)

	res, err := inst.Result(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Equal(t, 0, charge.Calls(), "checkpointed step must be replayed, not re-run")
	assert.Equal(t, 1, notify.Calls())

	// The order is now terminal; a second resume finds nothing open.
	resumed, err = eng.Resume(ctx)
	require.NoError(t, err)
	assert.Zero(t, resumed)
}

func TestJournalRecordsLifecycle(t *testing.T) {
	repo := journal.NewMemory()
	step := &fakeStep{name: "charge", failFirst: 1}
	probe := &probeWorkflow{steps: []engine.Step{step}, policy: fastPolicy(), timeout: time.Second}
	eng := newProbeEngine(probe, repo)

	inst, err := eng.StartOrder(context.Background(), validRequest("lifecycle"))
	require.NoError(t, err)
	_, err = inst.Result(context.Background())
	require.NoError(t, err)

	var statuses []journal.Status
	for _, e := range repo.Entries() {
		statuses = append(statuses, e.Status)
	}
	// One outcome row per step regardless of attempts, then the terminal row.
	assert.Equal(t, []journal.Status{journal.StatusStarted, journal.StatusStepOK, journal.StatusCompleted}, statuses)
}
