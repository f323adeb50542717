package journal_test

import (
	"context"
	"testing"

	"github.com/jcmexdev/coffee-sagas/internal/engine/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStepOutcome(t *testing.T) {
	repo := journal.NewMemory()
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "1", journal.StatusStarted, "", "{}", "")))

	out, err := repo.StepOutcome(ctx, "1", "charge")
	require.NoError(t, err)
	assert.Nil(t, out, "no outcome recorded yet")

	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "1", journal.StatusStepOK, "charge", "", "")))
	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "1", journal.StatusStepFailed, "brew", "", "jammed")))

	out, err = repo.StepOutcome(ctx, "1", "charge")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, journal.StatusStepOK, out.Status)

	out, err = repo.StepOutcome(ctx, "1", "brew")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, journal.StatusStepFailed, out.Status)
	assert.Equal(t, "jammed", out.Error)

	// Outcomes are scoped per order.
	out, err = repo.StepOutcome(ctx, "2", "charge")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestMemoryLatest(t *testing.T) {
	repo := journal.NewMemory()
	ctx := context.Background()

	latest, err := repo.Latest(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "1", journal.StatusStarted, "", "{}", "")))
	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "1", journal.StatusStepOK, "charge", "", "")))

	latest, err = repo.Latest(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, journal.StatusStepOK, latest.Status)
	assert.Equal(t, "charge", latest.Step)
}

func TestMemoryOpenOrders(t *testing.T) {
	repo := journal.NewMemory()
	ctx := context.Background()

	// Order 1 terminated, order 2 is still open, order 3 was cancelled.
	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "1", journal.StatusStarted, "", "{}", "")))
	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "1", journal.StatusCompleted, "", "", "")))
	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "2", journal.StatusStarted, "", "{}", "")))
	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "2", journal.StatusStepOK, "charge", "", "")))
	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "3", journal.StatusStarted, "", "{}", "")))
	require.NoError(t, repo.Append(ctx, journal.NewEntry(ctx, "3", journal.StatusCancelled, "", "", "")))

	open, err := repo.OpenOrders(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "2", open[0].OrderID)
	assert.Equal(t, journal.StatusStarted, open[0].Status)
	assert.Equal(t, "{}", open[0].Payload)
}

func TestStatusTerminal(t *testing.T) {
	terminal := []journal.Status{journal.StatusCompleted, journal.StatusFailed, journal.StatusCancelled}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "%s", s)
	}
	open := []journal.Status{journal.StatusStarted, journal.StatusStepOK, journal.StatusStepFailed}
	for _, s := range open {
		assert.False(t, s.Terminal(), "%s", s)
	}
}
