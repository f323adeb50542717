package journal

import "context"

// Repository is the port for persisting and reading journal entries. The
// engine depends on this abstraction, not on SQLite directly, so the
// implementation can be swapped for Postgres or in-memory (tests).
type Repository interface {
	// Append persists a new entry. The journal is append-only; entries are
	// never updated or deleted.
	Append(ctx context.Context, entry *Entry) error

	// StepOutcome returns the recorded outcome (STEP_OK or STEP_FAILED) for
	// the given order and step, or nil when none has been recorded yet.
	StepOutcome(ctx context.Context, orderID, step string) (*Entry, error)

	// Latest returns the most recent entry for an order, or nil when the
	// order is unknown. Useful for status inspection of finished history.
	Latest(ctx context.Context, orderID string) (*Entry, error)

	// OpenOrders returns the STARTED entries of every order that has no
	// terminal entry yet — the orders the engine must re-drive on restart.
	OpenOrders(ctx context.Context) ([]*Entry, error)
}
