// Package sqlite provides a SQLite-backed implementation of
// journal.Repository.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa — the engine goroutines write while the HTTP status endpoint may be
// reading.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/coffee-sagas/internal/engine/journal"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// which keeps cross-compilation and Alpine images simple.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. The table is append-only:
// each row is an immutable checkpoint in an order's lifecycle.
const schema = `
CREATE TABLE IF NOT EXISTS order_journal (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Business identifier of the order. Not UNIQUE: one row per checkpoint.
    order_id    TEXT NOT NULL,

    -- Checkpoint kind: STARTED, STEP_OK, STEP_FAILED, COMPLETED, FAILED,
    -- CANCELLED.
    status      TEXT NOT NULL,

    -- Step name for STEP_* rows, empty otherwise.
    step        TEXT NOT NULL DEFAULT '',

    -- JSON request payload. Written once on STARTED, NULL after.
    payload     TEXT,

    -- Failure message for STEP_FAILED rows.
    error       TEXT NOT NULL DEFAULT '',

    -- W3C trace/span IDs of the OTel span active at write time.
    trace_id    TEXT NOT NULL DEFAULT '',
    span_id     TEXT NOT NULL DEFAULT '',

    -- RFC3339 wall-clock timestamp stored as TEXT (SQLite idiom).
    recorded_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_journal_order_id ON order_journal(order_id, id);
CREATE INDEX IF NOT EXISTS idx_order_journal_trace_id ON order_journal(trace_id);
`

// Repository is the SQLite implementation of journal.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema.
//
//	repo, err := sqlite.Open("./data/orders.db")
func Open(path string) (*Repository, error) {
	// The pure-Go driver takes pragmas as query parameters. WAL enables
	// concurrent readers; busy_timeout waits for locks instead of failing.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (r *Repository) Close() error {
	return r.db.Close()
}

// Append inserts a new journal entry. Safe for concurrent use.
func (r *Repository) Append(ctx context.Context, entry *journal.Entry) error {
	const q = `
		INSERT INTO order_journal
			(order_id, status, step, payload, error, trace_id, span_id, recorded_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.OrderID,
		string(entry.Status),
		entry.Step,
		nullableString(entry.Payload),
		entry.Error,
		entry.TraceID,
		entry.SpanID,
		formatRFC3339(entry.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append journal entry for %q: %w", entry.OrderID, err)
	}
	return nil
}

// StepOutcome returns the recorded outcome for (orderID, step), nil if none.
func (r *Repository) StepOutcome(ctx context.Context, orderID, step string) (*journal.Entry, error) {
	const q = `
		SELECT order_id, status, step, COALESCE(payload,''), error, trace_id, span_id, recorded_at
		FROM   order_journal
		WHERE  order_id = ? AND step = ? AND status IN ('STEP_OK', 'STEP_FAILED')
		ORDER  BY id DESC
		LIMIT  1`

	entry, err := r.scanOne(r.db.QueryRowContext(ctx, q, orderID, step))
	if err != nil {
		return nil, fmt.Errorf("sqlite: step outcome for %q/%q: %w", orderID, step, err)
	}
	return entry, nil
}

// Latest returns the most recent entry for an order, nil when unknown.
func (r *Repository) Latest(ctx context.Context, orderID string) (*journal.Entry, error) {
	const q = `
		SELECT order_id, status, step, COALESCE(payload,''), error, trace_id, span_id, recorded_at
		FROM   order_journal
		WHERE  order_id = ?
		ORDER  BY id DESC
		LIMIT  1`

	entry, err := r.scanOne(r.db.QueryRowContext(ctx, q, orderID))
	if err != nil {
		return nil, fmt.Errorf("sqlite: latest entry for %q: %w", orderID, err)
	}
	return entry, nil
}

// OpenOrders returns the STARTED entries of orders without a terminal row.
func (r *Repository) OpenOrders(ctx context.Context) ([]*journal.Entry, error) {
	const q = `
		SELECT s.order_id, s.status, s.step, COALESCE(s.payload,''), s.error,
		       s.trace_id, s.span_id, s.recorded_at
		FROM   order_journal s
		WHERE  s.status = 'STARTED'
		  AND  NOT EXISTS (
		         SELECT 1 FROM order_journal t
		         WHERE  t.order_id = s.order_id
		           AND  t.status IN ('COMPLETED', 'FAILED', 'CANCELLED'))
		ORDER  BY s.id`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open orders: %w", err)
	}
	defer rows.Close()

	var open []*journal.Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: open orders: %w", err)
		}
		open = append(open, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: open orders: %w", err)
	}
	return open, nil
}

func (r *Repository) scanOne(row *sql.Row) (*journal.Entry, error) {
	entry, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entry, err
}

func scanEntry(scan func(dest ...any) error) (*journal.Entry, error) {
	var entry journal.Entry
	var recordedAt string
	err := scan(
		&entry.OrderID,
		&entry.Status,
		&entry.Step,
		&entry.Payload,
		&entry.Error,
		&entry.TraceID,
		&entry.SpanID,
		&recordedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.RecordedAt, err = parseRFC3339(recordedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// nullableString returns nil for empty strings so SQLite stores NULL instead
// of an empty TEXT on non-STARTED rows.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
