package journal

import (
	"context"
	"sync"
)

// Memory is an in-memory Repository for tests and for running the server
// without durability. It applies the same append-only discipline as the
// SQLite implementation.
type Memory struct {
	mu      sync.Mutex
	entries []*Entry
}

// NewMemory returns an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *Memory) StepOutcome(_ context.Context, orderID, step string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.OrderID != orderID || e.Step != step {
			continue
		}
		if e.Status == StatusStepOK || e.Status == StatusStepFailed {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) Latest(_ context.Context, orderID string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].OrderID == orderID {
			cp := *m.entries[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) OpenOrders(_ context.Context) ([]*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	terminal := make(map[string]bool)
	for _, e := range m.entries {
		if e.Status.Terminal() {
			terminal[e.OrderID] = true
		}
	}

	var open []*Entry
	for _, e := range m.entries {
		if e.Status == StatusStarted && !terminal[e.OrderID] {
			cp := *e
			open = append(open, &cp)
		}
	}
	return open, nil
}

// Entries returns a copy of everything appended so far, in order. Test helper.
func (m *Memory) Entries() []*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Entry, len(m.entries))
	for i, e := range m.entries {
		cp := *e
		out[i] = &cp
	}
	return out
}
