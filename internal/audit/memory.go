package audit

import (
	"context"
	"slices"
	"sync"
)

// Memory collects events in-process. Used in tests and as the fallback
// sink when no broker is configured.
type Memory struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Emit(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stamp(event))
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (m *Memory) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.events)
}
