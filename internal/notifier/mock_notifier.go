package notifier

import (
	"context"
	"sync"
)

// MockNotifier records events instead of publishing them.
type MockNotifier struct {
	mu     sync.RWMutex
	events []SeatEvent
	err    error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{events: make([]SeatEvent, 0)}
}

func (m *MockNotifier) Notify(_ context.Context, event SeatEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

// FailWith makes every subsequent Notify call return err.
func (m *MockNotifier) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockNotifier) Events() []SeatEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]SeatEvent, len(m.events))
	copy(events, m.events)
	return events
}
