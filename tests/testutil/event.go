// Package testutil provides common test utilities for the back office backend.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/backoffice/backend/internal/domain/shared"
)

// MockEventHandler records every event it receives so tests can assert on
// delivery. The optional error lets tests drive the publisher's failure path.
type MockEventHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewMockEventHandler returns a handler subscribed to the given event types.
// With no types it relies on the subscriber passing types explicitly.
func NewMockEventHandler(eventTypes ...string) *MockEventHandler {
	return &MockEventHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

func (h *MockEventHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of the events received so far.
func (h *MockEventHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]shared.DomainEvent, len(h.handled))
	copy(result, h.handled)
	return result
}

// HandledCount returns how many events the handler has received.
func (h *MockEventHandler) HandledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// SetError makes subsequent Handle calls return err.
func (h *MockEventHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// Reset forgets all received events and clears the injected error.
func (h *MockEventHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = make([]shared.DomainEvent, 0)
	h.err = nil
}

var _ shared.EventHandler = (*MockEventHandler)(nil)

// StubEvent is a minimal domain event for bus and handler tests.
type StubEvent struct {
	shared.BaseDomainEvent
	Payload string
}

// NewStubEvent builds a stub event with a random event ID.
func NewStubEvent(eventType string, aggregateID uuid.UUID) *StubEvent {
	return NewStubEventWithID(uuid.New(), eventType, aggregateID)
}

// NewStubEventWithID builds a stub event with a caller-chosen event ID,
// for tests that assert on event identity.
func NewStubEventWithID(eventID uuid.UUID, eventType string, aggregateID uuid.UUID) *StubEvent {
	return &StubEvent{
		BaseDomainEvent: shared.BaseDomainEvent{
			ID:        eventID,
			Type:      eventType,
			Timestamp: time.Now(),
			AggID:     aggregateID,
			AggType:   "Party",
		},
		Payload: "stub-payload",
	}
}

// WaitForCondition polls condition until it holds or the timeout elapses.
func WaitForCondition(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()
	return waitFor(condition, timeout, interval)
}

// WaitForEventCount waits until the handler has received at least count events.
func WaitForEventCount(t *testing.T, handler *MockEventHandler, count int, timeout time.Duration) bool {
	t.Helper()
	return waitFor(func() bool {
		return handler.HandledCount() >= count
	}, timeout, 10*time.Millisecond)
}
