package event

import (
	"context"
	"testing"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

// mockHandler implements EventHandler for testing
type mockHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
}

func newMockHandler(eventTypes ...string) *mockHandler {
	return &mockHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

func (h *mockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.handled = append(h.handled, event)
	return nil
}

func (h *mockHandler) EventTypes() []string {
	return h.eventTypes
}

// assertHandlers asserts exactly the given handlers are returned for an event type.
func assertHandlers(t *testing.T, registry *HandlerRegistry, eventType string, want ...shared.EventHandler) {
	t.Helper()
	got := registry.GetHandlers(eventType)
	assert.Len(t, got, len(want))
	for _, h := range want {
		assert.Contains(t, got, h)
	}
}

func TestHandlerRegistry(t *testing.T) {
	t.Run("registers for specific types only", func(t *testing.T) {
		registry := NewHandlerRegistry()
		handler := newMockHandler("document.issued", "document.status_changed")

		registry.Register(handler, "document.issued", "document.status_changed")

		assertHandlers(t, registry, "document.issued", handler)
		assertHandlers(t, registry, "document.status_changed", handler)
		assertHandlers(t, registry, "purchase_order.created")
	})

	t.Run("no types registers a wildcard handler", func(t *testing.T) {
		registry := NewHandlerRegistry()
		handler := newMockHandler()

		registry.Register(handler)

		assertHandlers(t, registry, "document.issued", handler)
		assertHandlers(t, registry, "anything.else", handler)
	})

	t.Run("wildcard handlers are appended to type-specific ones", func(t *testing.T) {
		registry := NewHandlerRegistry()
		specific := newMockHandler("document.issued")
		wildcard := newMockHandler()

		registry.Register(specific, "document.issued")
		registry.Register(wildcard)

		assertHandlers(t, registry, "document.issued", specific, wildcard)
		assertHandlers(t, registry, "party.created", wildcard)
	})

	t.Run("unregister removes only the given handler", func(t *testing.T) {
		registry := NewHandlerRegistry()
		keep := newMockHandler("document.issued")
		drop := newMockHandler("document.issued")

		registry.Register(drop, "document.issued")
		registry.Register(keep, "document.issued")
		assertHandlers(t, registry, "document.issued", keep, drop)

		registry.Unregister(drop)

		assertHandlers(t, registry, "document.issued", keep)
	})

	t.Run("unregister removes wildcard handlers too", func(t *testing.T) {
		registry := NewHandlerRegistry()
		wildcard := newMockHandler()

		registry.Register(wildcard)
		assertHandlers(t, registry, "party.created", wildcard)

		registry.Unregister(wildcard)

		assertHandlers(t, registry, "party.created")
	})

	t.Run("unregistering an unknown handler is a no-op", func(t *testing.T) {
		registry := NewHandlerRegistry()
		handler := newMockHandler("document.issued")
		registry.Register(handler, "document.issued")

		registry.Unregister(newMockHandler("document.issued"))

		assertHandlers(t, registry, "document.issued", handler)
	})
}

func TestHandlerRegistry_GetAllHandlers(t *testing.T) {
	t.Run("includes specific and wildcard handlers", func(t *testing.T) {
		registry := NewHandlerRegistry()
		registry.Register(newMockHandler("document.issued"), "document.issued")
		registry.Register(newMockHandler("party.created"), "party.created")
		registry.Register(newMockHandler())

		assert.Len(t, registry.GetAllHandlers(), 3)
	})

	t.Run("a handler registered for several types appears once", func(t *testing.T) {
		registry := NewHandlerRegistry()
		handler := newMockHandler("document.issued", "document.status_changed")

		registry.Register(handler, "document.issued", "document.status_changed")

		assert.Len(t, registry.GetAllHandlers(), 1)
	})
}

func TestHandlerRegistry_EventTypes(t *testing.T) {
	registry := NewHandlerRegistry()

	assert.Empty(t, registry.EventTypes())

	registry.Register(newMockHandler(), "party.created", "document.issued")
	registry.Register(newMockHandler()) // wildcard, not listed

	assert.Equal(t, []string{"document.issued", "party.created"}, registry.EventTypes())
}
