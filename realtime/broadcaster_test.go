package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster(t *testing.T) {
	t.Run("delivers to matching subscribers", func(t *testing.T) {
		bus := NewBroadcaster()
		events, cancel := bus.Subscribe(EventAdminLogin)
		defer cancel()

		bus.Publish(Event{Type: EventAdminLogin, Username: "admin"})

		select {
		case event := <-events:
			assert.Equal(t, EventAdminLogin, event.Type)
			assert.Equal(t, "admin", event.Username)
		case <-time.After(time.Second):
			t.Fatal("expected event")
		}
	})

	t.Run("filters out other event types", func(t *testing.T) {
		bus := NewBroadcaster()
		events, cancel := bus.Subscribe(EventAdminLogout)
		defer cancel()

		bus.Publish(Event{Type: EventAdminLogin, Username: "admin"})

		select {
		case event := <-events:
			t.Fatalf("unexpected event: %+v", event)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("empty type list receives everything", func(t *testing.T) {
		bus := NewBroadcaster()
		events, cancel := bus.Subscribe()
		defer cancel()

		bus.Publish(Event{Type: EventSyncUpdate, Timestamp: 42})

		select {
		case event := <-events:
			assert.Equal(t, EventSyncUpdate, event.Type)
		case <-time.After(time.Second):
			t.Fatal("expected event")
		}
	})

	t.Run("publish without subscribers does not block", func(t *testing.T) {
		bus := NewBroadcaster()
		bus.Publish(Event{Type: EventAdminLogout})
	})

	t.Run("cancel closes the channel and is idempotent", func(t *testing.T) {
		bus := NewBroadcaster()
		events, cancel := bus.Subscribe(EventAdminLogin)

		cancel()
		cancel()

		_, open := <-events
		require.False(t, open)

		// Publishing after cancel must not panic on the closed channel.
		bus.Publish(Event{Type: EventAdminLogin})
	})

	t.Run("slow subscriber drops events instead of blocking", func(t *testing.T) {
		bus := NewBroadcaster()
		_, cancel := bus.Subscribe(EventProjectsUpdated)
		defer cancel()

		// Buffer is 16; publishing more must return regardless.
		for i := 0; i < 50; i++ {
			bus.Publish(Event{Type: EventProjectsUpdated, Timestamp: int64(i)})
		}
	})
}
