package realtime

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valentinmtg/video-portfolio-backend/store"
)

func TestSyncServiceStampUpdate(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	bus := NewBroadcaster()
	service := NewSyncService(kv, bus, DefaultPollInterval)

	events, cancel := bus.Subscribe(EventSyncUpdate)
	defer cancel()

	timestamp := service.StampUpdate(ctx)

	raw, err := kv.Get(ctx, store.KeyLastUpdate)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(timestamp, 10), raw)

	// The service must not re-notify itself for its own write.
	service.CheckForUpdates(ctx)
	select {
	case event := <-events:
		t.Fatalf("unexpected self-notification: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSyncServiceDetectsForeignWrite(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	bus := NewBroadcaster()
	service := NewSyncService(kv, bus, DefaultPollInterval)

	events, cancel := bus.Subscribe(EventSyncUpdate)
	defer cancel()

	// Another instance advances the marker.
	foreign := time.Now().Add(time.Second).UnixMilli()
	require.NoError(t, kv.Set(ctx, store.KeyLastUpdate, strconv.FormatInt(foreign, 10)))

	service.CheckForUpdates(ctx)

	select {
	case event := <-events:
		assert.Equal(t, EventSyncUpdate, event.Type)
		assert.Equal(t, foreign, event.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("expected sync event")
	}

	// A second check with the same marker must not fire again.
	service.CheckForUpdates(ctx)
	select {
	case event := <-events:
		t.Fatalf("unexpected repeat notification: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSyncServiceMalformedMarker(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	bus := NewBroadcaster()
	service := NewSyncService(kv, bus, DefaultPollInterval)

	events, cancel := bus.Subscribe(EventSyncUpdate)
	defer cancel()

	require.NoError(t, kv.Set(ctx, store.KeyLastUpdate, "definitely not a timestamp"))

	service.CheckForUpdates(ctx)

	select {
	case event := <-events:
		t.Fatalf("malformed marker must never trigger, got %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSyncServicePollingLifecycle(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	bus := NewBroadcaster()
	service := NewSyncService(kv, bus, 10*time.Millisecond)

	events, cancel := bus.Subscribe(EventSyncUpdate)
	defer cancel()

	service.Start(ctx)
	service.Start(ctx) // idempotent
	defer service.Stop()

	foreign := time.Now().Add(time.Second).UnixMilli()
	require.NoError(t, kv.Set(ctx, store.KeyLastUpdate, strconv.FormatInt(foreign, 10)))

	select {
	case event := <-events:
		assert.Equal(t, foreign, event.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("polling loop never noticed the marker advance")
	}

	service.Stop()
	service.Stop() // safe when not running
}
