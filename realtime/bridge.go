package realtime

import (
	"context"
	"sync"

	"github.com/valentinmtg/video-portfolio-backend/store"
)

// ChangeSource yields writes performed by other instances sharing the store.
// store.RedisKV implements it; the in-memory store has no cross-process
// notifications and runs without a bridge.
type ChangeSource interface {
	Changes(ctx context.Context) <-chan store.Change
}

// StorageBridge forwards cross-process change notifications onto the local
// broadcaster as storageChanged events, so the listener treats a write from
// another instance exactly like a local one.
type StorageBridge struct {
	source ChangeSource
	bus    *Broadcaster

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewStorageBridge(source ChangeSource, bus *Broadcaster) *StorageBridge {
	return &StorageBridge{source: source, bus: bus}
}

func (b *StorageBridge) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		return
	}

	bridgeCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	done := make(chan struct{})
	b.done = done
	changes := b.source.Changes(bridgeCtx)

	go func() {
		defer close(done)
		for change := range changes {
			b.bus.Publish(Event{
				Type:     EventStorageChanged,
				Key:      change.Key,
				NewValue: change.NewValue,
			})
		}
	}()
}

func (b *StorageBridge) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	done := b.done
	b.cancel = nil
	b.done = nil
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
