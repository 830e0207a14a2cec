package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/valentinmtg/video-portfolio-backend/models"
	"github.com/valentinmtg/video-portfolio-backend/store"
)

// ProjectSink is the consumer kept consistent by the listener. The repository
// implements it.
type ProjectSink interface {
	Replace(projects []models.Project)
}

// Listener keeps a ProjectSink consistent with the latest write regardless of
// which instance produced it. It reacts to three signals:
//
//   - projectsUpdated: in-process write, list carried inline.
//   - storageChanged: write notification for the projects key, serialized
//     list carried as the new value.
//   - projectsSyncUpdate: marker advance detected by the sync poll; the list
//     is re-read from the store.
//
// All paths replace the in-memory list wholesale. Last write observed wins;
// malformed payloads are logged and discarded, prior state retained.
type Listener struct {
	kv     store.KV
	bus    *Broadcaster
	sink   ProjectSink
	logger zerolog.Logger

	mu     sync.Mutex
	cancel func()
	done   chan struct{}
}

func NewListener(kv store.KV, bus *Broadcaster, sink ProjectSink) *Listener {
	return &Listener{
		kv:     kv,
		bus:    bus,
		sink:   sink,
		logger: log.With().Str("component", "crossTabListener").Logger(),
	}
}

// Start subscribes to the broadcast signals. Idempotent while running.
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return
	}

	events, unsubscribe := l.bus.Subscribe(EventProjectsUpdated, EventStorageChanged, EventSyncUpdate)
	listenCtx, cancelCtx := context.WithCancel(ctx)
	l.cancel = func() {
		cancelCtx()
		unsubscribe()
	}
	l.done = make(chan struct{})

	go l.listen(listenCtx, events, l.done)
}

// Stop unsubscribes and waits for the listen loop to exit.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	done := l.done
	l.cancel = nil
	l.done = nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (l *Listener) listen(ctx context.Context, events <-chan Event, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			l.handle(ctx, event)
		}
	}
}

func (l *Listener) handle(ctx context.Context, event Event) {
	switch event.Type {
	case EventProjectsUpdated:
		if event.Projects == nil {
			l.logger.Warn().Msg("projectsUpdated event without project list, discarding")
			return
		}
		l.sink.Replace(event.Projects)

	case EventStorageChanged:
		if event.Key != store.KeyProjects {
			return
		}
		l.applySerialized(event.NewValue)

	case EventSyncUpdate:
		raw, err := l.kv.Get(ctx, store.KeyProjects)
		if err != nil {
			if err != store.ErrKeyNotFound {
				l.logger.Error().Err(err).Msg("failed to re-read projects after sync signal")
			}
			return
		}
		l.applySerialized(raw)
	}
}

func (l *Listener) applySerialized(raw string) {
	var projects []models.Project
	if err := json.Unmarshal([]byte(raw), &projects); err != nil {
		l.logger.Error().Err(err).Msg("discarding malformed project list payload")
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	l.sink.Replace(projects)
}
