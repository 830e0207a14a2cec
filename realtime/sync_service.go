package realtime

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/valentinmtg/video-portfolio-backend/store"
)

// DefaultPollInterval matches the 2-second cadence of the original sync loop.
const DefaultPollInterval = 2 * time.Second

// SyncService watches the shared store's last-update marker and publishes a
// projectsSyncUpdate event whenever it observes a marker it did not stamp
// itself. One instance per process, constructed at startup and injected.
type SyncService struct {
	kv       store.KV
	bus      *Broadcaster
	interval time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	lastSeen int64
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSyncService(kv store.KV, bus *Broadcaster, interval time.Duration) *SyncService {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &SyncService{
		kv:       kv,
		bus:      bus,
		interval: interval,
		logger:   log.With().Str("component", "syncService").Logger(),
	}
}

// Start begins polling the marker. Calling Start on a running service is a
// no-op.
func (s *SyncService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.poll(pollCtx, s.done)
}

// Stop cancels the polling loop and waits for it to exit. Safe to call when
// not running.
func (s *SyncService) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *SyncService) poll(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckForUpdates(ctx)
		}
	}
}

// StampUpdate writes the current wall-clock time to the marker and records it
// locally so the service never notifies for its own write.
func (s *SyncService) StampUpdate(ctx context.Context) int64 {
	timestamp := time.Now().UnixMilli()

	s.mu.Lock()
	s.lastSeen = timestamp
	s.mu.Unlock()

	if err := s.kv.Set(ctx, store.KeyLastUpdate, strconv.FormatInt(timestamp, 10)); err != nil {
		s.logger.Error().Err(err).Msg("failed to stamp update marker")
	}
	return timestamp
}

// CheckForUpdates reads the marker and publishes a projectsSyncUpdate event
// when it has advanced past the last value seen by this instance. Malformed
// or absent markers count as zero and never trigger.
func (s *SyncService) CheckForUpdates(ctx context.Context) {
	marker := s.readMarker(ctx)

	s.mu.Lock()
	advanced := marker > s.lastSeen
	if advanced {
		s.lastSeen = marker
	}
	s.mu.Unlock()

	if advanced {
		s.bus.Publish(Event{Type: EventSyncUpdate, Timestamp: marker})
	}
}

func (s *SyncService) readMarker(ctx context.Context) int64 {
	raw, err := s.kv.Get(ctx, store.KeyLastUpdate)
	if err != nil {
		if err != store.ErrKeyNotFound {
			s.logger.Error().Err(err).Msg("failed to read update marker")
		}
		return 0
	}

	marker, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn().Str("marker", raw).Msg("malformed update marker, treating as zero")
		return 0
	}
	return marker
}
