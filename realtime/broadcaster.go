package realtime

import (
	"sync"

	"github.com/valentinmtg/video-portfolio-backend/models"
)

// EventType names mirror the browser events of the original admin panel.
type EventType string

const (
	EventProjectsUpdated EventType = "projectsUpdated"
	EventStorageChanged  EventType = "storageChanged"
	EventSyncUpdate      EventType = "projectsSyncUpdate"
	EventAdminLogin      EventType = "adminLogin"
	EventAdminLogout     EventType = "adminLogout"
)

// Event is a local broadcast signal. Only the fields relevant to its type are
// populated.
type Event struct {
	Type      EventType        `json:"type"`
	Timestamp int64            `json:"timestamp,omitempty"`
	Projects  []models.Project `json:"projects,omitempty"`
	Source    string           `json:"source,omitempty"`
	Key       string           `json:"key,omitempty"`
	NewValue  string           `json:"newValue,omitempty"`
	Username  string           `json:"username,omitempty"`
}

type subscriber struct {
	types map[EventType]bool
	ch    chan Event
}

// Broadcaster is the in-process signal fan-out. Delivery is best-effort: an
// event is received only by subscribers registered when it fires, and slow
// subscribers miss events rather than block the publisher.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscriber
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]subscriber)}
}

// Subscribe registers interest in the given event types (all types when none
// are given). The returned cancel func removes the subscription and closes
// the channel.
func (b *Broadcaster) Subscribe(types ...EventType) (<-chan Event, func()) {
	wanted := make(map[EventType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	sub := subscriber{types: wanted, ch: make(chan Event, 16)}
	b.subs[id] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing.ch)
		}
	}

	return sub.ch, cancel
}

// Publish delivers the event to every matching subscriber without blocking.
func (b *Broadcaster) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if len(sub.types) > 0 && !sub.types[event.Type] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}
