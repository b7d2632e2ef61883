package events

import (
	"sync"

	"github.com/multiverse-rpg/world-engine/internal/logging"
)

// Publisher delivers serialized events to a transport (websocket hub,
// external pub/sub service, ...). Implementations must bound their I/O;
// a failed delivery is logged by the bus and never rolls back game state.
type Publisher interface {
	Send(ev Event, channel string) error
	Broadcast(ev Event, channels []string) error
}

// Bus is the process-wide event bus. The publisher handle is set once at
// startup; Publish is fire-and-forget.
type Bus struct {
	mu        sync.RWMutex
	publisher Publisher
}

func NewBus() *Bus { return &Bus{} }

// SetPublisher installs the transport adapter. Call before serving traffic.
func (b *Bus) SetPublisher(p Publisher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publisher = p
}

// Publish delivers the event on all of its channels. Without a publisher
// the event is dropped silently (useful in tests and offline tools).
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	p := b.publisher
	b.mu.RUnlock()
	if p == nil {
		return
	}
	channels := ev.Channels()
	if len(channels) == 0 {
		return
	}
	if err := p.Broadcast(ev, channels); err != nil {
		logging.Error("event publish failed", err, logging.Fields{
			"event": ev.EventName(),
		})
	}
}

// Default is the process-wide bus instance.
var Default = NewBus()

// Publish sends an event through the default bus.
func Publish(ev Event) { Default.Publish(ev) }

// SetPublisher installs the transport adapter on the default bus.
func SetPublisher(p Publisher) { Default.SetPublisher(p) }
