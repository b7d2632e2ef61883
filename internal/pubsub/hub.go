// Package pubsub provides the websocket transport adapter behind the event
// bus Publisher interface. Clients subscribe to named channels over one
// websocket connection; events are fanned out with bounded write deadlines.
package pubsub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/multiverse-rpg/world-engine/internal/events"
	"github.com/multiverse-rpg/world-engine/internal/logging"
)

const writeWait = 5 * time.Second

// Hub maps channel names to live subscriber connections. It implements
// events.Publisher.
type Hub struct {
	mu sync.RWMutex
	// channel name -> set of subscribers
	channels map[string]map[*Subscriber]struct{}
}

// Subscriber wraps a websocket connection. The write mutex serializes
// frames from concurrent publishes.
type Subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex

	hub      *Hub
	channels map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[*Subscriber]struct{})}
}

// Register wraps a new connection into a subscriber with no channels yet.
func (h *Hub) Register(conn *websocket.Conn) *Subscriber {
	return &Subscriber{conn: conn, hub: h, channels: make(map[string]struct{})}
}

// Subscribe adds the subscriber to a channel.
func (h *Hub) Subscribe(sub *Subscriber, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channels[channel]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.channels[channel] = set
	}
	set[sub] = struct{}{}
	sub.channels[channel] = struct{}{}
}

// Unsubscribe removes the subscriber from a channel.
func (h *Hub) Unsubscribe(sub *Subscriber, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.channels[channel]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.channels, channel)
		}
	}
	delete(sub.channels, channel)
}

// Drop removes the subscriber from every channel and closes the connection.
func (h *Hub) Drop(sub *Subscriber) {
	h.mu.Lock()
	for ch := range sub.channels {
		if set, ok := h.channels[ch]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.channels, ch)
			}
		}
	}
	sub.channels = make(map[string]struct{})
	h.mu.Unlock()
	_ = sub.conn.Close()
}

// Send delivers an event on a single channel.
func (h *Hub) Send(ev events.Event, channel string) error {
	return h.Broadcast(ev, []string{channel})
}

// Broadcast delivers an event to every subscriber of the listed channels.
// A subscriber listening on several of the channels receives one frame per
// channel, in slice order (per-channel FIFO within one call chain).
func (h *Hub) Broadcast(ev events.Event, channels []string) error {
	data, err := events.Marshal(ev)
	if err != nil {
		return err
	}

	for _, channel := range channels {
		h.mu.RLock()
		subs := make([]*Subscriber, 0, len(h.channels[channel]))
		for sub := range h.channels[channel] {
			subs = append(subs, sub)
		}
		h.mu.RUnlock()

		for _, sub := range subs {
			sub.mu.Lock()
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			werr := sub.conn.WriteMessage(websocket.TextMessage, data)
			sub.mu.Unlock()
			if werr != nil {
				logging.Error("dropping slow subscriber", werr, logging.Fields{"channel": channel})
				h.Drop(sub)
			}
		}
	}
	return nil
}
