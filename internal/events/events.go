// Package events defines the typed domain events, the process-wide event
// bus and the channel naming scheme used to fan events out to subscribers.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Category groups events for consumers.
type Category string

const (
	CategoryPlayer   Category = "player"
	CategoryLocation Category = "location"
	CategoryFight    Category = "fight"
	CategoryGame     Category = "game"
	CategoryWorld    Category = "world"
)

// Event is a typed domain event. Channels lists every channel the event is
// delivered on; the payload is the event struct itself.
type Event interface {
	EventName() string
	EventCategory() Category
	Channels() []string
	EventMeta() Meta
}

// Meta carries the per-instance identity of an event. Embed it in every
// event struct and initialize with NewMeta.
type Meta struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

// NewMeta allocates a fresh event identity.
func NewMeta() Meta {
	return Meta{ID: uuid.NewString(), Timestamp: time.Now().Unix()}
}

// EventMeta implements part of Event for embedders.
func (m Meta) EventMeta() Meta { return m }

// envelope is the wire form of an event.
type envelope struct {
	ID        string      `json:"id"`
	Timestamp int64       `json:"timestamp"`
	Category  Category    `json:"category"`
	Name      string      `json:"name"`
	Data      interface{} `json:"data"`
}

// Marshal serializes an event into its wire envelope.
func Marshal(ev Event) ([]byte, error) {
	meta := ev.EventMeta()
	return json.Marshal(envelope{
		ID:        meta.ID,
		Timestamp: meta.Timestamp,
		Category:  ev.EventCategory(),
		Name:      ev.EventName(),
		Data:      ev,
	})
}
