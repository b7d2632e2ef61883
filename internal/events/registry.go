package events

import "sync"

// Flow marks whether this process produces an event type, consumes it, or
// both.
type Flow uint8

const (
	FlowProduced Flow = 1 << iota
	FlowConsumed
)

type registration struct {
	Category Category
	Flow     Flow
}

// registry classifies event types. It is filled once by RegisterCatalog
// during startup and treated immutable afterwards.
var (
	registryMu sync.RWMutex
	registry   = map[string]registration{}
)

// Register records an event type. Registering the same name twice merges
// the flow bits.
func Register(name string, category Category, flow Flow) {
	registryMu.Lock()
	defer registryMu.Unlock()
	r := registry[name]
	r.Category = category
	r.Flow |= flow
	registry[name] = r
}

// Registered reports whether an event name is known and its flow.
func Registered(name string) (Category, Flow, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[name]
	return r.Category, r.Flow, ok
}

// RegisteredNames returns the names of all known event types.
func RegisteredNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
