package runtime

import (
	"sync"

	"huddle/contract"
	"huddle/domain"

	"github.com/samber/lo"
)

// Connections is the lookup table between transport sessions and their sinks.
// It is shared by the transport goroutines and the fanout worker.
type Connections struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]contract.EventSink
}

func NewConnections() *Connections {
	return &Connections{sessions: make(map[domain.SessionID]contract.EventSink)}
}

func (c *Connections) Attach(id domain.SessionID, sink contract.EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[id] = sink
}

func (c *Connections) Detach(id domain.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
}

func (c *Connections) Sink(id domain.SessionID) (contract.EventSink, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sink, ok := c.sessions[id]
	return sink, ok
}

func (c *Connections) All() []contract.EventSink {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Values(c.sessions)
}

func (c *Connections) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
