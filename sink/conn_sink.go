package sink

import (
	"context"
	"sync"

	"huddle/domain/event"
	"huddle/errors"
)

// ConnSink is the outbox of one websocket connection, drained by its write pump.
// It never waits: a connection whose outbox is full is evicted, and its
// transport closes the socket, which reports the disconnect.
type ConnSink struct {
	Outbox  chan event.Event
	evicted chan struct{}
	once    sync.Once
}

func NewConnSink(size int) *ConnSink {
	return &ConnSink{Outbox: make(chan event.Event, size), evicted: make(chan struct{})}
}

func (s *ConnSink) Consume(_ context.Context, e event.Event) error {
	select {
	case <-s.evicted:
		return errors.ErrOutboxFull
	default:
	}
	select {
	case s.Outbox <- e:
		return nil
	default:
		s.once.Do(func() { close(s.evicted) })
		return errors.ErrOutboxFull
	}
}

// Evicted is closed once the connection fell too far behind.
func (s *ConnSink) Evicted() <-chan struct{} {
	return s.evicted
}
