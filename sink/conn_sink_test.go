package sink

import (
	"context"
	"testing"

	"huddle/domain/event"
	"huddle/errors"

	"github.com/stretchr/testify/require"
)

func TestConnSink_Consume(t *testing.T) {
	req := require.New(t)
	sink := NewConnSink(1)
	evt := event.Event{Name: event.UsersUpdate}

	// When the outbox has room
	err := sink.Consume(context.Background(), evt)

	// Then the event is queued and the connection stays
	req.NoError(err)
	req.Equal(evt, <-sink.Outbox)
	select {
	case <-sink.Evicted():
		req.Fail("Connection should not be evicted")
	default:
	}
}

func TestConnSink_Consume_Full_Outbox_Evicts(t *testing.T) {
	req := require.New(t)
	sink := NewConnSink(1)
	req.NoError(sink.Consume(context.Background(), event.Event{Name: event.UsersUpdate}))

	// Given a full outbox
	// When another event arrives
	err := sink.Consume(context.Background(), event.Event{Name: event.NewMessage})

	// Then it is refused at once and the connection is evicted
	req.ErrorIs(err, errors.ErrOutboxFull)
	req.Len(sink.Outbox, 1)
	_, open := <-sink.Evicted()
	req.False(open)

	// And an evicted connection refuses everything, even with room again
	<-sink.Outbox
	req.ErrorIs(sink.Consume(context.Background(), event.Event{Name: event.NewMessage}), errors.ErrOutboxFull)
	req.Empty(sink.Outbox)
}
