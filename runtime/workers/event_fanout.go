package workers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"huddle/contract"
	"huddle/domain/event"
	"huddle/errors"
)

// EventFanout pushes each delivery to the sinks it is addressed to, then to
// the permanent sinks (journal).
//
// Steps are applied one after the other, so every connection receives
// events in the order the coordinator produced them. Connection sinks never
// wait; sinkTimeout bounds the permanent ones.
type EventFanout struct {
	log            *slog.Logger
	connections    contract.IConnections
	steps          <-chan Outbound
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
}

func NewEventFanout(log *slog.Logger, connections contract.IConnections,
	steps <-chan Outbound, sinkTimeout time.Duration, permanentSinks ...contract.EventSink) *EventFanout {
	return &EventFanout{
		log:            log,
		connections:    connections,
		steps:          steps,
		permanentSinks: permanentSinks,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping delivery")
			return nil
		case step, ok := <-w.steps:
			if !ok {
				return nil
			}
			w.Apply(ctx, step)
		}
	}
}

// Apply attaches or detaches a session, or fans a delivery out.
func (w *EventFanout) Apply(ctx context.Context, step Outbound) {
	switch {
	case step.Attach != nil:
		w.connections.Attach(step.Session, step.Attach)
	case step.Detach:
		w.connections.Detach(step.Session)
	default:
		w.Fanout(ctx, step.Delivery)
	}
}

// Fanout One consume per addressed sink, then one per permanent sink
func (w *EventFanout) Fanout(ctx context.Context, delivery event.Delivery) {
	for _, sink := range w.resolve(delivery) {
		w.consume(ctx, sink, delivery.Event)
	}
	for _, sink := range w.permanentSinks {
		w.consume(ctx, sink, delivery.Event)
	}
}

func (w *EventFanout) resolve(delivery event.Delivery) []contract.EventSink {
	if delivery.Broadcast {
		return w.connections.All()
	}
	var sinks []contract.EventSink
	for _, id := range delivery.Targets {
		if sink, ok := w.connections.Sink(id); ok {
			sinks = append(sinks, sink)
		} else {
			w.log.Debug("Target session gone, event dropped", "session_id", id, "event", delivery.Event.Name)
		}
	}
	return sinks
}

func (w *EventFanout) consume(ctx context.Context, sink contract.EventSink, e event.Event) {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	err := sink.Consume(sinkCtx, e)
	switch {
	case err == nil:
	case stderrors.Is(err, errors.ErrOutboxFull):
		w.log.Debug("Connection evicted, event dropped", "event", e.Name)
	default:
		w.log.Warn("Sink failed to consume event", "event", e.Name, "error", err)
	}
}
