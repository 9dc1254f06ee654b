// Package runtime serializes inbound commands through the coordinator and
// propagates the resulting events to connections and side-effect sinks.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"huddle/contract"
	"huddle/domain"
	"huddle/domain/command"
	"huddle/errors"
	"huddle/runtime/workers"
)

type Stats struct {
	Users          int   `json:"users"`
	Connections    int   `json:"connections"`
	WorkerRestarts int64 `json:"workerRestarts"`
}

// Orchestrator owns the command and fanout queues. Transport goroutines
// enqueue commands; one CoordinatorWorker consumes them and one EventFanout
// attaches sessions and delivers what the coordinator decided.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	coordinator    contract.ICoordinator
	connections    contract.IConnections
	permanentSinks []contract.EventSink
	commands       chan workers.Inbound
	steps          chan workers.Outbound
	sinkTimeout    time.Duration
	users          atomic.Int64
	stopped        chan struct{}
	stopOnce       sync.Once
}

func NewOrchestrator(log *slog.Logger, supervisor *workers.Supervisor, coordinator *Coordinator,
	connections *Connections, commandBufferSize, deliveryBufferSize int, sinkTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		log:         log,
		supervisor:  supervisor,
		coordinator: coordinator,
		connections: connections,
		commands:    make(chan workers.Inbound, commandBufferSize),
		steps:       make(chan workers.Outbound, deliveryBufferSize),
		sinkTimeout: sinkTimeout,
		stopped:     make(chan struct{}),
	}
}

// Add registers sinks that receive every delivered event, whoever it is addressed to.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Connect queues the session's connect. The sink is attached by the fanout
// right before the greeting, so nothing produced earlier reaches it.
func (o *Orchestrator) Connect(ctx context.Context, id domain.SessionID, sink contract.EventSink) error {
	return o.enqueue(ctx, workers.Inbound{Command: command.Connect{Origin: command.Origin{SessionID: id}}, Sink: sink})
}

// Dispatch queues a command, waiting for room in the queue rather than dropping it.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd command.Command) error {
	return o.enqueue(ctx, workers.Inbound{Command: cmd})
}

// Disconnect queues the disconnect of a closed transport. It is never abandoned:
// ctx expiring only logs that the queue is saturated, and the wait goes on
// until the worker takes it or the orchestrator stops.
func (o *Orchestrator) Disconnect(ctx context.Context, id domain.SessionID) error {
	in := workers.Inbound{Command: command.Disconnect{Origin: command.Origin{SessionID: id}}}
	select {
	case o.commands <- in:
		return nil
	case <-o.stopped:
		return fmt.Errorf("%w: disconnect of %s", errors.ErrQueueClosed, id)
	case <-ctx.Done():
		o.log.Warn("Command queue saturated, still waiting to queue disconnect", "session_id", id)
	}
	select {
	case o.commands <- in:
		return nil
	case <-o.stopped:
		return fmt.Errorf("%w: disconnect of %s", errors.ErrQueueClosed, id)
	}
}

func (o *Orchestrator) enqueue(ctx context.Context, in workers.Inbound) error {
	select {
	case o.commands <- in:
		return nil
	case <-o.stopped:
		return errors.ErrQueueClosed
	case <-ctx.Done():
		o.log.Warn("Command queue full, command abandoned", "session_id", in.Command.Session(), "error", ctx.Err())
		return fmt.Errorf("%w: %v", errors.ErrQueueClosed, ctx.Err())
	}
}

// Start registers the workers and blocks until the supervisor stops.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	fanout := workers.NewEventFanout(o.log, o.connections, o.steps, o.sinkTimeout, o.permanentSinks...)
	coordinatorWorker := workers.NewCoordinatorWorker(o.log, o.coordinator, o.commands, o.steps, &o.users)
	o.supervisor.Add(coordinatorWorker, fanout)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	o.markStopped()
	return nil
}

// Stop cancels the supervised workers. Queued commands are abandoned.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
	o.markStopped()
}

func (o *Orchestrator) markStopped() {
	o.stopOnce.Do(func() { close(o.stopped) })
}

func (o *Orchestrator) Stats() Stats {
	return Stats{
		Users:          int(o.users.Load()),
		Connections:    o.connections.Count(),
		WorkerRestarts: o.supervisor.Restarts(),
	}
}
