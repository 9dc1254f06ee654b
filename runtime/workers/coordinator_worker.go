package workers

import (
	"context"
	"log/slog"
	"sync/atomic"

	"huddle/contract"
)

// CoordinatorWorker is the only consumer of the command queue.
// Every command is handled to completion before the next one is read,
// and its fanout steps are queued in the order they were produced.
type CoordinatorWorker struct {
	log         *slog.Logger
	coordinator contract.ICoordinator
	commands    <-chan Inbound
	steps       chan<- Outbound
	users       *atomic.Int64
}

func NewCoordinatorWorker(log *slog.Logger, coordinator contract.ICoordinator,
	commands <-chan Inbound, steps chan<- Outbound, users *atomic.Int64) *CoordinatorWorker {
	return &CoordinatorWorker{
		log:         log,
		coordinator: coordinator,
		commands:    commands,
		steps:       steps,
		users:       users,
	}
}

func (w *CoordinatorWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping command processing")
			return nil
		case in, ok := <-w.commands:
			if !ok {
				w.log.Debug("Command queue closed")
				return nil
			}
			deliveries := w.coordinator.Handle(in.Command)
			w.users.Store(int64(w.coordinator.UserCount()))
			for _, step := range stepsOf(in, deliveries) {
				select {
				case w.steps <- step:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}
