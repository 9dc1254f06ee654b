//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"huddle/domain"
	"huddle/domain/command"
	"huddle/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
	Restarts() int64
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives outbound events, one connection or one side effect per sink.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// IConnections maps live transport sessions to their sinks.
type IConnections interface {
	Attach(id domain.SessionID, sink EventSink)
	Detach(id domain.SessionID)
	Sink(id domain.SessionID) (EventSink, bool)
	All() []EventSink
	Count() int
}

// ICoordinator turns one inbound command into the deliveries it causes.
// It is never called concurrently.
type ICoordinator interface {
	Handle(cmd command.Command) []event.Delivery
	UserCount() int
}

type IJournal interface {
	Record(ctx context.Context, e event.Event, at time.Time) error
}

type IOrchestrator interface {
	Connect(ctx context.Context, id domain.SessionID, sink EventSink) error
	Dispatch(ctx context.Context, cmd command.Command) error
	Disconnect(ctx context.Context, id domain.SessionID) error
	Start(ctx context.Context) error
	Stop()
}
