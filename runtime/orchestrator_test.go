package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"huddle/domain"
	"huddle/domain/command"
	"huddle/domain/event"
	"huddle/mocks"
	"huddle/errors"
	"huddle/runtime/workers"
	"huddle/sink"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type RecordingSink struct {
	events chan event.Event
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{events: make(chan event.Event, 64)}
}

func (s *RecordingSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// next skips events until one named name arrives.
func (s *RecordingSink) next(t *testing.T, name event.Name) event.Event {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case e := <-s.events:
			if e.Name == name {
				return e
			}
		case <-timeout:
			require.Failf(t, "event not received", "%s", name)
			return event.Event{}
		}
	}
}

func startOrchestrator(t *testing.T) *Orchestrator {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond),
		newCoordinator(defaultSettings()), NewConnections(), 16, 16, time.Second)
	run(t, orchestrator)
	return orchestrator
}

func run(t *testing.T, orchestrator *Orchestrator) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = orchestrator.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestOrchestrator_Broadcasts_Messages(t *testing.T) {
	req := require.New(t)
	orchestrator := startOrchestrator(t)
	ctx := context.Background()
	alice := NewRecordingSink()
	bob := NewRecordingSink()

	// Given two connected users
	req.NoError(orchestrator.Connect(ctx, "s1", alice))
	req.Equal(true, alice.next(t, event.OwnerStatus).Data)
	req.NoError(orchestrator.Dispatch(ctx, command.UserJoin{Origin: command.Origin{SessionID: "s1"}, JoinRequest: domain.JoinRequest{Username: "A"}}))
	alice.next(t, event.UserData)

	req.NoError(orchestrator.Connect(ctx, "s2", bob))
	req.NoError(orchestrator.Dispatch(ctx, command.UserJoin{Origin: command.Origin{SessionID: "s2"}, JoinRequest: domain.JoinRequest{Username: "B"}}))
	bob.next(t, event.UserData)

	// When A sends a message
	req.NoError(orchestrator.Dispatch(ctx, command.SendMessage{Origin: command.Origin{SessionID: "s1"}, Content: "hi B"}))

	// Then both receive it
	for _, sink := range []*RecordingSink{alice, bob} {
		for {
			e := sink.next(t, event.NewMessage)
			if message := e.Data.(domain.Message); message.Type == domain.MessageTypeUser {
				req.Equal("hi B", message.Content)
				break
			}
		}
	}
	req.Equal(Stats{Users: 2, Connections: 2}, orchestrator.Stats())
}

func TestOrchestrator_Disconnect_Promotes_Successor(t *testing.T) {
	req := require.New(t)
	orchestrator := startOrchestrator(t)
	ctx := context.Background()
	alice := NewRecordingSink()
	bob := NewRecordingSink()

	req.NoError(orchestrator.Connect(ctx, "s1", alice))
	req.NoError(orchestrator.Dispatch(ctx, command.UserJoin{Origin: command.Origin{SessionID: "s1"}}))
	req.NoError(orchestrator.Connect(ctx, "s2", bob))
	req.NoError(orchestrator.Dispatch(ctx, command.UserJoin{Origin: command.Origin{SessionID: "s2"}}))
	req.Equal(false, bob.next(t, event.OwnerStatus).Data)

	// When the owner disconnects
	req.NoError(orchestrator.Disconnect(ctx, "s1"))

	// Then B is told it owns the server
	req.Equal(true, bob.next(t, event.OwnerStatus).Data)
	settings := bob.next(t, event.ServerSettings).Data.(domain.ServerSettings)
	req.Equal(domain.UserID("user-2"), settings.OwnerID)
}

func TestOrchestrator_Permanent_Sinks(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	journal := mocks.NewMockEventSink(ctrl)
	received := make(chan event.Event, 8)

	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 0),
		newCoordinator(defaultSettings()), NewConnections(), 4, 4, time.Second)
	orchestrator.Add(journal)

	// Then the permanent sink sees the events of the connection
	journal.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.Event) error {
			received <- e
			return nil
		}).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = orchestrator.Start(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// When a session connects
	req.NoError(orchestrator.Connect(context.Background(), "s1", NewRecordingSink()))

	select {
	case e := <-received:
		req.Equal(event.OwnerStatus, e.Name)
	case <-time.After(time.Second):
		req.Fail("permanent sink not reached")
	}
}

func TestOrchestrator_Dispatch_Honours_Context(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 0),
		newCoordinator(defaultSettings()), NewConnections(), 0, 0, time.Second)

	// Given nobody consumes the queue
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// When a session connects
	err := orchestrator.Connect(ctx, "s1", NewRecordingSink())

	// Then the connect fails and the session is not kept
	req.Error(err)
	req.Zero(orchestrator.Stats().Connections)
}

func TestOrchestrator_Stalled_Connection_Does_Not_Lose_Disconnects(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	coordinator := newCoordinator(defaultSettings())
	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 0),
		coordinator, NewConnections(), 2, 2, 300*time.Millisecond)
	run(t, orchestrator)
	ctx := context.Background()
	alice := NewRecordingSink()
	bob := sink.NewConnSink(1)

	// Given A owns the server and B never reads its socket
	req.NoError(orchestrator.Connect(ctx, "s1", alice))
	req.NoError(orchestrator.Dispatch(ctx, command.UserJoin{Origin: from("s1"), JoinRequest: domain.JoinRequest{Username: "A"}}))
	alice.next(t, event.UserData)
	req.NoError(orchestrator.Connect(ctx, "s2", bob))
	req.NoError(orchestrator.Dispatch(ctx, command.UserJoin{Origin: from("s2"), JoinRequest: domain.JoinRequest{Username: "B"}}))
	for i := 0; i < 10; i++ {
		req.NoError(orchestrator.Dispatch(ctx, command.SendMessage{Origin: from("s2"), Content: fmt.Sprintf("spam %d", i)}))
	}

	// When A's socket closes with a short deadline
	closeCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	req.NoError(orchestrator.Disconnect(closeCtx, "s1"))

	// Then A is gone and B inherits the server
	req.Eventually(func() bool { return orchestrator.Stats().Users == 1 }, time.Second, 10*time.Millisecond)
	owner, ok := coordinator.settings.OwnerID()
	req.True(ok)
	req.Equal(domain.UserID("user-2"), owner)

	// And B was evicted instead of slowing everyone down
	select {
	case <-bob.Evicted():
	case <-time.After(time.Second):
		req.Fail("stalled connection was not evicted")
	}
}

func TestOrchestrator_Disconnect_Outlives_Its_Context(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 0),
		newCoordinator(defaultSettings()), NewConnections(), 0, 0, time.Second)

	// Given nobody consumes the queue yet and the caller's context is already over
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := make(chan error, 1)
	go func() { result <- orchestrator.Disconnect(ctx, "s1") }()

	// Then the disconnect keeps waiting
	select {
	case err := <-result:
		req.Failf("disconnect returned early", "%v", err)
	case <-time.After(50 * time.Millisecond):
	}

	// When the worker starts
	run(t, orchestrator)

	// Then it is queued
	select {
	case err := <-result:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("disconnect was never queued")
	}
}

func TestOrchestrator_Disconnect_After_Stop(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 0),
		newCoordinator(defaultSettings()), NewConnections(), 0, 0, time.Second)

	orchestrator.Stop()

	req.ErrorIs(orchestrator.Disconnect(context.Background(), "s1"), errors.ErrQueueClosed)
	req.ErrorIs(orchestrator.Dispatch(context.Background(), command.SearchMessages{Origin: from("s1")}), errors.ErrQueueClosed)
}

func TestOrchestrator_Greeting_Comes_First(t *testing.T) {
	req := require.New(t)
	orchestrator := startOrchestrator(t)
	ctx := context.Background()
	alice := NewRecordingSink()
	carol := NewRecordingSink()

	// Given A is chatting
	req.NoError(orchestrator.Connect(ctx, "s1", alice))
	req.NoError(orchestrator.Dispatch(ctx, command.UserJoin{Origin: from("s1"), JoinRequest: domain.JoinRequest{Username: "A"}}))
	for i := 0; i < 5; i++ {
		req.NoError(orchestrator.Dispatch(ctx, command.SendMessage{Origin: from("s1"), Content: "busy"}))
	}

	// When C connects right behind those messages
	req.NoError(orchestrator.Connect(ctx, "s3", carol))

	// Then the first thing C receives is its own greeting
	select {
	case e := <-carol.events:
		req.Equal(event.ServerSettings, e.Name)
	case <-time.After(time.Second):
		req.Fail("greeting not received")
	}
}
