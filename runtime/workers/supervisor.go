package workers

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"huddle/contract"
	"huddle/errors"
)

const DefaultRestartInterval = 200 * time.Millisecond

// Supervisor keeps the session workers alive.
// A worker returning nil is done for good; a worker that panics or fails is
// started again after restartInterval, until the supervised context ends.
type Supervisor struct {
	mu              sync.Mutex
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	log             *slog.Logger
	workers         []contract.Worker
	restartInterval time.Duration
	restarts        atomic.Int64
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = DefaultRestartInterval
	}
	return &Supervisor{log: log, restartInterval: restartInterval}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker...)
	return s
}

// Run starts the registered workers and returns once every one of them has stopped.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.cancel = cancel
	registered := append([]contract.Worker(nil), s.workers...)
	s.mu.Unlock()

	for _, worker := range registered {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

// Start runs one worker in its own goroutine under the restart policy.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	name := contract.GetWorkerName(worker)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for ctx.Err() == nil {
			err := s.runOnce(ctx, worker, name)
			switch {
			case err == nil:
				s.log.Info("Worker finished", "worker", name)
				return
			case ctx.Err() != nil:
				s.log.Info("Worker stopped", "worker", name)
				return
			}

			s.restarts.Add(1)
			s.log.Warn("Worker failed, restarting", "worker", name, "error", err, "in", s.restartInterval)
			select {
			case <-ctx.Done():
			case <-time.After(s.restartInterval):
			}
		}
	}()
}

func (s *Supervisor) runOnce(ctx context.Context, worker contract.Worker, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Worker panicked", "worker", name, "panic", r)
			err = errors.ErrWorkerPanic
		}
	}()
	return worker.Run(ctx)
}

// Stop cancels the context handed to the workers. It is a no-op before Run.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Restarts counts the worker restarts since the supervisor was created.
func (s *Supervisor) Restarts() int64 {
	return s.restarts.Load()
}
