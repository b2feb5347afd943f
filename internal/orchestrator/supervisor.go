package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"photofilter/internal/domain"
)

var (
	// ErrShuttingDown is returned by Launch once Shutdown has begun.
	ErrShuttingDown = errors.New("orchestrator: shutting down")
	// ErrAlreadyRunning is returned when a job already has an orchestration.
	ErrAlreadyRunning = errors.New("orchestrator: job already running")
)

// Runner executes one orchestration. *Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, task Task) (domain.JobStatus, error)
}

// Supervisor owns every in-flight orchestration goroutine. The store is
// used to settle jobs whose orchestration panicked.
type Supervisor struct {
	runner Runner
	store  domain.JobRepository
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[int64]struct{}
	closed   bool
}

func NewSupervisor(runner Runner, store domain.JobRepository, logger zerolog.Logger) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		runner:   runner,
		store:    store,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[int64]struct{}),
	}
}

// Launch starts the orchestration for task in the background and returns
// immediately.
func (s *Supervisor) Launch(task Task) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrShuttingDown
	}
	if _, ok := s.inflight[task.JobID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrAlreadyRunning, task.JobID)
	}
	s.inflight[task.JobID] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(task)
	return nil
}

func (s *Supervisor) run(task Task) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.inflight, task.JobID)
		s.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Int64("job_id", task.JobID).Interface("panic", r).Msg("orchestration panicked")
			s.settle(task.JobID)
		}
	}()

	status, err := s.runner.Run(s.ctx, task)
	if err != nil {
		s.logger.Error().Err(err).Int64("job_id", task.JobID).Msg("orchestration ended with error")
		return
	}
	s.logger.Debug().Int64("job_id", task.JobID).Str("status", string(status)).Msg("orchestration done")
}

// settle marks a job abandoned by a panicking orchestration as interrupted.
// A job that already reached a terminal status is left untouched.
func (s *Supervisor) settle(id int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), finalizeTimeout)
	defer cancel()
	if _, err := s.store.Update(ctx, id, domain.FailedPatch(domain.ReasonInterrupted)); err != nil && !errors.Is(err, domain.ErrJobFinalized) {
		s.logger.Error().Err(err).Int64("job_id", id).Msg("settle panicked job")
	}
}

// InFlight returns the ids of running orchestrations in ascending order.
func (s *Supervisor) InFlight() []int64 {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.inflight))
	for id := range s.inflight {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Supervisor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

// Shutdown refuses new work and waits for running orchestrations. When ctx
// expires first the remaining ones are cancelled, which records them as
// interrupted, and Shutdown waits for them to exit before returning.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
	}

	remaining := s.Len()
	s.logger.Warn().Int("inflight", remaining).Msg("drain deadline reached, interrupting orchestrations")
	s.cancel()
	<-done
	return fmt.Errorf("orchestrator: interrupted %d jobs: %w", remaining, ctx.Err())
}
