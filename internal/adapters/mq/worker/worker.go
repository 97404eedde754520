// Package worker runs queued scoring runs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// ErrStopped is returned by Shutdown on a worker that already stopped.
var ErrStopped = errors.New("worker stopped")

// Processor executes one run end to end.
type Processor interface {
	ProcessRun(ctx context.Context, r model.RunRequest) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, r model.RunRequest) error

// ProcessRun implements Processor.
func (f ProcessorFunc) ProcessRun(ctx context.Context, r model.RunRequest) error { return f(ctx, r) }

// Queue defines how workers receive runs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.RunRequest
}

// Worker processes runs until stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker pulls runs off a Queue and hands them to a Processor.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, p Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	runs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-runs:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "run failed", logger.String("run_id", r.RunID), logger.Error(err))
			}
		}
	}
}

// Shutdown signals the worker and waits for the current run to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	stopped := false
	w.stopOnce.Do(func() {
		close(w.shutdown)
		stopped = true
	})
	if !stopped {
		return ErrStopped
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, r model.RunRequest) (err error) {
	metrics.AddWorkersBusy(1)
	defer metrics.AddWorkersBusy(-1)
	defer func() {
		if p := recover(); p != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			err = fmt.Errorf("run %s panicked: %v", r.RunID, p)
		}
	}()

	w.logger.Debug(ctx, "run started", logger.String("run_id", r.RunID), logger.String("role", r.RoleID))
	if err := w.processor.ProcessRun(ctx, r); err != nil {
		metrics.RecordErrorByComponent("worker", "run_error")
		return fmt.Errorf("process run %s: %w", r.RunID, err)
	}
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool. workerCount < 1 means one worker per CPU.
func NewPool(workerCount int, q Queue, p Processor, log logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	if log == nil {
		log = logger.NewNop()
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  log.Named("worker-pool"),
	}
	for i := range workerCount {
		pool.workers[i] = NewInMemoryWorker(q, p,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(log),
		)
	}
	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and lets workers drain what is pending.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut > 0 {
		return fmt.Errorf("%d workers did not stop: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}
