// Package worker runs the race simulation pipeline off the job queue.
// Each job is simulated and committed by exactly one worker; the per-race
// seed keeps the outcome independent of which worker picks it up.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/momentum/internal/adapters/mq/queue"
	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/internal/domain/progression"
	"github.com/okian/momentum/pkg/logger"
	"github.com/okian/momentum/pkg/metrics"
)

// Default worker configuration.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Simulator runs the full pipeline for one race job: attribute factors,
// sampling, strategy, aggregation, and progression deltas.
type Simulator interface {
	Simulate(ctx context.Context, job Job) (model.RaceResult, progression.Deltas, error)
}

// Committer persists a classified result and its deltas.
type Committer interface {
	Commit(ctx context.Context, result model.RaceResult, deltas progression.Deltas) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes race jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker, finishing the job in
	// flight before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	simulator Simulator
	committer Committer
	name      string

	// processed, when set by the owning pool, counts committed races
	// for the throughput gauge.
	processed *int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, sim Simulator, committer Committer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		simulator: sim,
		committer: committer,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing race job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob runs one race end to end.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	simStart := time.Now()
	result, deltas, err := w.simulator.Simulate(ctx, job)
	metrics.RecordSimulationLatency(float64(time.Since(simStart).Milliseconds()))

	if err != nil {
		metrics.RecordSimulationError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "simulation_error")
		metrics.RecordErrorByType("simulation_error", "high")
		w.logger.Error(ctx, "simulation failed",
			logger.String("raceID", job.RaceID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to simulate race %s: %w", job.RaceID, err)
	}

	if err := w.committer.Commit(ctx, result, deltas); err != nil {
		metrics.RecordPersistenceError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "commit_error")
		metrics.RecordErrorByType("commit_error", "high")
		w.logger.Error(ctx, "commit failed",
			logger.String("raceID", job.RaceID),
			logger.Error(err),
		)
		return fmt.Errorf("commit failed for race %s: %w", job.RaceID, err)
	}

	metrics.RecordRaceSimulated()
	metrics.RecordTrialsRun(job.Trials * len(job.Drivers))
	if w.processed != nil {
		atomic.AddInt64(w.processed, 1)
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	simulator Simulator
	committer Committer

	shutdown chan struct{}
	done     chan struct{}

	processedCount    int64
	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, sim Simulator, committer Committer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             q,
		simulator:         sim,
		committer:         committer,
		shutdown:          make(chan struct{}),
		done:              make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			sim,
			committer,
			WithName("worker-"+strconv.Itoa(i)),
			withProcessedCounter(&pool.processedCount),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerRacesPerSecond(0.0)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}

	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater periodically refreshes the throughput gauge.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	now := time.Now()
	elapsed := now.Sub(p.lastProcessedTime).Seconds()
	processed := atomic.SwapInt64(&p.processedCount, 0)
	if elapsed > 0 {
		metrics.UpdateWorkerRacesPerSecond(float64(processed) / elapsed)
	}
	p.lastProcessedTime = now
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue, then waits for all workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
