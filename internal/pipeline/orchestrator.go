package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/nexthydra/internal/config"
)

// ErrStopped is returned by Submit once the orchestrator has been stopped.
var ErrStopped = errors.New("pipeline: orchestrator stopped")

// Orchestrator queues URL jobs for a fixed pool of workers and serves
// synchronous extractions with the same settings.
type Orchestrator struct {
	jobs    *JobStore
	fetcher Fetcher
	log     *slog.Logger
	cfg     config.Config
	extract ExtractConfig
	stats   *Stats

	mu      sync.Mutex // guards queue sends against close
	queue   chan *Job
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, fetcher Fetcher, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		fetcher: fetcher,
		log:     log,
		cfg:     cfg,
		extract: ExtractConfig{
			Workers:     cfg.ParseWorkers,
			MaxDepth:    cfg.MaxNestingDepth,
			ScriptsOnly: cfg.ScriptsOnly,
		},
		stats: NewStats(time.Hour),
	}
}

// Start launches cfg.WorkerCount workers and the expired-job janitor.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	for i := range max(o.cfg.WorkerCount, 1) {
		w := NewWorker(o.fetcher, o.log.With("worker", i), o.extract, o.stats, o.cfg.FetchRetries)
		o.wg.Go(func() { o.work(ctx, w) })
	}
	o.wg.Go(func() { o.janitor(ctx) })
}

func (o *Orchestrator) work(ctx context.Context, w *Worker) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-o.queue:
			if !ok {
				return
			}
			w.Process(ctx, job)
		}
	}
}

// janitor evicts jobs idle for longer than the TTL. It sweeps four times
// per TTL, at most every five minutes.
func (o *Orchestrator) janitor(ctx context.Context) {
	every := min(max(o.cfg.JobTTL/4, time.Second), 5*time.Minute)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := o.jobs.Cleanup(); evicted > 0 {
				o.log.Debug("evicted expired jobs", "count", evicted)
			}
		}
	}
}

// Stop cancels in-flight work and waits for the workers to exit. It is safe
// to call more than once.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit registers job and queues it. A full queue fails the job
// immediately.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return ErrStopped
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queued")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns the job with id, or nil.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth is the number of jobs waiting for a worker.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the pipeline latency windows.
func (o *Orchestrator) Stats() *Stats {
	return o.stats
}

// Extract runs a synchronous extraction with the pipeline's settings and
// records its latency. scriptsOnly forces script-only scanning.
func (o *Orchestrator) Extract(html string, scriptsOnly bool) Result {
	cfg := o.extract
	cfg.ScriptsOnly = cfg.ScriptsOnly || scriptsOnly

	start := time.Now()
	defer o.stats.Parse.Since(start)
	return Extract(html, cfg, o.log)
}
