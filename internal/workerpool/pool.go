// Package workerpool runs contract pipeline jobs on a fixed number of workers
// and tracks per-document run state.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"contract-backend/internal/shared/telemetry"
)

var (
	ErrPoolClosed       = errors.New("worker pool closed")
	ErrAlreadyScheduled = errors.New("job already queued or running")
)

// State is the run state of a job id inside the pool.
type State string

const (
	StateIdle    State = ""
	StateQueued  State = "queued"
	StateRunning State = "running"
)

// Job is one unit of work. ID is the dedupe key.
type Job struct {
	ID  string
	Run func(ctx context.Context) error
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithRunTimeout bounds each job. Zero disables the bound.
func WithRunTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d >= 0 {
			p.timeout = d
		}
	}
}

// Pool is a bounded worker pool. Jobs are queued on a buffered channel and
// Submit blocks when the queue is full.
type Pool struct {
	workers   int
	queueSize int
	timeout   time.Duration

	ch      chan Job
	quit    chan struct{}
	base    context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	senders sync.WaitGroup

	mu     sync.Mutex
	closed bool
	states map[string]State
}

// New starts a pool. Defaults: 4 workers, queue of 64, 3 minute run timeout.
func New(opts ...Option) *Pool {
	p := &Pool{
		workers:   4,
		queueSize: 64,
		timeout:   3 * time.Minute,
		quit:      make(chan struct{}),
		states:    make(map[string]State),
	}
	for _, o := range opts {
		o(p)
	}
	p.ch = make(chan Job, p.queueSize)
	p.base, p.cancel = context.WithCancel(context.Background())

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(i + 1)
	}
	telemetry.Info("workerpool.started", map[string]any{
		"workers":    p.workers,
		"queue_size": p.queueSize,
		"timeout_ms": p.timeout.Milliseconds(),
	})
	return p
}

// Submit queues job, blocking while the queue is full until ctx is done.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	if job.ID == "" || job.Run == nil {
		return fmt.Errorf("workerpool: job id and run func are required")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	if _, busy := p.states[job.ID]; busy {
		p.mu.Unlock()
		return ErrAlreadyScheduled
	}
	p.states[job.ID] = StateQueued
	p.senders.Add(1)
	p.mu.Unlock()
	defer p.senders.Done()

	select {
	case p.ch <- job:
		return nil
	default:
	}
	telemetry.Warn("workerpool.backpressure", map[string]any{"job_id": job.ID})

	select {
	case p.ch <- job:
		return nil
	case <-ctx.Done():
		p.clear(job.ID)
		return ctx.Err()
	case <-p.quit:
		p.clear(job.ID)
		return ErrPoolClosed
	}
}

// State reports whether id is queued, running or idle.
func (p *Pool) State(id string) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states[id]
}

// Pending returns the number of jobs queued or running.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.states)
}

// Shutdown stops intake, lets workers drain the queue and waits for them.
// If ctx ends first, in-flight jobs are canceled and ctx.Err is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.quit)
	p.senders.Wait()
	close(p.ch)

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-done:
		p.cancel()
		telemetry.Info("workerpool.drained", nil)
		return nil
	case <-ctx.Done():
		p.cancel()
		telemetry.Warn("workerpool.shutdown_interrupted", map[string]any{"pending": p.Pending()})
		return ctx.Err()
	}
}

func (p *Pool) work(workerID int) {
	defer p.wg.Done()
	for job := range p.ch {
		p.setState(job.ID, StateRunning)
		p.run(workerID, job)
		p.clear(job.ID)
	}
}

func (p *Pool) run(workerID int, job Job) {
	ctx := p.base
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(p.base, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("workerpool.job_panic", map[string]any{
				"worker_id": workerID,
				"job_id":    job.ID,
				"panic":     fmt.Sprint(r),
			})
		}
	}()

	started := time.Now()
	err := job.Run(ctx)
	fields := map[string]any{
		"worker_id":   workerID,
		"job_id":      job.ID,
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("workerpool.job_failed", fields)
		return
	}
	telemetry.Info("workerpool.job_done", fields)
}

func (p *Pool) setState(id string, s State) {
	p.mu.Lock()
	p.states[id] = s
	p.mu.Unlock()
}

func (p *Pool) clear(id string) {
	p.mu.Lock()
	delete(p.states, id)
	p.mu.Unlock()
}
