// Package worker runs background jobs one at a time in submission order.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	hlog "historicalmap/internal/log"
)

var (
	ErrQueueFull = errors.New("worker queue is full")
	ErrStopped   = errors.New("worker is stopped")
)

// DefaultSize is the queue capacity used when New is given a non-positive size.
const DefaultSize = 128

// Job is a unit of work. ctx is cancelled when Stop gives up waiting.
type Job func(ctx context.Context)

// Queue is a bounded FIFO drained by a single goroutine.
type Queue struct {
	jobs    chan Job
	pending atomic.Int64
	depth   prometheus.Gauge
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.RWMutex
	stopped bool
}

// New starts a queue. The depth gauge is registered with reg when reg is not nil.
func New(size int, reg prometheus.Registerer) (*Queue, error) {
	if size <= 0 {
		size = DefaultSize
	}
	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "historicalmap_worker_queue_depth",
		Help: "Jobs submitted to the background worker and not yet finished.",
	})
	if reg != nil {
		if err := reg.Register(depth); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:   make(chan Job, size),
		depth:  depth,
		logger: hlog.WithComponent("worker"),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go q.run()
	return q, nil
}

// Submit enqueues job without blocking.
func (q *Queue) Submit(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return ErrStopped
	}
	// counted before the send so the worker never decrements first
	q.pending.Add(1)
	q.depth.Inc()
	select {
	case q.jobs <- job:
		return nil
	default:
		q.pending.Add(-1)
		q.depth.Dec()
		return ErrQueueFull
	}
}

// Len reports jobs that are queued or running.
func (q *Queue) Len() int {
	return int(q.pending.Load())
}

// Stop refuses new jobs, then waits for the queued ones to finish.
// If ctx ends first the running job's context is cancelled and ctx.Err() is returned.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.jobs)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for job := range q.jobs {
		q.exec(job)
	}
}

func (q *Queue) exec(job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error().
				Str("event", "worker_job_panic").
				Interface("panic", r).
				Msg("worker job panicked")
		}
		q.pending.Add(-1)
		q.depth.Dec()
	}()
	job(q.ctx)
}
