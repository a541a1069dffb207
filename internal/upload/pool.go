package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrPoolClosed = errors.New("upload pool is shut down")

// Job is one pipeline run. It must honour ctx.
type Job func(ctx context.Context) error

type task struct {
	ctx  context.Context
	run  Job
	done chan error
}

type Worker struct {
	ID         int
	WorkerPool chan chan task
	JobChannel chan task
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan task, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan task),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, process func(task)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case t := <-w.JobChannel:
				w.Logger.Debug("worker processing upload", "worker_id", w.ID)
				process(t)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type PoolConfig struct {
	MaxWorkers   int
	JobQueueSize int
	JobTimeout   time.Duration
}

// Pool bounds how many pipeline runs execute at once.
type Pool struct {
	logger     *slog.Logger
	jobTimeout time.Duration

	jobQueue   chan task
	workerPool chan chan task
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewPool(config PoolConfig, logger *slog.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 32
	}

	pool := &Pool{
		logger:     logger,
		jobTimeout: config.JobTimeout,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan task, jobQueueSize),
		workerPool: make(chan chan task, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	pool.start()

	return pool
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			worker := NewWorker(i, p.workerPool, p.logger)
			worker.Start(p.ctx, &p.wg, p.process)
		}

		p.wg.Add(1)
		go p.dispatch()

		p.logger.Info("upload worker pool started",
			"max_workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

func (p *Pool) dispatch() {
	defer p.wg.Done()

	for {
		select {
		case t := <-p.jobQueue:
			select {
			case jobChannel := <-p.workerPool:
				select {
				case jobChannel <- t:
				case <-p.ctx.Done():
					t.done <- ErrPoolClosed
					return
				}
			case <-p.ctx.Done():
				t.done <- ErrPoolClosed
				return
			}
		case <-p.ctx.Done():
			p.logger.Info("upload dispatcher shutting down")
			return
		}
	}
}

func (p *Pool) process(t task) {
	if err := t.ctx.Err(); err != nil {
		t.done <- err
		return
	}

	ctx := t.ctx
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("upload job panicked", "panic", r)
			t.done <- fmt.Errorf("upload job panicked: %v", r)
		}
	}()

	t.done <- t.run(ctx)
}

// Do queues job and waits for its result. A job that was queued but not yet
// started when ctx ends never runs.
func (p *Pool) Do(ctx context.Context, job Job) error {
	t := task{ctx: ctx, run: job, done: make(chan error, 1)}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	select {
	case p.jobQueue <- t:
	case <-p.ctx.Done():
		p.mu.RUnlock()
		return ErrPoolClosed
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}
	p.mu.RUnlock()

	return <-t.done
}

// Shutdown stops the workers after their current job and fails anything
// still queued.
func (p *Pool) Shutdown() {
	p.logger.Info("shutting down upload worker pool")
	p.cancel()

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()

	for {
		select {
		case t := <-p.jobQueue:
			t.done <- ErrPoolClosed
		default:
			p.logger.Info("upload worker pool shutdown complete")
			return
		}
	}
}
