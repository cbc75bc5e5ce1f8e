package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Task is a unit of background work. It receives the pool's context, not
// the context of the request that submitted it.
type Task func(ctx context.Context)

// Pool runs background tasks (expiry notifications) on a fixed number of
// goroutines so they outlive the request that queued them.
type Pool struct {
	numWorkers int
	tasks      chan Task
	logger     *slog.Logger
	wg         sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewPool(numWorkers int, logger *slog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &Pool{
		numWorkers: numWorkers,
		tasks:      make(chan Task, numWorkers*16),
		logger:     logger,
	}
}

// Start launches the workers. They run until Stop closes the queue.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.logger.Info("worker pool started", "num_workers", p.numWorkers)
}

// Submit queues a task without waiting and reports whether it was
// accepted. Tasks are dropped when the queue is full or the pool is stopped.
func (p *Pool) Submit(task func(ctx context.Context)) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.logger.Warn("worker pool stopped, dropping task")
		return false
	}

	select {
	case p.tasks <- task:
		return true
	default:
		p.logger.Warn("worker pool queue full, dropping task", "queue_size", cap(p.tasks))
		return false
	}
}

// Stop closes the queue and waits for queued tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		p.run(ctx, id, task)
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("background task panicked", "worker_id", id, "panic", r)
		}
	}()
	task(ctx)
}
