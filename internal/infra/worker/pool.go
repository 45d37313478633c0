// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var ErrPoolClosed = errors.New("worker pool closed")

// Task is one unit of work. Errors are logged and counted, never retried.
type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed number of goroutines. Submit blocks
// while the queue is full so a producer cannot outrun the workers.
type Pool struct {
	wg     sync.WaitGroup
	jobs   chan Task
	n      int
	log    *zerolog.Logger
	once   sync.Once
	closed atomic.Bool

	done   atomic.Int64
	failed atomic.Int64
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pl := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{jobs: make(chan Task, workers*4), n: workers, log: &pl}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for task := range p.jobs {
				if ctx.Err() != nil {
					// drain without running once cancelled
					p.failed.Add(1)
					continue
				}
				if err := task(ctx); err != nil {
					p.failed.Add(1)
					p.log.Error().Err(err).Int("worker", id).Msg("task failed")
					continue
				}
				p.done.Add(1)
			}
		}(i)
	}
}

// Submit queues task, waiting for room or for ctx to end.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	if p.closed.Load() {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake and waits for queued tasks to finish. It returns the
// number of tasks that succeeded and failed. Submit must not race with Close.
func (p *Pool) Close() (succeeded, failed int64) {
	p.once.Do(func() {
		p.closed.Store(true)
		close(p.jobs)
	})
	p.wg.Wait()
	return p.done.Load(), p.failed.Load()
}
