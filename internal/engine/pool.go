package engine

import (
	"context"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/atomic"
)

// Sink receives records as workers complete tasks. Implementations
// must serialize their own writes. A non-nil error aborts the run:
// if results cannot be recorded there is no point probing further.
type Sink interface {
	Emit(Record) error
}

// Pool runs a fixed number of workers over a batched task stream.
// Each worker checks the budget before dispatching and paces itself by
// the configured delay since its own previous dispatch, so the overall
// request rate is roughly workers/delay.
type Pool struct {
	workers  int
	delay    time.Duration
	executor *Executor
	budget   *Budget
	sink     Sink
	bar      *progressbar.ProgressBar

	dispatched atomic.Int64
	skipped    atomic.Int64
	failures   atomic.Int64
}

// NewPool wires a worker pool. bar may be nil.
func NewPool(workers int, delay time.Duration, executor *Executor, budget *Budget, sink Sink, bar *progressbar.ProgressBar) *Pool {
	return &Pool{
		workers:  workers,
		delay:    delay,
		executor: executor,
		budget:   budget,
		sink:     sink,
		bar:      bar,
	}
}

// Dispatched is the number of tasks actually sent.
func (p *Pool) Dispatched() int64 { return p.dispatched.Load() }

// Skipped is the number of tasks dropped because a budget expired.
func (p *Pool) Skipped() int64 { return p.skipped.Load() }

// Failures is the number of dispatched tasks that ended in a
// network-level failure.
func (p *Pool) Failures() int64 { return p.failures.Load() }

// Run drains the batcher. It returns early only on a sink write error
// or context cancellation; budget expiry drains the remaining stream
// as skipped tasks and returns nil.
func (p *Pool) Run(ctx context.Context, batcher *Batcher) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan Task)
	go func() {
		defer close(tasks)
		for {
			batch := batcher.Next()
			if batch == nil {
				return
			}
			for _, task := range batch {
				select {
				case tasks <- task:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	var once sync.Once
	var runErr error

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var lastDispatch time.Time
			for task := range tasks {
				if p.budget.Expired(task.Target) {
					p.skipped.Inc()
					p.step()
					continue
				}
				if p.delay > 0 && !lastDispatch.IsZero() {
					if wait := p.delay - time.Since(lastDispatch); wait > 0 {
						select {
						case <-time.After(wait):
						case <-ctx.Done():
							return
						}
					}
				}
				lastDispatch = time.Now()
				p.dispatched.Inc()
				p.step()

				record := p.executor.Do(ctx, task)
				if record.Failed() {
					p.failures.Inc()
				}
				if err := p.sink.Emit(record); err != nil {
					once.Do(func() {
						runErr = err
						cancel()
					})
					return
				}
			}
		}()
	}

	wg.Wait()
	if runErr != nil {
		return runErr
	}
	return ctx.Err()
}

func (p *Pool) step() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}
