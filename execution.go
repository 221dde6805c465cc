package gemm

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Executor runs n independent tasks and returns once all of them finished.
// A task that panics does not stop the others; ForkJoin reports the first
// recovered panic as a *PanelPanicError.
type Executor interface {
	ForkJoin(n int, task func(i int)) error
}

// guard runs task(i) and converts a panic into a *PanelPanicError
func guard(i int, task func(i int)) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanelPanicError{Task: i, Value: v, Stack: debug.Stack()}
		}
	}()
	task(i)
	return nil
}

// groupExecutor is the per-call executor: an errgroup bounded to a number of
// workers. It holds no goroutines between calls.
type groupExecutor struct {
	workers int
}

func (g groupExecutor) ForkJoin(n int, task func(i int)) error {
	if n <= 0 {
		return nil
	}

	var first firstError
	var eg errgroup.Group
	eg.SetLimit(max(1, min(g.workers, n)))
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			// Keep going after a failure: panels are independent and the
			// caller discards the result anyway.
			first.record(guard(i, task))
			return nil
		})
	}
	_ = eg.Wait()
	return first.get()
}

// firstError keeps the first non-nil error recorded
type firstError struct {
	mu  sync.Mutex
	err error
}

func (f *firstError) record(err error) {
	if err == nil {
		return
	}
	f.mu.Lock()
	if f.err == nil {
		f.err = err
	}
	f.mu.Unlock()
}

func (f *firstError) get() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Pool is a persistent worker pool owned by the caller. Reusing one Pool
// across many GemmParallel calls avoids spawning goroutines per call:
//
//	pool := gemm.NewPool(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//	c, err := gemm.GemmParallel(a, b, gemm.WithExecutor(pool))
type Pool struct {
	workers   int
	tasks     chan func()
	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    atomic.Bool
	mu        sync.RWMutex // excludes Close while ForkJoin is submitting
}

// NewPool creates a new worker pool. If workers <= 0, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{
		workers: workers,
		tasks:   make(chan func(), workers*2),
	}

	// Start workers
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

// worker processes tasks from the queue
func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// NumWorkers returns the number of workers in the pool
func (p *Pool) NumWorkers() int {
	return p.workers
}

// ForkJoin runs task(0..n-1) on the pool workers and waits for all of them.
// On a closed pool the tasks run sequentially on the calling goroutine.
func (p *Pool) ForkJoin(n int, task func(i int)) error {
	if n <= 0 {
		return nil
	}

	var first firstError

	p.mu.RLock()
	if p.closed.Load() {
		p.mu.RUnlock()
		for i := 0; i < n; i++ {
			first.record(guard(i, task))
		}
		return first.get()
	}

	var done sync.WaitGroup
	done.Add(n)
	for i := 0; i < n; i++ {
		p.tasks <- func() {
			defer done.Done()
			first.record(guard(i, task))
		}
	}
	p.mu.RUnlock()

	done.Wait()
	return first.get()
}

// Close shuts down the worker pool after queued tasks complete.
// Calling Close multiple times is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed.Store(true)
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

// String describes the pool
func (p *Pool) String() string {
	return fmt.Sprintf("gemm.Pool(workers=%d, closed=%t)", p.workers, p.closed.Load())
}
