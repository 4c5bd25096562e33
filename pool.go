package qsim

import (
	"sync"

	"github.com/charmbracelet/log"
)

/*
Q is the data-parallel worker pool behind the kernels and the bulk scans of
the state vector. Every call splits an index range into jobs, hands them to
the workers and returns once all of them have finished, so callers never see
a partially updated buffer.
*/
type Q struct {
	mu        sync.Mutex
	wg        sync.WaitGroup
	jobs      chan Job
	workers   []*Worker
	threshold int
	closed    bool
}

/*
NewQ starts a pool with the given number of workers. Ranges shorter than
threshold run on the calling goroutine. A pool with one worker or fewer never
starts goroutines.
*/
func NewQ(workers, threshold int) *Q {
	q := &Q{
		jobs:      make(chan Job, workers*4),
		threshold: threshold,
	}

	if workers <= 1 {
		return q
	}

	for i := 0; i < workers; i++ {
		q.startWorker()
	}

	log.Infof("NewQ - started %d workers, parallel threshold %d", workers, threshold)

	return q
}

func (q *Q) startWorker() {
	worker := &Worker{pool: q}
	q.workers = append(q.workers, worker)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		worker.run()
	}()
}

// Size returns the number of worker goroutines.
func (q *Q) Size() int {
	return len(q.workers)
}

// Parallel calls fn over disjoint slices covering [0, n).
func (q *Q) Parallel(n int, fn func(lo, hi int)) {
	chunks := q.chunks(n)
	q.dispatch(len(chunks), func(i int) {
		fn(chunks[i][0], chunks[i][1])
	})
}

/*
Reduce sums fn over disjoint slices covering [0, n). Partial results are
added in slice order, so the result does not depend on which worker finished
first.
*/
func (q *Q) Reduce(n int, fn func(lo, hi int) float64) float64 {
	partial, _ := q.Partials(n, fn)

	var sum float64
	for _, p := range partial {
		sum += p
	}

	return sum
}

// Partials is Reduce without the final sum: one result per slice, with the slice bounds.
func (q *Q) Partials(n int, fn func(lo, hi int) float64) ([]float64, [][2]int) {
	chunks := q.chunks(n)
	partial := make([]float64, len(chunks))

	q.dispatch(len(chunks), func(i int) {
		partial[i] = fn(chunks[i][0], chunks[i][1])
	})

	return partial, chunks
}

// dispatch runs task(0..count-1), one job each, and waits for all of them.
func (q *Q) dispatch(count int, task func(i int)) {
	if count == 1 {
		task(0)
		return
	}

	run := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			task(i)
		}
	}

	var done sync.WaitGroup
	done.Add(count)

	for i := 0; i < count; i++ {
		q.jobs <- Job{Lo: i, Hi: i + 1, Fn: run, done: &done}
	}

	done.Wait()
}

func (q *Q) chunks(n int) [][2]int {
	if n <= 0 {
		return nil
	}

	q.mu.Lock()
	serial := q.closed || len(q.workers) <= 1 || n < q.threshold
	q.mu.Unlock()

	if serial {
		return [][2]int{{0, n}}
	}

	count := min(len(q.workers)*4, n)
	size := (n + count - 1) / count

	out := make([][2]int, 0, count)
	for lo := 0; lo < n; lo += size {
		out = append(out, [2]int{lo, min(lo+size, n)})
	}

	return out
}

// Close stops the workers. Later calls run on the calling goroutine.
func (q *Q) Close() {
	if q == nil {
		return
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.jobs)
	q.wg.Wait()

	if len(q.workers) > 0 {
		log.Infof("Q.Close - stopped %d workers", len(q.workers))
	}
}
