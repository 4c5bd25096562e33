package qsim

import (
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPool(t *testing.T) {
	Convey("Given a pool with four workers", t, func() {
		q := NewQ(4, 16)

		Reset(func() {
			q.Close()
		})

		So(q.Size(), ShouldEqual, 4)

		Convey("Parallel should visit every index exactly once", func() {
			hits := make([]int32, 1000)

			q.Parallel(len(hits), func(lo, hi int) {
				for i := lo; i < hi; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})

			for _, h := range hits {
				So(h, ShouldEqual, int32(1))
			}
		})

		Convey("Ranges below the threshold should run as one slice", func() {
			var calls int32
			q.Parallel(10, func(lo, hi int) {
				atomic.AddInt32(&calls, 1)
				So(lo, ShouldEqual, 0)
				So(hi, ShouldEqual, 10)
			})
			So(calls, ShouldEqual, int32(1))
		})

		Convey("Reduce should add the partial sums", func() {
			sum := q.Reduce(1000, func(lo, hi int) float64 {
				var s float64
				for i := lo; i < hi; i++ {
					s += float64(i)
				}
				return s
			})
			So(sum, ShouldEqual, 499500.0)
		})

		Convey("Partials should return contiguous slices", func() {
			partial, chunks := q.Partials(100, func(lo, hi int) float64 {
				return float64(hi - lo)
			})

			So(len(partial), ShouldEqual, len(chunks))
			So(chunks[0][0], ShouldEqual, 0)
			So(chunks[len(chunks)-1][1], ShouldEqual, 100)
			for i := 1; i < len(chunks); i++ {
				So(chunks[i][0], ShouldEqual, chunks[i-1][1])
			}
		})

		Convey("Empty ranges should not call fn", func() {
			q.Parallel(0, func(lo, hi int) {
				t.Fatal("called on empty range")
			})
			So(q.Reduce(0, func(lo, hi int) float64 { return 1 }), ShouldEqual, 0.0)
		})

		Convey("After Close work should still complete on the caller", func() {
			q.Close()
			q.Close()

			sum := q.Reduce(100, func(lo, hi int) float64 { return float64(hi - lo) })
			So(sum, ShouldEqual, 100.0)
		})
	})

	Convey("Given a single-worker pool", t, func() {
		q := NewQ(1, 1)

		Convey("It should start no goroutines and still run work", func() {
			So(q.Size(), ShouldEqual, 0)
			So(q.Reduce(50, func(lo, hi int) float64 { return float64(hi - lo) }), ShouldEqual, 50.0)
		})
	})
}

func TestWorkerProcessJob(t *testing.T) {
	Convey("Given a job over a task range", t, func() {
		var done sync.WaitGroup
		var seen [][2]int

		done.Add(1)
		job := Job{Lo: 3, Hi: 7, Fn: func(lo, hi int) {
			seen = append(seen, [2]int{lo, hi})
		}, done: &done}

		Convey("The worker should run it once and mark it done", func() {
			worker := &Worker{pool: NewQ(1, 1)}
			worker.processJob(job)
			done.Wait()

			So(seen, ShouldResemble, [][2]int{{3, 7}})
		})
	})
}
