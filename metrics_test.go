package qsim

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given fresh metrics", t, func() {
		m := newMetrics()

		Convey("Recording flushes should count passes per arity", func() {
			start := time.Now()
			m.recordFlush(start, 1, 1)
			m.recordFlush(start, 4, 6)
			m.recordFlush(start, 4, 2)

			So(m.Flushes, ShouldEqual, int64(3))
			So(m.FusedGates, ShouldEqual, int64(9))
			So(m.KernelPasses[1], ShouldEqual, int64(1))
			So(m.KernelPasses[4], ShouldEqual, int64(2))

			p95, p99 := m.percentiles()
			So(p99, ShouldBeGreaterThanOrEqualTo, p95)
		})

		Convey("The latency window should stay bounded", func() {
			for i := 0; i < m.windowSize+10; i++ {
				m.recordFlush(time.Now(), 1, 1)
			}
			So(len(m.latencies), ShouldEqual, m.windowSize)
			So(m.next, ShouldEqual, 10)
		})

		Convey("Percentiles should come from the most recent window", func() {
			for i := 0; i < m.windowSize; i++ {
				m.Flushes++
				m.updateLatencyPercentiles(time.Second)
			}
			for i := 1; i <= m.windowSize; i++ {
				m.Flushes++
				m.updateLatencyPercentiles(time.Duration(i) * time.Microsecond)
			}

			p95, p99 := m.percentiles()
			So(p95, ShouldEqual, 951*time.Microsecond)
			So(p99, ShouldEqual, 991*time.Microsecond)
			So(m.ExportMetrics()["p99_latency"], ShouldEqual, int64(991))
		})

		Convey("Export should expose the counters", func() {
			m.recordSize(3, 128)
			m.count(&m.Measurements)

			out := m.ExportMetrics()
			So(out["qubits"], ShouldEqual, 3)
			So(out["state_bytes"], ShouldEqual, uint64(128))
			So(out["measurements"], ShouldEqual, int64(1))
		})
	})
}
