// Package perf reads hardware performance counters around a measured
// function. On platforms without perf_event_open only wall time is recorded.
package perf

import (
	"errors"
	"time"
)

// ErrUnsupported is returned by Start when hardware counters are not
// available on this platform or to this process.
var ErrUnsupported = errors.New("perf: hardware counters unsupported")

// Counters holds one measurement
type Counters struct {
	Duration time.Duration

	Cycles         uint64
	Instructions   uint64
	CacheMisses    uint64
	L1DCacheMisses uint64
	LLCMisses      uint64 // Last level cache read misses

	// Hardware is false when only Duration was measured
	Hardware bool
}

// IPC returns instructions per cycle, or 0 without cycle data
func (c Counters) IPC() float64 {
	if c.Cycles == 0 {
		return 0
	}
	return float64(c.Instructions) / float64(c.Cycles)
}

// GFLOPS converts a floating-point operation count into GFLOP/s over Duration
func (c Counters) GFLOPS(flops float64) float64 {
	if c.Duration <= 0 {
		return 0
	}
	return flops / c.Duration.Seconds() / 1e9
}

// Measure runs fn between Start and Stop of a new Monitor. When counters
// cannot be opened it still returns the wall time.
func Measure(fn func() error) (Counters, error) {
	m := NewMonitor()
	hw := m.Start() == nil

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	var c Counters
	if hw {
		c = m.Stop()
	}
	if err != nil {
		return Counters{}, err
	}
	c.Duration = elapsed
	return c, nil
}
