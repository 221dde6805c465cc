package perf

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spin() error {
	x := 1.0
	for i := 0; i < 1_000_000; i++ {
		x = x*1.0000001 + 1e-9
	}
	if x == 0 {
		return errors.New("unreachable")
	}
	return nil
}

func TestMeasure(t *testing.T) {
	c, err := Measure(spin)
	require.NoError(t, err)
	assert.Positive(t, c.Duration)

	if !c.Hardware {
		t.Log("hardware counters unavailable, only wall time measured")
		return
	}
	t.Logf("cycles=%d instructions=%d IPC=%.2f LLC misses=%d",
		c.Cycles, c.Instructions, c.IPC(), c.LLCMisses)
	assert.Positive(t, c.Instructions)
}

func TestMeasureError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Measure(func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestStartUnsupported(t *testing.T) {
	m := NewMonitor()
	if err := m.Start(); err != nil {
		assert.ErrorIs(t, err, ErrUnsupported)
		assert.Equal(t, Counters{}, m.Stop())
		return
	}
	c := m.Stop()
	assert.True(t, c.Hardware)

	// Stopping twice is harmless
	assert.Equal(t, Counters{}, m.Stop())
}

func TestDerivedMetrics(t *testing.T) {
	assert.Zero(t, Counters{}.IPC())
	assert.Zero(t, Counters{}.GFLOPS(1e9))

	c := Counters{Duration: time.Second, Cycles: 200, Instructions: 300}
	assert.InDelta(t, 1.5, c.IPC(), 1e-12)
	assert.InDelta(t, 2.0, c.GFLOPS(2e9), 1e-12)
}
