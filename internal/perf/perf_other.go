//go:build !linux

package perf

// Monitor is a no-op outside Linux
type Monitor struct{}

// NewMonitor returns an idle monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Start always fails with ErrUnsupported
func (m *Monitor) Start() error {
	return ErrUnsupported
}

// Stop returns zero Counters
func (m *Monitor) Stop() Counters {
	return Counters{}
}
