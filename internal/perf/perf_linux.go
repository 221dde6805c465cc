//go:build linux

package perf

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

type event struct {
	name   string
	typ    uint32
	config uint64
	store  func(c *Counters, v uint64)
}

// cacheConfig encodes a PERF_TYPE_HW_CACHE event
func cacheConfig(cache, op, result uint64) uint64 {
	return cache | op<<8 | result<<16
}

var events = []event{
	{"cycles", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES,
		func(c *Counters, v uint64) { c.Cycles = v }},
	{"instructions", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS,
		func(c *Counters, v uint64) { c.Instructions = v }},
	{"cache-misses", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_MISSES,
		func(c *Counters, v uint64) { c.CacheMisses = v }},
	{"L1-dcache-load-misses", unix.PERF_TYPE_HW_CACHE,
		cacheConfig(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS),
		func(c *Counters, v uint64) { c.L1DCacheMisses = v }},
	{"LLC-load-misses", unix.PERF_TYPE_HW_CACHE,
		cacheConfig(unix.PERF_COUNT_HW_CACHE_LL, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS),
		func(c *Counters, v uint64) { c.LLCMisses = v }},
}

// Monitor owns one perf_event_open descriptor per event. Counters follow
// the calling process across threads but exclude the kernel.
type Monitor struct {
	fds []int
}

// NewMonitor returns an idle monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Start opens, resets and enables the counters. If any event cannot be
// opened all descriptors are released and the error wraps ErrUnsupported.
func (m *Monitor) Start() error {
	m.close()

	m.fds = make([]int, 0, len(events))
	for _, ev := range events {
		attr := unix.PerfEventAttr{
			Type:   ev.typ,
			Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
			Config: ev.config,
			Bits:   unix.PerfBitDisabled | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv | unix.PerfBitInherit,
		}
		fd, err := unix.PerfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			m.close()
			return fmt.Errorf("%w: open %s: %v", ErrUnsupported, ev.name, err)
		}
		m.fds = append(m.fds, fd)
	}

	for _, fd := range m.fds {
		_ = unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0)
		_ = unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0)
	}
	return nil
}

// Stop disables and reads the counters, then releases them. Stop on an idle
// monitor returns zero Counters.
func (m *Monitor) Stop() Counters {
	var c Counters
	if len(m.fds) == 0 {
		return c
	}

	for _, fd := range m.fds {
		_ = unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0)
	}

	buf := make([]byte, 8)
	for i, fd := range m.fds {
		if n, err := unix.Read(fd, buf); err == nil && n == len(buf) {
			events[i].store(&c, binary.NativeEndian.Uint64(buf))
		}
	}
	c.Hardware = true

	m.close()
	return c
}

func (m *Monitor) close() {
	for _, fd := range m.fds {
		_ = unix.Close(fd)
	}
	m.fds = nil
}
