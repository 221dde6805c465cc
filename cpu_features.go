package gemm

import (
	"strings"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks available CPU instruction set extensions
type CPUFeatures struct {
	HasAVX     bool
	HasAVX2    bool
	HasAVX512F bool // Foundation
	HasFMA     bool
	HasSSE4    bool
	HasASIMD   bool // arm64 NEON
	HasASIMDHP bool // arm64 half-precision NEON
	HasSVE     bool
}

// Global CPU feature detection
var cpuFeatures = detectCPUFeatures()

// detectCPUFeatures reads the feature bits from golang.org/x/sys/cpu
func detectCPUFeatures() CPUFeatures {
	return CPUFeatures{
		HasSSE4:    cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:     cpu.X86.HasAVX,
		HasAVX2:    cpu.X86.HasAVX2,
		HasAVX512F: cpu.X86.HasAVX512F,
		HasFMA:     cpu.X86.HasFMA,
		HasASIMD:   cpu.ARM64.HasASIMD,
		HasASIMDHP: cpu.ARM64.HasASIMDHP,
		HasSVE:     cpu.ARM64.HasSVE,
	}
}

// DetectedFeatures returns the features found at startup
func DetectedFeatures() CPUFeatures {
	return cpuFeatures
}

// CacheLineSize returns the cache line size in bytes as assumed by
// golang.org/x/sys/cpu for this architecture
func CacheLineSize() int {
	return int(unsafe.Sizeof(cpu.CacheLinePad{}))
}

// KernelName returns the name of the tile kernel GemmParallel uses by default.
// Only the scalar kernel exists; SIMDCapability reports what a vectorized
// kernel could target on this machine.
func KernelName() string {
	return "scalar"
}

// SIMDCapability returns the widest vector ISA usable for a GEMM micro-kernel
func SIMDCapability() string {
	f := cpuFeatures
	switch {
	case f.HasAVX512F:
		return "AVX512"
	case f.HasAVX2 && f.HasFMA:
		return "AVX2"
	case f.HasSVE:
		return "SVE"
	case f.HasASIMD:
		return "NEON"
	case f.HasSSE4:
		return "SSE4"
	}
	return "none"
}

// CPUInfo returns a string describing available CPU features
func CPUInfo() string {
	f := cpuFeatures
	var features []string
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}
	add(f.HasSSE4, "SSE4")
	add(f.HasAVX, "AVX")
	add(f.HasAVX2, "AVX2")
	add(f.HasFMA, "FMA")
	add(f.HasAVX512F, "AVX512F")
	add(f.HasASIMD, "ASIMD")
	add(f.HasASIMDHP, "ASIMDHP")
	add(f.HasSVE, "SVE")

	if len(features) == 0 {
		return "No SIMD extensions detected"
	}
	return "CPU features: " + strings.Join(features, ", ")
}
