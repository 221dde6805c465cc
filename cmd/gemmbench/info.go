package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/gemm"
	"github.com/LynnColeArt/gemm/internal/perf"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print build, CPU and default blocking information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printInfo(cmd.OutOrStdout())
			return nil
		},
	}
}

func printInfo(w io.Writer) {
	build, ok := gemm.ReadBuildInfo()
	if !ok || build.Version == "" {
		build.Version = "(devel)"
	}
	cfg := gemm.DefaultConfig()

	fmt.Fprintln(w, "=== gemm ===")
	fmt.Fprintf(w, "Build:      %s\n", build)
	fmt.Fprintf(w, "GOARCH:     %s\n", runtime.GOARCH)
	fmt.Fprintf(w, "CPU:        %d cores\n", runtime.NumCPU())
	fmt.Fprintln(w, gemm.CPUInfo())
	fmt.Fprintf(w, "SIMD:       %s (kernel: %s)\n", gemm.SIMDCapability(), gemm.KernelName())
	fmt.Fprintf(w, "Cache line: %d bytes\n", gemm.CacheLineSize())
	fmt.Fprintf(w, "Defaults:   panel %d rows, K tile %d, N tile %d, %d workers\n",
		cfg.PanelRows, cfg.TileK, cfg.TileN, cfg.Workers)

	m := perf.NewMonitor()
	if err := m.Start(); err != nil {
		fmt.Fprintf(w, "Perf:       %v\n", err)
		return
	}
	m.Stop()
	fmt.Fprintln(w, "Perf:       hardware counters available")
}
