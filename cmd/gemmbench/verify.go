package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/gemm"
	"github.com/LynnColeArt/gemm/internal/perf"
)

// errVerifyFailed makes the command exit non-zero
var errVerifyFailed = errors.New("verification failed")

type verifyOptions struct {
	m, k, n      int
	seedA, seedB uint64
	panelRows    int
	tileK        int
	counters     bool
}

func newVerifyCmd() *cobra.Command {
	opts := verifyOptions{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare GemmParallel against GemmNaive on seeded random inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.m, "m", 65, "rows of A")
	f.IntVar(&opts.k, "k", 130, "columns of A, rows of B")
	f.IntVar(&opts.n, "n", 33, "columns of B")
	f.Uint64Var(&opts.seedA, "seed-a", 42, "seed for A")
	f.Uint64Var(&opts.seedB, "seed-b", 1337, "seed for B")
	f.IntVar(&opts.panelRows, "panel", gemm.DefaultPanelRows, "rows per parallel panel")
	f.IntVar(&opts.tileK, "tile-k", gemm.DefaultTileK, "K tile width")
	f.BoolVar(&opts.counters, "perf", false, "report hardware performance counters for GemmParallel")
	return cmd
}

func runVerify(w io.Writer, opts verifyOptions) error {
	if opts.m < 0 || opts.k < 0 || opts.n < 0 {
		return fmt.Errorf("%dx%dx%d: %w", opts.m, opts.k, opts.n, gemm.ErrInvalidShape)
	}

	a := gemm.Random(opts.m, opts.k, opts.seedA)
	b := gemm.Random(opts.k, opts.n, opts.seedB)

	want, err := gemm.GemmNaive(a, b)
	if err != nil {
		return err
	}
	var got *gemm.Matrix
	pc, err := perf.Measure(func() error {
		var runErr error
		got, runErr = gemm.GemmParallel(a, b, gemm.WithPanelRows(opts.panelRows), gemm.WithTileK(opts.tileK))
		return runErr
	})
	if err != nil {
		return err
	}

	res, err := gemm.VerifyMatrix(want, got, gemm.GetArchTolerance(gemm.GEMMArchTolerance))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "A %dx%d (seed %d) · B %dx%d (seed %d)\n",
		opts.m, opts.k, opts.seedA, opts.k, opts.n, opts.seedB)
	fmt.Fprintln(w, res)
	if opts.counters {
		printCounters(w, pc)
	}
	if !res.Passed() {
		return errVerifyFailed
	}
	return nil
}

// printCounters writes one measurement, or why there is none
func printCounters(w io.Writer, c perf.Counters) {
	if !c.Hardware {
		fmt.Fprintf(w, "%v (wall time %v)\n", perf.ErrUnsupported, c.Duration)
		return
	}
	fmt.Fprintf(w, "perf: cycles %d  instructions %d  IPC %.2f  cache misses %d  LLC misses %d\n",
		c.Cycles, c.Instructions, c.IPC(), c.CacheMisses, c.LLCMisses)
}
