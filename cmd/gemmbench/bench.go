package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/LynnColeArt/gemm"
	"github.com/LynnColeArt/gemm/internal/perf"
)

type benchOptions struct {
	sizes      []int
	seed       uint64
	iterations int
	panelRows  int
	tileK      int
	tileN      int
	workers    int
	naive      bool
	counters   bool
	logDir     string
}

func newBenchCmd() *cobra.Command {
	opts := benchOptions{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time GemmParallel (and optionally GemmNaive) on square matrices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.IntSliceVar(&opts.sizes, "sizes", []int{256, 512, 1024}, "matrix sizes N for N×N×N products")
	f.Uint64Var(&opts.seed, "seed", 42, "seed for A; B uses seed+1")
	f.IntVar(&opts.iterations, "iterations", 3, "timed runs per size after one warm-up")
	f.IntVar(&opts.panelRows, "panel", gemm.DefaultPanelRows, "rows per parallel panel")
	f.IntVar(&opts.tileK, "tile-k", gemm.DefaultTileK, "K tile width")
	f.IntVar(&opts.tileN, "tile-n", gemm.DefaultTileN, "column tile width")
	f.IntVar(&opts.workers, "workers", 0, "pool workers (0 = GOMAXPROCS)")
	f.BoolVar(&opts.naive, "naive", false, "also time the naive reference and check agreement")
	f.BoolVar(&opts.counters, "perf", false, "collect hardware performance counters when available")
	f.StringVar(&opts.logDir, "log-dir", "benchmark_logs", "directory for the JSON session log")
	return cmd
}

// normalizeSizes drops non-positive and repeated sizes and sorts the rest
func normalizeSizes(sizes []int) []int {
	out := lo.Uniq(lo.Filter(sizes, func(n int, _ int) bool { return n > 0 }))
	slices.Sort(out)
	return out
}

// timing is the outcome of the timed runs of one variant
type timing struct {
	mean     time.Duration
	best     time.Duration
	counters perf.Counters
	result   *gemm.Matrix
}

// timeRuns runs fn once to warm up, then iterations times
func timeRuns(iterations int, counters bool, fn func() (*gemm.Matrix, error)) (timing, error) {
	c, err := fn()
	if err != nil {
		return timing{}, err
	}

	durations := make([]time.Duration, 0, iterations)
	var t timing
	for i := 0; i < iterations; i++ {
		if counters {
			pc, err := perf.Measure(func() error {
				var runErr error
				c, runErr = fn()
				return runErr
			})
			if err != nil {
				return timing{}, err
			}
			if len(durations) == 0 || pc.Duration < lo.Min(durations) {
				t.counters = pc
			}
			durations = append(durations, pc.Duration)
			continue
		}

		start := time.Now()
		if c, err = fn(); err != nil {
			return timing{}, err
		}
		durations = append(durations, time.Since(start))
	}

	t.best = lo.Min(durations)
	t.mean = lo.Sum(durations) / time.Duration(len(durations))
	t.result = c
	return t, nil
}

func runBench(w io.Writer, opts benchOptions) error {
	sizes := normalizeSizes(opts.sizes)
	if len(sizes) == 0 {
		return errors.New("no positive sizes given")
	}
	if opts.iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", opts.iterations)
	}

	logger, err := NewBenchmarkLogger(opts.logDir, "gemmbench")
	if err != nil {
		return err
	}

	pool := gemm.NewPool(opts.workers)
	defer pool.Close()

	cfg := gemm.Config{
		PanelRows: opts.panelRows,
		TileK:     opts.tileK,
		TileN:     opts.tileN,
		Workers:   pool.NumWorkers(),
		Executor:  pool,
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(w, "GEMM benchmark: %d iterations, %d workers, kernel %s\n",
		opts.iterations, pool.NumWorkers(), gemm.KernelName())

	tol := gemm.GetArchTolerance(gemm.GEMMArchTolerance)
	var failures int
	for _, n := range sizes {
		a := gemm.Random(n, n, opts.seed)
		b := gemm.Random(n, n, opts.seed+1)
		flops := 2 * float64(n) * float64(n) * float64(n)

		par, err := timeRuns(opts.iterations, opts.counters, func() (*gemm.Matrix, error) {
			return gemm.GemmParallel(a, b, gemm.WithConfig(cfg))
		})
		name := fmt.Sprintf("parallel/N_%d", n)
		if err != nil {
			failures++
			p.Fprintf(w, "%-20s FAILED: %v\n", name, err)
			if lerr := logger.LogFail(name, n, n, n, err); lerr != nil {
				return lerr
			}
			continue
		}
		printTiming(p, w, name, par, flops)
		if err := logger.Log(benchResult(name, n, opts.iterations, par, flops, cfg)); err != nil {
			return err
		}

		if !opts.naive {
			continue
		}

		ref, err := timeRuns(opts.iterations, opts.counters, func() (*gemm.Matrix, error) {
			return gemm.GemmNaive(a, b)
		})
		name = fmt.Sprintf("naive/N_%d", n)
		if err != nil {
			return err
		}
		printTiming(p, w, name, ref, flops)
		if err := logger.Log(benchResult(name, n, opts.iterations, ref, flops, gemm.Config{})); err != nil {
			return err
		}

		res, err := gemm.VerifyMatrix(ref.result, par.result, tol)
		if err != nil {
			return err
		}
		speedup := 0.0
		if par.best > 0 {
			speedup = float64(ref.best) / float64(par.best)
		}
		p.Fprintf(w, "%-20s speedup %.2fx, %s\n", fmt.Sprintf("check/N_%d", n), speedup, res)
		if !res.Passed() {
			failures++
			if err := logger.LogFail(fmt.Sprintf("check/N_%d", n), n, n, n, errors.New(res.String())); err != nil {
				return err
			}
		}
	}

	p.Fprintf(w, "\nResults written to %s\n", logger.Path())
	if failures > 0 {
		return fmt.Errorf("%d benchmark(s) failed", failures)
	}
	return nil
}

func printTiming(p *message.Printer, w io.Writer, name string, t timing, flops float64) {
	p.Fprintf(w, "%-20s best %12.3f ms  mean %12.3f ms  %8.2f GFLOPS",
		name, ms(t.best), ms(t.mean), gflops(flops, t.best))
	if t.counters.Hardware {
		p.Fprintf(w, "  cycles %d  instructions %d  IPC %.2f  cache misses %d  LLC misses %d",
			t.counters.Cycles, t.counters.Instructions, t.counters.IPC(),
			t.counters.CacheMisses, t.counters.LLCMisses)
	}
	fmt.Fprintln(w)
}

func benchResult(name string, n, iterations int, t timing, flops float64, cfg gemm.Config) BenchmarkResult {
	return BenchmarkResult{
		Name:       name,
		Status:     statusPass,
		M:          n,
		K:          n,
		N:          n,
		Iterations: iterations,
		NsPerOp:    float64(t.mean.Nanoseconds()),
		BestNs:     float64(t.best.Nanoseconds()),
		GFLOPS:     gflops(flops, t.best),
		IPC:        t.counters.IPC(),
		LLCMisses:  t.counters.LLCMisses,
		PanelRows:  cfg.PanelRows,
		TileK:      cfg.TileK,
		TileN:      cfg.TileN,
		Workers:    cfg.Workers,
	}
}

// gflops returns 0 for runs below the timer resolution
func gflops(flops float64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return flops / d.Seconds() / 1e9
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
