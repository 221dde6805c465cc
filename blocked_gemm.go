package gemm

import "errors"

// GemmParallel computes C = A·B with a cache-blocked, multi-core kernel.
//
// The rows of C are split into panels of Config.PanelRows rows. Each panel
// is one task of a fork-join group; it reads A and B and writes only its own
// rows of C, so the tasks never share a writable element. Inside a panel the
// columns are walked in tiles of Config.TileN and, per column tile, the K
// dimension in tiles of Config.TileK in increasing order. Every tile product
// goes through Config.Kernel.
//
// The per-element accumulation order is fixed by the Config, so repeated
// calls give bit-identical results. Results agree with GemmNaive within
// GEMMTolerance.
//
// It fails with a *DimensionMismatchError before any work is dispatched when
// A.Cols() != B.Rows(). If a panel task panics, GemmParallel waits for the
// remaining panels and then panics on the calling goroutine with a
// *PanelPanicError; it never returns a partially computed matrix.
func GemmParallel(a, b *Matrix, opts ...Option) (*Matrix, error) {
	if err := checkOperands("GemmParallel", a, b); err != nil {
		return nil, err
	}
	cfg := resolveConfig(opts)

	m, n, k := a.rows, b.cols, a.cols
	c := Zeros(m, n)
	if m == 0 || n == 0 || k == 0 {
		return c, nil
	}

	panels := Partition(m, cfg.PanelRows)
	p := &panelPlan{
		a:        a,
		b:        b,
		c:        c,
		colTiles: Partition(n, cfg.TileN),
		kTiles:   Partition(k, cfg.TileK),
		kernel:   cfg.Kernel,
	}

	task := func(i int) { p.run(panels[i]) }

	var err error
	if len(panels) == 1 {
		// A single panel gains nothing from dispatch.
		err = guard(0, task)
	} else {
		exec := cfg.Executor
		if exec == nil {
			exec = groupExecutor{workers: cfg.Workers}
		}
		err = exec.ForkJoin(len(panels), task)
	}
	if err != nil {
		var pe *PanelPanicError
		if errors.As(err, &pe) && pe.Task >= 0 && pe.Task < len(panels) {
			pe.Panel = panels[pe.Task]
		}
		panic(err)
	}
	return c, nil
}

// panelPlan is the read-only state shared by all panel tasks of one call
type panelPlan struct {
	a, b, c  *Matrix
	colTiles []Range
	kTiles   []Range
	kernel   TileKernel
}

// run computes rows [r.Start, r.End) of C
func (p *panelPlan) run(r Range) {
	lda, ldb, ldc := p.a.cols, p.b.cols, p.c.cols
	rows := r.Len()

	// Exclusive view of this panel's rows.
	cPanel := p.c.data[r.Start*ldc : r.End*ldc]
	aPanel := p.a.data[r.Start*lda : r.End*lda]

	for _, jt := range p.colTiles {
		for _, kt := range p.kTiles {
			p.kernel(
				aPanel[kt.Start:], lda,
				p.b.data[kt.Start*ldb+jt.Start:], ldb,
				cPanel[jt.Start:], ldc,
				rows, kt.Len(), jt.Len(),
			)
		}
	}
}
