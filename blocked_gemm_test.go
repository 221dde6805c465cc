package gemm

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type BlockedGemmSuite struct {
	suite.Suite
	tol ToleranceConfig
}

func (s *BlockedGemmSuite) SetupSuite() {
	s.tol = GetArchTolerance(GEMMArchTolerance)
}

func TestBlockedGemmSuite(t *testing.T) {
	suite.Run(t, new(BlockedGemmSuite))
}

// requireMatchesNaive checks GemmParallel(a, b, opts...) against GemmNaive
func (s *BlockedGemmSuite) requireMatchesNaive(a, b *Matrix, opts ...Option) *Matrix {
	want, err := GemmNaive(a, b)
	s.Require().NoError(err)
	got, err := GemmParallel(a, b, opts...)
	s.Require().NoError(err)

	res, err := VerifyMatrix(want, got, s.tol)
	s.Require().NoError(err)
	s.Require().True(res.Passed(), res.String())
	return got
}

func (s *BlockedGemmSuite) TestSmallScenario() {
	a, err := FromSlice(2, 2, []float32{1, 2, 3, 4})
	s.Require().NoError(err)
	b, err := FromSlice(2, 2, []float32{5, 6, 7, 8})
	s.Require().NoError(err)

	c, err := GemmParallel(a, b)
	s.Require().NoError(err)
	s.Equal([]float32{19, 22, 43, 50}, c.Data())
}

func (s *BlockedGemmSuite) TestShapes() {
	shapes := []struct{ m, k, n int }{
		{1, 1, 1},
		{1, 7, 1},
		{7, 1, 5},
		{64, 64, 64},
		{65, 130, 33},
		{63, 257, 129},
		{128, 3, 300},
		{200, 64, 1},
	}
	for _, sh := range shapes {
		s.Run(fmt.Sprintf("%dx%dx%d", sh.m, sh.k, sh.n), func() {
			a := RandomRange(sh.m, sh.k, 42, -1, 1)
			b := RandomRange(sh.k, sh.n, 1337, -1, 1)
			c := s.requireMatchesNaive(a, b, WithPanelRows(64), WithTileK(64))

			rows, cols := c.Shape()
			s.Equal(sh.m, rows)
			s.Equal(sh.n, cols)
		})
	}
}

func (s *BlockedGemmSuite) TestSeededRandom256() {
	a := Random(256, 256, 42)
	b := Random(256, 256, 1337)
	c := s.requireMatchesNaive(a, b)

	rows, cols := c.Shape()
	s.Equal(256, rows)
	s.Equal(256, cols)
}

func (s *BlockedGemmSuite) TestBlockSizes() {
	a := Random(97, 113, 1)
	b := Random(113, 71, 2)
	for _, cfg := range []Config{
		{PanelRows: 1, TileK: 1, TileN: 1},
		{PanelRows: 7, TileK: 13, TileN: 5},
		{PanelRows: 64, TileK: 256, TileN: 256},
		{PanelRows: 1000, TileK: 1000, TileN: 1000},
	} {
		s.Run(fmt.Sprintf("P%d_K%d_N%d", cfg.PanelRows, cfg.TileK, cfg.TileN), func() {
			s.requireMatchesNaive(a, b, WithConfig(cfg))
		})
	}
}

func (s *BlockedGemmSuite) TestIdentity() {
	a := RandomRange(37, 37, 5, -10, 10)

	right, err := GemmParallel(a, Identity(37), WithPanelRows(8))
	s.Require().NoError(err)
	res, err := VerifyMatrix(a, right, s.tol)
	s.Require().NoError(err)
	s.True(res.Passed(), res.String())

	left, err := GemmParallel(Identity(37), a, WithPanelRows(8))
	s.Require().NoError(err)
	res, err = VerifyMatrix(a, left, s.tol)
	s.Require().NoError(err)
	s.True(res.Passed(), res.String())
}

func (s *BlockedGemmSuite) TestZero() {
	a := Random(70, 40, 9)
	c, err := GemmParallel(a, Zeros(40, 90), WithPanelRows(16))
	s.Require().NoError(err)

	rows, cols := c.Shape()
	s.Equal(70, rows)
	s.Equal(90, cols)
	s.Equal(make([]float32, 70*90), c.Data())
}

func (s *BlockedGemmSuite) TestEmptyDimensions() {
	c, err := GemmParallel(Zeros(5, 0), Zeros(0, 3))
	s.Require().NoError(err)
	s.Equal(make([]float32, 15), c.Data())

	c, err = GemmParallel(Zeros(0, 4), Zeros(4, 3))
	s.Require().NoError(err)
	rows, cols := c.Shape()
	s.Equal(0, rows)
	s.Equal(3, cols)
}

func (s *BlockedGemmSuite) TestDeterminism() {
	a := Random(150, 300, 11)
	b := Random(300, 90, 12)
	opts := []Option{WithPanelRows(32), WithTileK(64), WithTileN(32)}

	first, err := GemmParallel(a, b, opts...)
	s.Require().NoError(err)
	for run := 0; run < 5; run++ {
		again, err := GemmParallel(a, b, opts...)
		s.Require().NoError(err)
		if diff := cmp.Diff(first.Data(), again.Data()); diff != "" {
			s.Failf("non-deterministic result", "run %d (-first +again):\n%s", run, diff)
		}
	}

	// The worker count does not change the per-element order
	serial, err := GemmParallel(a, b, append(opts, WithWorkers(1))...)
	s.Require().NoError(err)
	s.True(cmp.Equal(first.Data(), serial.Data()))
}

func (s *BlockedGemmSuite) TestInputsUnchanged() {
	a := Random(80, 50, 3)
	b := Random(50, 60, 4)
	aData, bData := a.Data(), b.Data()

	_, err := GemmParallel(a, b, WithPanelRows(16))
	s.Require().NoError(err)
	s.Equal(aData, a.Data())
	s.Equal(bData, b.Data())
}

func (s *BlockedGemmSuite) TestDimensionMismatchFailsBeforeDispatch() {
	var calls atomic.Int32
	kernel := func(a []float32, lda int, b []float32, ldb int, c []float32, ldc int, rows, kLen, cols int) {
		calls.Add(1)
	}
	exec := &recordingExecutor{}

	c, err := GemmParallel(Zeros(128, 10), Zeros(11, 4), WithKernel(kernel), WithExecutor(exec))
	s.Nil(c)
	s.True(IsDimensionMismatch(err))

	var dm *DimensionMismatchError
	s.Require().ErrorAs(err, &dm)
	s.Equal(10, dm.Expected)
	s.Equal(11, dm.Got)

	s.Zero(calls.Load())
	s.Zero(exec.calls.Load())

	_, err = GemmParallel(Zeros(2, 2), nil)
	s.ErrorIs(err, ErrNilMatrix)
}

func (s *BlockedGemmSuite) TestKernelSeesEveryTile() {
	type tile struct{ rows, kLen, cols int }
	var (
		mu    sync.Mutex
		tiles []tile
	)
	kernel := func(a []float32, lda int, b []float32, ldb int, c []float32, ldc int, rows, kLen, cols int) {
		mu.Lock()
		tiles = append(tiles, tile{rows, kLen, cols})
		mu.Unlock()
		ScalarKernel(a, lda, b, ldb, c, ldc, rows, kLen, cols)
	}

	a := Random(65, 130, 1)
	b := Random(130, 33, 2)
	s.requireMatchesNaive(a, b, WithPanelRows(64), WithTileK(64), WithKernel(kernel))

	// 2 panels x 1 column tile x 3 K tiles
	s.Len(tiles, 6)
	var sumRowsK int
	for _, tl := range tiles {
		s.Equal(33, tl.cols)
		s.Contains([]int{64, 1}, tl.rows)
		s.Contains([]int{64, 2}, tl.kLen)
		sumRowsK += tl.rows * tl.kLen
	}
	s.Equal(65*130, sumRowsK)
}

func (s *BlockedGemmSuite) TestPanicPropagates() {
	kernel := func(a []float32, lda int, b []float32, ldb int, c []float32, ldc int, rows, kLen, cols int) {
		if rows == 1 {
			panic("bad panel")
		}
		ScalarKernel(a, lda, b, ldb, c, ldc, rows, kLen, cols)
	}

	var result *Matrix
	v := recoverValue(func() {
		result, _ = GemmParallel(Random(65, 8, 1), Random(8, 8, 2), WithPanelRows(64), WithKernel(kernel))
	})
	s.Nil(result)

	pe, ok := v.(*PanelPanicError)
	s.Require().True(ok, "expected *PanelPanicError, got %T", v)
	s.Equal(1, pe.Task)
	s.Equal(Range{Start: 64, End: 65}, pe.Panel)
	s.Equal("bad panel", pe.Value)
}

func (s *BlockedGemmSuite) TestPanicPropagatesFromInlinePanel() {
	kernel := func(a []float32, lda int, b []float32, ldb int, c []float32, ldc int, rows, kLen, cols int) {
		panic("bad panel")
	}
	exec := &recordingExecutor{}

	var result *Matrix
	v := recoverValue(func() {
		result, _ = GemmParallel(Random(10, 8, 1), Random(8, 8, 2),
			WithPanelRows(64), WithKernel(kernel), WithExecutor(exec))
	})
	s.Nil(result)
	s.Zero(exec.calls.Load())

	pe, ok := v.(*PanelPanicError)
	s.Require().True(ok, "expected *PanelPanicError, got %T", v)
	s.Equal(0, pe.Task)
	s.Equal(Range{Start: 0, End: 10}, pe.Panel)
	s.Equal("bad panel", pe.Value)
	s.NotEmpty(pe.Stack)
}

func (s *BlockedGemmSuite) TestCallerOwnedPool() {
	pool := NewPool(3)
	defer pool.Close()

	for seed := uint64(0); seed < 4; seed++ {
		a := Random(130, 70, seed)
		b := Random(70, 45, seed+100)
		s.requireMatchesNaive(a, b, WithExecutor(pool), WithPanelRows(16))
	}

	// Still correct after the caller closed it
	pool.Close()
	s.requireMatchesNaive(Random(40, 40, 1), Random(40, 40, 2), WithExecutor(pool), WithPanelRows(8))
}

func (s *BlockedGemmSuite) TestSinglePanelRunsInline() {
	exec := &recordingExecutor{}
	s.requireMatchesNaive(Random(10, 20, 1), Random(20, 30, 2), WithExecutor(exec))
	s.Zero(exec.calls.Load())

	s.requireMatchesNaive(Random(100, 20, 1), Random(20, 30, 2), WithExecutor(exec), WithPanelRows(10))
	s.Equal(int32(1), exec.calls.Load())
}

// recordingExecutor counts ForkJoin calls and runs tasks serially
type recordingExecutor struct {
	calls atomic.Int32
}

func (r *recordingExecutor) ForkJoin(n int, task func(i int)) error {
	r.calls.Add(1)
	return groupExecutor{workers: 1}.ForkJoin(n, task)
}

// recoverValue runs fn and returns the value it panicked with, if any
func recoverValue(fn func()) (v any) {
	defer func() { v = recover() }()
	fn()
	return nil
}

func TestGemmParallelAllocationBound(t *testing.T) {
	a := Random(32, 32, 1)
	b := Random(32, 32, 2)

	// Single panel: the result matrix, the range slices and the plan
	allocs := testing.AllocsPerRun(10, func() {
		_, err := GemmParallel(a, b)
		require.NoError(t, err)
	})
	assert.LessOrEqual(t, allocs, float64(8))
}
