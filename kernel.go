package gemm

// TileKernel accumulates one tile product into C:
//
//	c[i*ldc+j] += Σ_{p<kLen} a[i*lda+p] * b[p*ldb+j]   for i < rows, j < cols
//
// a, b and c are views that start at the tile's first element; lda, ldb and
// ldc are the row strides of the underlying matrices. For a fixed (i, j) the
// products must be added in increasing p order so that results stay
// deterministic and within tolerance of GemmNaive.
//
// A kernel only ever sees the rows of c owned by the calling panel. This is
// the hook for a vectorized micro-kernel.
type TileKernel func(a []float32, lda int, b []float32, ldb int, c []float32, ldc int, rows, kLen, cols int)

// ScalarKernel is the portable TileKernel. It runs i → k → j so the inner
// loop streams one row of B and one row of C.
func ScalarKernel(a []float32, lda int, b []float32, ldb int, c []float32, ldc int, rows, kLen, cols int) {
	for i := 0; i < rows; i++ {
		aRow := a[i*lda : i*lda+kLen]
		cRow := c[i*ldc : i*ldc+cols]
		for p, aip := range aRow {
			bRow := b[p*ldb : p*ldb+cols]
			for j, bpj := range bRow {
				cRow[j] += aip * bpj
			}
		}
	}
}
