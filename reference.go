// Package gemm reference implementation for verification
package gemm

// GemmNaive computes C = A·B with the textbook triple loop.
//
// For every (i, j) it starts from zero and adds A[i,k]·B[k,j] for k in
// increasing order with plain float32 addition. That order defines the
// reference result every other implementation is checked against.
//
// It fails with a *DimensionMismatchError when A.Cols() != B.Rows(); no
// result is allocated in that case. Cost is O(m·n·k) and no attempt is made
// to use the cache well.
func GemmNaive(a, b *Matrix) (*Matrix, error) {
	if err := checkOperands("GemmNaive", a, b); err != nil {
		return nil, err
	}

	m, n, k := a.rows, b.cols, a.cols
	c := Zeros(m, n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float32
			for p := 0; p < k; p++ {
				sum += a.data[i*k+p] * b.data[p*n+j]
			}
			c.data[i*n+j] = sum
		}
	}
	return c, nil
}
