package gemm

import (
	"fmt"
	"strings"
)

// Matrix is a dense row-major float32 matrix. Element (i, j) lives at
// data[i*cols+j] and len(data) == rows*cols always holds.
//
// A Matrix is immutable once built: the constructors are the only writers,
// and accessors hand out copies.
type Matrix struct {
	rows, cols int
	data       []float32
}

// Zeros returns a rows×cols matrix filled with zeros.
// It panics if either dimension is negative.
func Zeros(rows, cols int) *Matrix {
	mustShape(rows, cols)
	return &Matrix{rows: rows, cols: cols, data: make([]float32, rows*cols)}
}

// Filled returns a rows×cols matrix with every element set to v.
func Filled(rows, cols int, v float32) *Matrix {
	m := Zeros(rows, cols)
	for i := range m.data {
		m.data[i] = v
	}
	return m
}

// FromSlice builds a rows×cols matrix from row-major data. The slice is
// copied, so later writes to data do not affect the matrix.
func FromSlice(rows, cols int, data []float32) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("gemm: FromSlice(%d, %d): %w", rows, cols, ErrInvalidShape)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("gemm: FromSlice(%d, %d): got %d elements: %w",
			rows, cols, len(data), ErrDataLength)
	}
	buf := make([]float32, len(data))
	copy(buf, data)
	return &Matrix{rows: rows, cols: cols, data: buf}, nil
}

// Identity returns the n×n identity matrix.
func Identity(n int) *Matrix {
	m := Zeros(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

func mustShape(rows, cols int) {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("gemm: negative matrix dimensions %dx%d", rows, cols))
	}
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Shape returns (rows, cols).
func (m *Matrix) Shape() (int, int) { return m.rows, m.cols }

// At returns element (i, j). Out-of-range indices panic, like slice indexing.
func (m *Matrix) At(i, j int) float32 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("gemm: index (%d,%d) out of range for %dx%d matrix", i, j, m.rows, m.cols))
	}
	return m.data[i*m.cols+j]
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float32 {
	if i < 0 || i >= m.rows {
		panic(fmt.Sprintf("gemm: row %d out of range for %dx%d matrix", i, m.rows, m.cols))
	}
	row := make([]float32, m.cols)
	copy(row, m.data[i*m.cols:(i+1)*m.cols])
	return row
}

// Data returns a copy of the row-major backing storage.
func (m *Matrix) Data() []float32 {
	out := make([]float32, len(m.data))
	copy(out, m.data)
	return out
}

// String formats the matrix one row per line.
func (m *Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		sb.WriteByte('[')
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%g", m.data[i*m.cols+j])
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
