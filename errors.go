// Package gemm structured error types
package gemm

import (
	"errors"
	"fmt"
)

// Sentinel errors. Structured errors below match them under errors.Is.
var (
	// ErrDimensionMismatch reports that A.Cols() != B.Rows()
	ErrDimensionMismatch = errors.New("gemm: dimension mismatch")

	// ErrNilMatrix reports a nil operand
	ErrNilMatrix = errors.New("gemm: nil matrix")

	// ErrInvalidShape reports negative dimensions
	ErrInvalidShape = errors.New("gemm: invalid shape")

	// ErrDataLength reports a backing slice whose length is not rows*cols
	ErrDataLength = errors.New("gemm: data length does not match shape")

	// ErrShapeMismatch reports two matrices compared with different shapes
	ErrShapeMismatch = errors.New("gemm: shape mismatch")
)

// DimensionMismatchError is returned when the inner dimensions of a product
// disagree. Expected is A.Cols(), Got is B.Rows().
type DimensionMismatchError struct {
	Op       string // Operation that failed
	Expected int
	Got      int
}

// Error implements the error interface
func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("gemm: %s: dimension mismatch: A has %d columns, B has %d rows",
		e.Op, e.Expected, e.Got)
}

// Is reports whether target is ErrDimensionMismatch
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// PanelPanicError carries a panic recovered inside a parallel panel task.
// GemmParallel re-panics with it on the calling goroutine.
type PanelPanicError struct {
	Task  int    // Index of the task passed to Executor.ForkJoin
	Panel Range  // Row range the task was computing
	Value any    // Value passed to panic
	Stack []byte // Stack of the panicking goroutine
}

// Error implements the error interface
func (e *PanelPanicError) Error() string {
	return fmt.Sprintf("gemm: panic in panel rows [%d,%d): %v", e.Panel.Start, e.Panel.End, e.Value)
}

// Unwrap returns the panic value when it is an error
func (e *PanelPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// newDimensionMismatch builds the error for a failed compatibility check
func newDimensionMismatch(op string, a, b *Matrix) error {
	return &DimensionMismatchError{Op: op, Expected: a.cols, Got: b.rows}
}

// checkOperands validates a and b for the product a·b
func checkOperands(op string, a, b *Matrix) error {
	if a == nil || b == nil {
		return fmt.Errorf("gemm: %s: %w", op, ErrNilMatrix)
	}
	if a.cols != b.rows {
		return newDimensionMismatch(op, a, b)
	}
	return nil
}

// IsDimensionMismatch checks if an error reports incompatible operands
func IsDimensionMismatch(err error) bool {
	return errors.Is(err, ErrDimensionMismatch)
}

// IsPanelPanic checks if an error carries a recovered panel panic
func IsPanelPanic(err error) bool {
	var pe *PanelPanicError
	return errors.As(err, &pe)
}
