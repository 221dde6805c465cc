// Package gemm tolerance-based verification for floating-point comparisons
package gemm

import (
	"fmt"
	"math"
)

// ToleranceConfig defines tolerance parameters for floating-point comparison.
// Two values match if any of the absolute, relative or ULP bounds holds.
type ToleranceConfig struct {
	// AbsTol is the absolute tolerance for values near zero
	AbsTol float32

	// RelTol is the relative tolerance as a fraction of the larger value
	RelTol float32

	// ULPTol is the maximum allowed difference in ULPs (Units in Last Place)
	ULPTol int

	// CheckNaN determines if NaN values should be considered equal
	CheckNaN bool

	// CheckInf determines if Inf values should be considered equal
	CheckInf bool
}

// DefaultTolerance returns default tolerance configuration
func DefaultTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol:   1e-7,
		RelTol:   1e-5,
		ULPTol:   4,
		CheckNaN: true,
		CheckInf: true,
	}
}

// StrictTolerance returns strict tolerance configuration for high precision
func StrictTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol:   1e-9,
		RelTol:   1e-7,
		ULPTol:   1,
		CheckNaN: true,
		CheckInf: true,
	}
}

// RelaxedTolerance returns relaxed tolerance for accumulated operations
func RelaxedTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol:   1e-5,
		RelTol:   1e-3,
		ULPTol:   16,
		CheckNaN: true,
		CheckInf: true,
	}
}

// GEMMTolerance is the documented equivalence bound between GemmParallel and
// GemmNaive: 1e-6 relative for typical magnitudes, with a matching absolute
// floor for elements that cancel to near zero.
func GEMMTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol:   1e-6,
		RelTol:   1e-6,
		ULPTol:   4,
		CheckNaN: true,
		CheckInf: true,
	}
}

// Float32NearEqual checks if two float32 values are equal within tolerance
func Float32NearEqual(a, b float32, tol ToleranceConfig) bool {
	// Handle special cases
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return tol.CheckNaN && math.IsNaN(float64(a)) && math.IsNaN(float64(b))
	}

	if math.IsInf(float64(a), 0) || math.IsInf(float64(b), 0) {
		return tol.CheckInf && a == b
	}

	// Check if exactly equal (handles ±0)
	if a == b {
		return true
	}

	diff := math.Abs(float64(a) - float64(b))
	if diff <= float64(tol.AbsTol) {
		return true
	}

	larger := math.Max(math.Abs(float64(a)), math.Abs(float64(b)))
	if diff <= larger*float64(tol.RelTol) {
		return true
	}

	if tol.ULPTol > 0 && Float32ULPDiff(a, b) <= tol.ULPTol {
		return true
	}

	return false
}

// Float32ULPDiff computes the difference in ULPs between two float32 values.
// Values of different sign return math.MaxInt32.
func Float32ULPDiff(a, b float32) int {
	aBits := math.Float32bits(a)
	bBits := math.Float32bits(b)

	if (aBits^bBits)&0x80000000 != 0 {
		// ±0 are the same value
		if a == b {
			return 0
		}
		return math.MaxInt32
	}

	if aBits > bBits {
		return int(aBits - bBits)
	}
	return int(bBits - aBits)
}

// VerificationResult summarizes an element-wise comparison
type VerificationResult struct {
	MaxAbsError float32
	MaxRelError float32
	MaxULPError int
	NumErrors   int
	TotalItems  int
	FirstError  int // Index of first error, -1 if none
}

// VerifyFloat32Array compares two float32 arrays and returns detailed results.
// The Max* fields track the worst deviation over all elements, not only the
// failing ones.
func VerifyFloat32Array(expected, actual []float32, tol ToleranceConfig) VerificationResult {
	result := VerificationResult{
		TotalItems: len(expected),
		FirstError: -1,
	}

	if len(expected) != len(actual) {
		result.NumErrors = max(len(expected), len(actual))
		result.FirstError = min(len(expected), len(actual))
		return result
	}

	for i := range expected {
		e, a := expected[i], actual[i]
		if !Float32NearEqual(e, a, tol) {
			result.NumErrors++
			if result.FirstError == -1 {
				result.FirstError = i
			}
		}

		if math.IsNaN(float64(e)) || math.IsNaN(float64(a)) || math.IsInf(float64(e), 0) || math.IsInf(float64(a), 0) {
			continue
		}

		absDiff := float32(math.Abs(float64(e) - float64(a)))
		if absDiff > result.MaxAbsError {
			result.MaxAbsError = absDiff
		}
		if e != 0 {
			relDiff := absDiff / float32(math.Abs(float64(e)))
			if relDiff > result.MaxRelError {
				result.MaxRelError = relDiff
			}
		}
		if ulp := Float32ULPDiff(e, a); ulp != math.MaxInt32 && ulp > result.MaxULPError {
			result.MaxULPError = ulp
		}
	}

	return result
}

// VerifyMatrix compares two matrices element-wise. It returns
// ErrShapeMismatch when the shapes differ.
func VerifyMatrix(expected, actual *Matrix, tol ToleranceConfig) (VerificationResult, error) {
	if expected == nil || actual == nil {
		return VerificationResult{FirstError: -1}, fmt.Errorf("gemm: VerifyMatrix: %w", ErrNilMatrix)
	}
	if expected.rows != actual.rows || expected.cols != actual.cols {
		return VerificationResult{FirstError: -1}, fmt.Errorf("gemm: VerifyMatrix: %dx%d vs %dx%d: %w",
			expected.rows, expected.cols, actual.rows, actual.cols, ErrShapeMismatch)
	}
	return VerifyFloat32Array(expected.data, actual.data, tol), nil
}

// Passed reports whether every element matched
func (r VerificationResult) Passed() bool {
	return r.NumErrors == 0
}

// String formats the verification result for display
func (r VerificationResult) String() string {
	if r.NumErrors == 0 {
		return fmt.Sprintf("PASS: All %d values match within tolerance (max abs %e, max rel %e, max ULP %d)",
			r.TotalItems, r.MaxAbsError, r.MaxRelError, r.MaxULPError)
	}

	errorRate := 100.0
	if r.TotalItems > 0 {
		errorRate = float64(r.NumErrors) / float64(r.TotalItems) * 100
	}
	return fmt.Sprintf("FAIL: %d/%d values differ (%.2f%%)\n"+
		"  Max absolute error: %e\n"+
		"  Max relative error: %e\n"+
		"  Max ULP difference: %d\n"+
		"  First error at index: %d",
		r.NumErrors, r.TotalItems, errorRate,
		r.MaxAbsError, r.MaxRelError, r.MaxULPError,
		r.FirstError)
}
