package gemm

// Range is a half-open index interval [Start, End).
type Range struct {
	Start, End int
}

// Len returns End - Start.
func (r Range) Len() int { return r.End - r.Start }

// Partition splits [0, n) into consecutive ranges of length size. The last
// range is clamped to n, so it may be shorter. The ranges are disjoint and
// cover [0, n) exactly; n == 0 yields no ranges.
//
// Panel and tile ranges are all produced here, before any work is
// dispatched, which is what gives each panel task exclusive ownership of its
// rows of C.
func Partition(n, size int) []Range {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = n
	}
	out := make([]Range, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		out = append(out, Range{Start: start, End: min(start+size, n)})
	}
	return out
}
