// Package convolve provides the 2D correlate-and-downsample primitive and the
// smoothing-kernel constructors used throughout the bilateral pyramid pipeline.
// The primitive operates on single 2D planes; applying it across the depth axis
// of a volume is the caller's concern.
package convolve

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Edge selects how out-of-range samples are resolved at plane borders.
type Edge int

const (
	// EdgeReflect1 mirrors about the edge sample without duplicating it:
	// x[-1] reads x[1], x[n] reads x[n-2].
	EdgeReflect1 Edge = iota

	// EdgeReflect2 mirrors with the edge sample duplicated:
	// x[-1] reads x[0], x[n] reads x[n-1].
	EdgeReflect2

	// EdgeRepeat clamps to the nearest valid sample.
	EdgeRepeat

	// EdgeZero treats out-of-range samples as zero.
	EdgeZero

	// EdgeCircular wraps around the plane.
	EdgeCircular
)

var edgeNames = map[Edge]string{
	EdgeReflect1: "reflect1",
	EdgeReflect2: "reflect2",
	EdgeRepeat:   "repeat",
	EdgeZero:     "zero",
	EdgeCircular: "circular",
}

// String returns the canonical name of the edge mode.
func (e Edge) String() string {
	if name, ok := edgeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("edge(%d)", int(e))
}

// ParseEdge maps a mode name (as used in config files and CLI flags) to an Edge.
func ParseEdge(name string) (Edge, error) {
	for e, n := range edgeNames {
		if n == name {
			return e, nil
		}
	}
	return EdgeReflect1, fmt.Errorf("unknown edge mode %q", name)
}

// fold maps index i into [0, n) according to the edge rule.
// The second return value is false when the sample reads as zero.
func fold(i, n int, edge Edge) (int, bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch edge {
	case EdgeZero:
		return 0, false
	case EdgeRepeat:
		if i < 0 {
			return 0, true
		}
		return n - 1, true
	case EdgeCircular:
		return ((i % n) + n) % n, true
	case EdgeReflect2:
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			} else {
				i = 2*n - 1 - i
			}
		}
		return i, true
	default: // EdgeReflect1
		if n == 1 {
			return 0, true
		}
		for i < 0 || i >= n {
			if i < 0 {
				i = -i
			} else {
				i = 2*n - 2 - i
			}
		}
		return i, true
	}
}

// outDim returns the number of samples produced by subsampling start::step
// over an axis of length n. This is the size rule CorrDn guarantees.
func outDim(n, start, step int) int {
	if start >= n {
		return 0
	}
	return (n - start + step - 1) / step
}

// CorrDn correlates src with filt (no kernel flip) and subsamples the result
// by the given step and start along each axis. The filter is centered at
// ((kr-1)/2, (kc-1)/2); border samples are resolved by the edge mode.
// The output has dimensions ceil((rows-startRow)/stepRow) by
// ceil((cols-startCol)/stepCol), so a 2x2 step starting at the origin halves
// a 64x64 plane to 32x32.
func CorrDn(src, filt *mat.Dense, edge Edge, stepRow, stepCol, startRow, startCol int) *mat.Dense {
	sr, sc := src.Dims()
	kr, kc := filt.Dims()
	or := outDim(sr, startRow, stepRow)
	oc := outDim(sc, startCol, stepCol)
	cr := (kr - 1) / 2
	cc := (kc - 1) / 2
	if or == 0 || oc == 0 {
		return mat.NewDense(1, 1, nil)
	}

	dst := mat.NewDense(or, oc, nil)
	for oi := 0; oi < or; oi++ {
		si := startRow + oi*stepRow
		for oj := 0; oj < oc; oj++ {
			sj := startCol + oj*stepCol
			var sum float64
			for u := 0; u < kr; u++ {
				ri, okRow := fold(si+u-cr, sr, edge)
				if !okRow {
					continue
				}
				for v := 0; v < kc; v++ {
					cj, okCol := fold(sj+v-cc, sc, edge)
					if !okCol {
						continue
					}
					sum += filt.At(u, v) * src.At(ri, cj)
				}
			}
			dst.Set(oi, oj, sum)
		}
	}
	return dst
}

// Subsample picks every step-th sample of src starting at the given offsets,
// with no filtering. It obeys the same size rule as CorrDn, which keeps
// resampled bookkeeping planes aligned with filtered data planes.
func Subsample(src *mat.Dense, stepRow, stepCol, startRow, startCol int) *mat.Dense {
	sr, sc := src.Dims()
	or := outDim(sr, startRow, stepRow)
	oc := outDim(sc, startCol, stepCol)
	if or == 0 || oc == 0 {
		return mat.NewDense(1, 1, nil)
	}
	dst := mat.NewDense(or, oc, nil)
	for oi := 0; oi < or; oi++ {
		for oj := 0; oj < oc; oj++ {
			dst.Set(oi, oj, src.At(startRow+oi*stepRow, startCol+oj*stepCol))
		}
	}
	return dst
}

// Correlate1D computes the same-size 1D correlation of src with kern, writing
// into dst. The kernel is centered at (len(kern)-1)/2 and borders follow the
// edge mode. dst must not alias src.
func Correlate1D(dst, src, kern []float64, edge Edge) {
	n := len(src)
	k := len(kern)
	c := (k - 1) / 2
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < k; j++ {
			si, ok := fold(i+j-c, n, edge)
			if !ok {
				continue
			}
			sum += kern[j] * src[si]
		}
		dst[i] = sum
	}
}
