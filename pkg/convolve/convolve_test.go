package convolve

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// TestCorrDnSizeRule verifies the ceil((n-start)/step) output size rule for
// the combinations the pyramid recursion relies on.
func TestCorrDnSizeRule(t *testing.T) {
	filt := mat.NewDense(3, 3, []float64{0, 0, 0, 0, 1, 0, 0, 0, 0})

	tests := []struct {
		rows, cols         int
		stepRow, stepCol   int
		startRow, startCol int
		wantRows, wantCols int
	}{
		{64, 64, 1, 1, 0, 0, 64, 64},
		{64, 64, 2, 2, 0, 0, 32, 32},
		{5, 5, 2, 2, 0, 0, 3, 3},
		{5, 5, 2, 2, 1, 1, 2, 2},
		{7, 4, 2, 2, 0, 0, 4, 2},
	}

	for _, tt := range tests {
		src := mat.NewDense(tt.rows, tt.cols, nil)
		out := CorrDn(src, filt, EdgeReflect1, tt.stepRow, tt.stepCol, tt.startRow, tt.startCol)
		r, c := out.Dims()
		if r != tt.wantRows || c != tt.wantCols {
			t.Errorf("CorrDn(%dx%d, step %d/%d, start %d/%d) = %dx%d, want %dx%d",
				tt.rows, tt.cols, tt.stepRow, tt.stepCol, tt.startRow, tt.startCol,
				r, c, tt.wantRows, tt.wantCols)
		}
	}
}

// TestCorrDnIdentityFilter verifies that a unit impulse filter at step 1
// reproduces the input plane exactly.
func TestCorrDnIdentityFilter(t *testing.T) {
	src := mat.NewDense(4, 4, []float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})
	filt := mat.NewDense(1, 1, []float64{1})

	out := CorrDn(src, filt, EdgeReflect1, 1, 1, 0, 0)
	if !mat.EqualApprox(src, out, 1e-12) {
		t.Errorf("identity filter changed the plane:\ngot %v\nwant %v",
			mat.Formatted(out), mat.Formatted(src))
	}
}

// TestCorrDnNoFlip verifies that CorrDn correlates rather than convolves:
// an asymmetric filter reads its taps in place, without flipping.
func TestCorrDnNoFlip(t *testing.T) {
	// Impulse in the middle of a 5x5 plane.
	src := mat.NewDense(5, 5, nil)
	src.Set(2, 2, 1)
	filt := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})

	out := CorrDn(src, filt, EdgeZero, 1, 1, 0, 0)

	// Correlation with an impulse yields the filter reversed around the
	// impulse position: out(2+d) picks up filt(center-d).
	for u := 0; u < 3; u++ {
		for v := 0; v < 3; v++ {
			got := out.At(2+1-u, 2+1-v)
			if got != filt.At(u, v) {
				t.Errorf("tap (%d,%d): got %f, want %f", u, v, got, filt.At(u, v))
			}
		}
	}
}

// TestEdgeModes verifies each border rule through a 1D correlation that
// reads one sample to the left of every position.
func TestEdgeModes(t *testing.T) {
	src := []float64{10, 20, 30, 40}
	kern := []float64{1, 0, 0} // centered at index 1: dst[i] = src[i-1]

	tests := []struct {
		edge  Edge
		want0 float64 // value read at i=0, i.e. src[-1] under the edge rule
	}{
		{EdgeReflect1, 20}, // mirror about src[0]
		{EdgeReflect2, 10}, // mirror duplicating src[0]
		{EdgeRepeat, 10},
		{EdgeZero, 0},
		{EdgeCircular, 40},
	}

	for _, tt := range tests {
		dst := make([]float64, len(src))
		Correlate1D(dst, src, kern, tt.edge)
		if dst[0] != tt.want0 {
			t.Errorf("%s: dst[0] = %f, want %f", tt.edge, dst[0], tt.want0)
		}
		for i := 1; i < len(src); i++ {
			if dst[i] != src[i-1] {
				t.Errorf("%s: dst[%d] = %f, want %f", tt.edge, i, dst[i], src[i-1])
			}
		}
	}
}

// TestFoldSmallPlane verifies that reflection modes terminate and stay in
// range even when the kernel is wider than the plane.
func TestFoldSmallPlane(t *testing.T) {
	for _, edge := range []Edge{EdgeReflect1, EdgeReflect2, EdgeRepeat, EdgeCircular} {
		for n := 1; n <= 3; n++ {
			for i := -7; i <= 7; i++ {
				j, ok := fold(i, n, edge)
				if !ok || j < 0 || j >= n {
					t.Fatalf("%s: fold(%d, %d) = %d, %v out of range", edge, i, n, j, ok)
				}
			}
		}
	}
}

// TestGaussian1D verifies kernel length, normalization and symmetry.
func TestGaussian1D(t *testing.T) {
	kern := Gaussian1D(1.0)

	if len(kern) != 5 {
		t.Errorf("expected length 5 for sigma=1, got %d", len(kern))
	}
	if math.Abs(floats.Sum(kern)-1.0) > 1e-12 {
		t.Errorf("kernel sum = %f, want 1", floats.Sum(kern))
	}
	for i := 0; i < len(kern)/2; i++ {
		if math.Abs(kern[i]-kern[len(kern)-1-i]) > 1e-12 {
			t.Errorf("kernel not symmetric at %d: %f vs %f", i, kern[i], kern[len(kern)-1-i])
		}
	}
	mid := len(kern) / 2
	for i, v := range kern {
		if i != mid && v >= kern[mid] {
			t.Errorf("kernel peak not at center: kern[%d]=%f >= kern[%d]=%f", i, v, mid, kern[mid])
		}
	}

	if got := Gaussian1D(0); len(got) != 1 || got[0] != 1 {
		t.Errorf("sigma=0 should degenerate to identity, got %v", got)
	}
}

// TestStudentsT2D verifies normalization, symmetry and that the tails are
// heavier than a Gaussian of matching spread.
func TestStudentsT2D(t *testing.T) {
	kern := StudentsT2D(0.75, 3, 2)

	r, c := kern.Dims()
	if r != 5 || c != 5 {
		t.Fatalf("expected 5x5 kernel for radius 2, got %dx%d", r, c)
	}
	if math.Abs(mat.Sum(kern)-1.0) > 1e-12 {
		t.Errorf("kernel sum = %f, want 1", mat.Sum(kern))
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(kern.At(i, j)-kern.At(r-1-i, c-1-j)) > 1e-12 {
				t.Errorf("kernel not symmetric at (%d,%d)", i, j)
			}
			if kern.At(i, j) <= 0 {
				t.Errorf("kernel tap (%d,%d) not positive: %f", i, j, kern.At(i, j))
			}
		}
	}

	// A Gaussian with sigma=0.75 puts essentially nothing at offset 2;
	// the t distribution keeps a visible tail there.
	corner := kern.At(0, 0)
	center := kern.At(2, 2)
	if corner/center < 1e-4 {
		t.Errorf("tails too light for a Student's t kernel: corner/center = %e", corner/center)
	}
}

// TestSubsample verifies plain decimation against hand-picked samples.
func TestSubsample(t *testing.T) {
	src := mat.NewDense(4, 4, []float64{
		0, 1, 2, 3,
		10, 11, 12, 13,
		20, 21, 22, 23,
		30, 31, 32, 33,
	})

	out := Subsample(src, 2, 2, 1, 0)
	r, c := out.Dims()
	if r != 2 || c != 2 {
		t.Fatalf("expected 2x2, got %dx%d", r, c)
	}
	want := [][]float64{{10, 12}, {30, 32}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if out.At(i, j) != want[i][j] {
				t.Errorf("sample (%d,%d) = %f, want %f", i, j, out.At(i, j), want[i][j])
			}
		}
	}
}

// TestParseEdge verifies the name round trip and the error path.
func TestParseEdge(t *testing.T) {
	for _, name := range []string{"reflect1", "reflect2", "repeat", "zero", "circular"} {
		e, err := ParseEdge(name)
		if err != nil {
			t.Errorf("ParseEdge(%q) failed: %v", name, err)
			continue
		}
		if e.String() != name {
			t.Errorf("round trip %q -> %q", name, e.String())
		}
	}

	if _, err := ParseEdge("mirror"); err == nil {
		t.Error("expected error for unknown edge mode")
	}
}
