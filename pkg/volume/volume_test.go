package volume

import (
	"math"
	"testing"
)

// TestDepthParams verifies bin derivation, centers and validation.
func TestDepthParams(t *testing.T) {
	params := DepthParams{Min: 0, Max: 10, Sigma: 2.5}
	if got := params.Bins(); got != 5 {
		t.Errorf("Bins() = %d, want 5", got)
	}

	centers := params.Centers()
	want := []float64{0, 2.5, 5, 7.5, 10}
	if len(centers) != len(want) {
		t.Fatalf("got %d centers, want %d", len(centers), len(want))
	}
	for i := range want {
		if centers[i] != want[i] {
			t.Errorf("center %d = %f, want %f", i, centers[i], want[i])
		}
	}

	// Degenerate but legal range: a single bin.
	if got := (DepthParams{Min: 0, Max: 0, Sigma: 1}).Bins(); got != 1 {
		t.Errorf("single-bin range: Bins() = %d, want 1", got)
	}

	if err := (DepthParams{Min: 0, Max: 1, Sigma: 0}).Validate(); err == nil {
		t.Error("expected error for zero sigma")
	}
	if err := (DepthParams{Min: 2, Max: 1, Sigma: 1}).Validate(); err == nil {
		t.Error("expected error for inverted range")
	}
}

// TestScatterPlacesValues verifies that pixels land in the rounded depth bin
// with unit weight and that the bookkeeping planes are initialized.
func TestScatterPlacesValues(t *testing.T) {
	image := []float64{1, 2, 3, 4}
	depth := []float64{0, 1, 2, 0.4}

	v, err := Scatter(image, depth, 2, 2, DepthParams{Min: 0, Max: 2, Sigma: 1})
	if err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}
	if v.Rows != 2 || v.Cols != 2 || v.Depth != 3 {
		t.Fatalf("unexpected shape %dx%dx%d", v.Rows, v.Cols, v.Depth)
	}

	checks := []struct {
		d, r, c int
		value   float64
	}{
		{0, 0, 0, 1},
		{1, 0, 1, 2},
		{2, 1, 0, 3},
		{0, 1, 1, 4}, // 0.4 rounds down to bin 0
	}
	for _, ck := range checks {
		if got := v.At(ck.d, ck.r, ck.c); got != ck.value {
			t.Errorf("At(%d,%d,%d) = %f, want %f", ck.d, ck.r, ck.c, got, ck.value)
		}
		if got := v.WeightAt(ck.d, ck.r, ck.c); got != 1 {
			t.Errorf("WeightAt(%d,%d,%d) = %f, want 1", ck.d, ck.r, ck.c, got)
		}
	}

	var weightSum float64
	for _, w := range v.Weights {
		weightSum += w
	}
	if weightSum != 4 {
		t.Errorf("total weight = %f, want 4", weightSum)
	}

	// Identity index planes at build time.
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			if v.RowIndex[r*2+c] != float64(r) || v.ColIndex[r*2+c] != float64(c) {
				t.Errorf("index planes not identity at (%d,%d)", r, c)
			}
		}
	}

	if v.DepthMap[3] != 0.4 {
		t.Errorf("DepthMap kept %f, want fractional coordinate 0.4", v.DepthMap[3])
	}
}

// TestScatterSkipsMissing verifies that NaN intensities and non-finite
// depths leave their voxels unvisited.
func TestScatterSkipsMissing(t *testing.T) {
	image := []float64{math.NaN(), 2, 3}
	depth := []float64{0, math.NaN(), math.Inf(1)}

	v, err := Scatter(image, depth, 1, 3, DepthParams{Min: 0, Max: 0, Sigma: 1})
	if err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}

	for i, w := range v.Weights {
		if w != 0 {
			t.Errorf("voxel %d has weight %f, want 0", i, w)
		}
	}
	if v.DepthMap[0] != 0 {
		t.Errorf("DepthMap[0] = %f, want 0 (depth was valid)", v.DepthMap[0])
	}
	if !math.IsNaN(v.DepthMap[1]) || !math.IsNaN(v.DepthMap[2]) {
		t.Error("missing depths should record NaN in DepthMap")
	}
}

// TestScatterClampsDepth verifies that finite out-of-range depths clamp to
// the boundary bins instead of being dropped.
func TestScatterClampsDepth(t *testing.T) {
	image := []float64{5, 6}
	depth := []float64{-100, 100}

	v, err := Scatter(image, depth, 1, 2, DepthParams{Min: 0, Max: 2, Sigma: 1})
	if err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}

	if got := v.At(0, 0, 0); got != 5 {
		t.Errorf("low outlier: At(0,0,0) = %f, want 5", got)
	}
	if got := v.At(2, 0, 1); got != 6 {
		t.Errorf("high outlier: At(2,0,1) = %f, want 6", got)
	}
}

// TestScatterRejectsBadShapes verifies the fatal input checks.
func TestScatterRejectsBadShapes(t *testing.T) {
	if _, err := Scatter(make([]float64, 3), make([]float64, 4), 2, 2, DepthParams{Min: 0, Max: 1, Sigma: 1}); err == nil {
		t.Error("expected error for image length mismatch")
	}
	if _, err := Scatter(make([]float64, 4), make([]float64, 3), 2, 2, DepthParams{Min: 0, Max: 1, Sigma: 1}); err == nil {
		t.Error("expected error for depth map length mismatch")
	}
	if _, err := Scatter(make([]float64, 4), make([]float64, 4), 2, 2, DepthParams{Min: 0, Max: 1, Sigma: -1}); err == nil {
		t.Error("expected error for invalid depth params")
	}
}

// TestDensifyRestoresObserved verifies the restoration invariant: voxels
// with direct support keep their scattered data and weight bit-for-bit.
func TestDensifyRestoresObserved(t *testing.T) {
	image := []float64{
		0.1, 0.9, 0.3,
		0.7, 0.5, 0.2,
		0.8, 0.4, 0.6,
	}
	depth := []float64{
		0, 1, 2,
		2, 1, 0,
		1, 0, 2,
	}
	v, err := Scatter(image, depth, 3, 3, DepthParams{Min: 0, Max: 2, Sigma: 1})
	if err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}

	before := v.Clone()
	v.Densify(DefaultSmoothing())

	for i, w := range before.Weights {
		if w == 0 {
			continue
		}
		if v.Data[i] != before.Data[i] {
			t.Errorf("observed voxel %d changed: %f -> %f", i, before.Data[i], v.Data[i])
		}
		if v.Weights[i] != before.Weights[i] {
			t.Errorf("observed voxel %d weight changed: %f -> %f", i, before.Weights[i], v.Weights[i])
		}
	}
}

// TestDensifyEmptyVolume verifies that a volume with no observations stays
// all zero with a zero validity mask.
func TestDensifyEmptyVolume(t *testing.T) {
	v := New(4, 4, 2)
	v.Densify(DefaultSmoothing())

	for i := range v.Data {
		if v.Data[i] != 0 || v.Weights[i] != 0 {
			t.Fatalf("voxel %d: data %f weight %f, want zeros", i, v.Data[i], v.Weights[i])
		}
	}
}

// TestDensifyFillsFromSingleSource verifies gap filling: with one observed
// pixel, every reachable voxel is filled with that pixel's value (the
// smoothed data/weight ratio collapses to the source value) and nothing is
// left NaN.
func TestDensifyFillsFromSingleSource(t *testing.T) {
	nan := math.NaN()
	image := []float64{
		nan, nan, nan, nan,
		nan, 5, nan, nan,
		nan, nan, nan, nan,
		nan, nan, nan, nan,
	}
	depth := make([]float64, 16)

	v, err := Scatter(image, depth, 4, 4, DepthParams{Min: 0, Max: 0, Sigma: 1})
	if err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}
	v.Densify(DefaultSmoothing())

	// Radius-2 spatial kernel reaches every cell of a 4x4 plane from (1,1).
	for i, got := range v.Data {
		if math.IsNaN(got) {
			t.Fatalf("voxel %d is NaN after densify", i)
		}
		if math.Abs(got-5) > 1e-9 {
			t.Errorf("voxel %d = %f, want 5 (single-source fill)", i, got)
		}
		if v.Weights[i] != 1 {
			t.Errorf("voxel %d weight = %f, want 1", i, v.Weights[i])
		}
	}
}

// TestAddAccumulates verifies that Add sums contributions and counts them
// in the weight channel instead of overwriting.
func TestAddAccumulates(t *testing.T) {
	v := New(2, 2, 1)
	v.Add(0, 1, 0, 2.5)
	v.Add(0, 1, 0, 1.5)

	if got := v.At(0, 1, 0); got != 4 {
		t.Errorf("At(0,1,0) = %f, want 4", got)
	}
	if got := v.WeightAt(0, 1, 0); got != 2 {
		t.Errorf("WeightAt(0,1,0) = %f, want 2", got)
	}
}

// TestPromoteComplex verifies the real-to-complex promotion rule.
func TestPromoteComplex(t *testing.T) {
	v := New(2, 2, 1)
	for i := range v.Data {
		v.Data[i] = float64(i + 1)
	}

	if v.Complex() {
		t.Fatal("fresh volume should be real")
	}
	v.PromoteComplex()
	if !v.Complex() {
		t.Fatal("promotion did not attach an imaginary channel")
	}
	for i := range v.Data {
		if v.Imag[i] != v.Data[i] {
			t.Errorf("Imag[%d] = %f, want %f", i, v.Imag[i], v.Data[i])
		}
	}

	// Promoting again must not clobber an existing imaginary channel.
	v.Imag[0] = -7
	v.PromoteComplex()
	if v.Imag[0] != -7 {
		t.Error("second promotion overwrote the imaginary channel")
	}
}

// TestCloneIsDeep verifies that mutating a clone leaves the source intact.
func TestCloneIsDeep(t *testing.T) {
	v := New(2, 2, 2)
	v.Set(1, 0, 1, 3.5)
	v.PromoteComplex()

	c := v.Clone()
	c.Set(1, 0, 1, -1)
	c.Weights[0] = 9
	c.Imag[0] = 9
	c.DepthMap[0] = 9

	if v.At(1, 0, 1) != 3.5 || v.Weights[0] != 0 || v.Imag[0] != 0 || v.DepthMap[0] != 0 {
		t.Error("clone shares storage with its source")
	}
}
