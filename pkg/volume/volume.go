// Package volume implements the depth-extended representation of an image:
// a 3D grid of intensity samples and accumulation weights indexed by
// (depth bin, row, col), together with the bookkeeping planes that track how
// the grid relates to the original full-resolution image as the pyramid
// recursion resamples it.
package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Volume is a 3D weighted sample grid. Data and Weights are flattened
// depth-major: sample (d, r, c) lives at d*Rows*Cols + r*Cols + c, so each
// depth slice is a contiguous rows-by-cols plane. Imag is nil for real
// volumes and mirrors the Data layout when a band is complex-valued.
type Volume struct {
	// Data holds the intensity samples, one plane per depth bin.
	Data []float64

	// Imag holds the imaginary parts of complex samples; nil while the
	// volume is real-valued.
	Imag []float64

	// Weights holds the accumulation weight per voxel. A zero weight marks
	// a voxel with no observed data; after normalization the channel is a
	// binary validity mask.
	Weights []float64

	// RowIndex and ColIndex give, per spatial cell, the original
	// full-resolution coordinate it descends from. They start as the
	// identity and are resampled in step with every downsample.
	RowIndex []float64
	ColIndex []float64

	// DepthMap gives the fractional depth-bin coordinate per spatial cell,
	// NaN where the input depth was missing. It is bookkeeping for later
	// sampling, never read by the recursion itself.
	DepthMap []float64

	// Rows and Cols are the current spatial resolution; Depth is the number
	// of depth bins, which never changes across pyramid levels.
	Rows, Cols, Depth int
}

// New allocates a zeroed volume of the given shape with identity row/col
// index planes.
func New(rows, cols, depth int) *Volume {
	v := &Volume{
		Data:     make([]float64, rows*cols*depth),
		Weights:  make([]float64, rows*cols*depth),
		RowIndex: make([]float64, rows*cols),
		ColIndex: make([]float64, rows*cols),
		DepthMap: make([]float64, rows*cols),
		Rows:     rows,
		Cols:     cols,
		Depth:    depth,
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v.RowIndex[r*cols+c] = float64(r)
			v.ColIndex[r*cols+c] = float64(c)
		}
	}
	return v
}

func (v *Volume) idx(d, r, c int) int {
	return d*v.Rows*v.Cols + r*v.Cols + c
}

// At returns the data sample at (d, r, c).
func (v *Volume) At(d, r, c int) float64 {
	return v.Data[v.idx(d, r, c)]
}

// Set stores a data sample at (d, r, c).
func (v *Volume) Set(d, r, c int, value float64) {
	v.Data[v.idx(d, r, c)] = value
}

// Add accumulates value into the data sample at (d, r, c) and increments
// the voxel's weight.
func (v *Volume) Add(d, r, c int, value float64) {
	i := v.idx(d, r, c)
	v.Data[i] += value
	v.Weights[i]++
}

// WeightAt returns the accumulation weight at (d, r, c).
func (v *Volume) WeightAt(d, r, c int) float64 {
	return v.Weights[v.idx(d, r, c)]
}

// Slice returns the contiguous data plane for depth bin d.
func (v *Volume) Slice(d int) []float64 {
	n := v.Rows * v.Cols
	return v.Data[d*n : (d+1)*n]
}

// WeightSlice returns the contiguous weight plane for depth bin d.
func (v *Volume) WeightSlice(d int) []float64 {
	n := v.Rows * v.Cols
	return v.Weights[d*n : (d+1)*n]
}

// ImagSlice returns the contiguous imaginary plane for depth bin d, or nil
// for a real volume.
func (v *Volume) ImagSlice(d int) []float64 {
	if v.Imag == nil {
		return nil
	}
	n := v.Rows * v.Cols
	return v.Imag[d*n : (d+1)*n]
}

// Plane wraps the data plane for depth bin d as a gonum matrix without
// copying; writes through the view mutate the volume.
func (v *Volume) Plane(d int) *mat.Dense {
	return mat.NewDense(v.Rows, v.Cols, v.Slice(d))
}

// WeightPlane wraps the weight plane for depth bin d without copying.
func (v *Volume) WeightPlane(d int) *mat.Dense {
	return mat.NewDense(v.Rows, v.Cols, v.WeightSlice(d))
}

// Complex reports whether the volume carries an imaginary channel.
func (v *Volume) Complex() bool {
	return v.Imag != nil
}

// PromoteComplex gives a real volume an imaginary channel that duplicates
// its data, so the sample type matches bands produced by complex filters.
// Promoting an already-complex volume is a no-op.
func (v *Volume) PromoteComplex() {
	if v.Imag != nil {
		return
	}
	v.Imag = append([]float64(nil), v.Data...)
}

// Clone returns a deep copy of the volume.
func (v *Volume) Clone() *Volume {
	out := &Volume{
		Data:     append([]float64(nil), v.Data...),
		Weights:  append([]float64(nil), v.Weights...),
		RowIndex: append([]float64(nil), v.RowIndex...),
		ColIndex: append([]float64(nil), v.ColIndex...),
		DepthMap: append([]float64(nil), v.DepthMap...),
		Rows:     v.Rows,
		Cols:     v.Cols,
		Depth:    v.Depth,
	}
	if v.Imag != nil {
		out.Imag = append([]float64(nil), v.Imag...)
	}
	return out
}

// DepthParams describe the depth axis: the physical range covered and the
// bin width dSigma, which doubles as the depth-smoothing bandwidth.
type DepthParams struct {
	Min   float64
	Max   float64
	Sigma float64
}

// Validate rejects parameter sets that cannot produce a well-formed axis.
func (p DepthParams) Validate() error {
	if p.Sigma <= 0 {
		return fmt.Errorf("depth sigma must be positive, got %f", p.Sigma)
	}
	if p.Max < p.Min {
		return fmt.Errorf("depth range inverted: min %f > max %f", p.Min, p.Max)
	}
	return nil
}

// Bins returns the number of depth bins, floor((max-min)/sigma) + 1.
func (p DepthParams) Bins() int {
	return int(math.Floor((p.Max-p.Min)/p.Sigma)) + 1
}

// Centers returns the physical depth represented by each bin index.
func (p DepthParams) Centers() []float64 {
	centers := make([]float64, p.Bins())
	for k := range centers {
		centers[k] = p.Min + float64(k)*p.Sigma
	}
	return centers
}

// binCoord maps a raw depth value to its fractional bin coordinate.
func (p DepthParams) binCoord(depth float64) float64 {
	return (depth - p.Min) / p.Sigma
}
