package volume

import (
	"gonum.org/v1/gonum/mat"

	"depthpyr/pkg/convolve"
)

// SmoothingParams control the two-stage pre-smoothing that fills gaps in a
// freshly scattered volume: a heavy-tailed spatial pass over every depth
// slice, then a Gaussian pass along the depth axis.
type SmoothingParams struct {
	// SpatialSpread and SpatialNu shape the Student's t kernel applied to
	// each depth slice; SpatialRadius sets its half-width in pixels.
	SpatialSpread float64
	SpatialNu     float64
	SpatialRadius int

	// DepthSigma is the Gaussian bandwidth along the depth axis, expressed
	// in bin units. The bin width equals the physical depth sigma, so this
	// is 1 unless deliberately detuned.
	DepthSigma float64
}

// DefaultSmoothing returns the smoothing settings used by the pipeline.
func DefaultSmoothing() SmoothingParams {
	return SmoothingParams{
		SpatialSpread: 0.75,
		SpatialNu:     3,
		SpatialRadius: 2,
		DepthSigma:    1,
	}
}

// Densify fills voxels that received no direct observation. Both the data
// and weight channels are smoothed spatially and along the depth axis, the
// data is normalized by the smoothed weights, and every voxel that had
// direct support before smoothing is restored verbatim from a snapshot, so
// observed samples pass through the pipeline untouched.
//
// After Densify the weight channel is a binary validity mask except at
// restored voxels, which keep their accumulated counts.
func (v *Volume) Densify(params SmoothingParams) {
	observed := make([]bool, len(v.Weights))
	for i, w := range v.Weights {
		observed[i] = w != 0
	}
	origData := append([]float64(nil), v.Data...)
	origWeights := append([]float64(nil), v.Weights...)

	v.smoothSpatial(params)
	v.smoothDepth(params)

	// Normalize by the smoothed weights. Voxels with no support anywhere in
	// their smoothing neighborhood read as plain zero, never NaN.
	for i := range v.Data {
		if v.Weights[i] > 0 {
			v.Data[i] /= v.Weights[i]
			v.Weights[i] = 1
		} else {
			v.Data[i] = 0
			v.Weights[i] = 0
		}
	}

	// Masked overwrite with the pre-smoothing snapshot. The mask was taken
	// before smoothing; recomputing it here would pick up voxels the blur
	// leaked support into.
	for i, known := range observed {
		if known {
			v.Data[i] = origData[i]
			v.Weights[i] = origWeights[i]
		}
	}
}

// smoothSpatial convolves every depth slice of both channels with the
// heavy-tailed spatial kernel. Borders are zero-padded: outside the image
// there are no observations, and reflection would invent phantom support.
func (v *Volume) smoothSpatial(params SmoothingParams) {
	kern := convolve.StudentsT2D(params.SpatialSpread, params.SpatialNu, params.SpatialRadius)
	for d := 0; d < v.Depth; d++ {
		for _, plane := range [][]float64{v.Slice(d), v.WeightSlice(d)} {
			src := mat.NewDense(v.Rows, v.Cols, plane)
			out := convolve.CorrDn(src, kern, convolve.EdgeZero, 1, 1, 0, 0)
			copy(plane, out.RawMatrix().Data)
		}
	}
}

// smoothDepth runs the 1D Gaussian along the depth axis of both channels,
// same-size, zero-padded past the first and last bins.
func (v *Volume) smoothDepth(params SmoothingParams) {
	kern := convolve.Gaussian1D(params.DepthSigma)
	if len(kern) == 1 {
		return
	}
	n := v.Rows * v.Cols
	line := make([]float64, v.Depth)
	smoothed := make([]float64, v.Depth)
	for _, channel := range [][]float64{v.Data, v.Weights} {
		for cell := 0; cell < n; cell++ {
			for d := 0; d < v.Depth; d++ {
				line[d] = channel[d*n+cell]
			}
			convolve.Correlate1D(smoothed, line, kern, convolve.EdgeZero)
			for d := 0; d < v.Depth; d++ {
				channel[d*n+cell] = smoothed[d]
			}
		}
	}
}
