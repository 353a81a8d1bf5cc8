package convolve

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Gaussian1D builds a normalized Gaussian kernel sampled at integer offsets.
// The half-length is floor(2*sigma), so the kernel covers two standard
// deviations on each side and always has odd length. A non-positive sigma
// degenerates to the identity kernel.
func Gaussian1D(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	half := int(2 * sigma)
	kern := make([]float64, 2*half+1)
	norm := distuv.Normal{Mu: 0, Sigma: sigma}
	for i := range kern {
		kern[i] = norm.Prob(float64(i - half))
	}
	floats.Scale(1/floats.Sum(kern), kern)
	return kern
}

// StudentsT2D builds a separable 2D smoothing kernel from a Student's t
// density with nu degrees of freedom and the given spread, sampled at integer
// offsets up to radius in each direction. The heavier tails compared to a
// Gaussian let sparse samples spread their influence further on the pixel
// grid. The kernel is normalized to unit sum.
func StudentsT2D(spread, nu float64, radius int) *mat.Dense {
	if radius < 0 {
		radius = 0
	}
	n := 2*radius + 1
	line := make([]float64, n)
	tdist := distuv.StudentsT{Mu: 0, Sigma: spread, Nu: nu}
	for i := range line {
		line[i] = tdist.Prob(float64(i - radius))
	}

	kern := mat.NewDense(n, n, nil)
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := line[i] * line[j]
			kern.Set(i, j, v)
			sum += v
		}
	}
	kern.Scale(1/sum, kern)
	return kern
}
