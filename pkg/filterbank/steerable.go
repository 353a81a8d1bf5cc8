package filterbank

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Steerable builds a real oriented bank: the band filters are directional
// derivatives of order orients-1 of an isotropic Gaussian, sampled at angles
// pi*k/orients, which makes the set exactly steerable through the returned
// steering matrix. The lowpass filters are unit-sum Gaussians of the same
// spatial sigma and the highpass is the impulse complement of the lowpass
// residual, so the initial split tiles DC exactly.
func Steerable(orients, size int, sigma float64) (*Bank, error) {
	if err := checkFilterParams(orients, size, sigma); err != nil {
		return nil, err
	}

	low := gaussianFilter(size, sigma)
	bank := &Bank{
		LowpassResidual:  low,
		Highpass:         highpassComplement(low),
		RecursiveLowpass: gaussianFilter(size, sigma),
		Harmonics:        harmonicOrders(orients),
	}

	order := orients - 1
	for k := 0; k < orients; k++ {
		theta := math.Pi * float64(k) / float64(orients)
		bank.Bands = append(bank.Bands, BandFilter{Real: orientedGaussian(size, sigma, theta, order)})
	}

	steering, err := steeringMatrix(orients)
	if err != nil {
		return nil, err
	}
	bank.Steering = steering
	return bank, nil
}

func checkFilterParams(orients, size int, sigma float64) error {
	if orients < 1 {
		return fmt.Errorf("need at least one orientation, got %d", orients)
	}
	if size < 3 || size%2 == 0 {
		return fmt.Errorf("filter size must be odd and at least 3, got %d", size)
	}
	if sigma <= 0 {
		return fmt.Errorf("filter sigma must be positive, got %f", sigma)
	}
	return nil
}

// gaussianFilter samples an isotropic Gaussian on the filter grid and
// normalizes it to unit sum, so a constant plane passes through unchanged.
func gaussianFilter(size int, sigma float64) *mat.Dense {
	c := size / 2
	f := mat.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			y := float64(i - c)
			x := float64(j - c)
			f.Set(i, j, math.Exp(-(x*x+y*y)/(2*sigma*sigma)))
		}
	}
	f.Scale(1/mat.Sum(f), f)
	return f
}

// highpassComplement returns impulse-minus-lowpass, the filter whose
// response plus the lowpass response reproduces the input exactly. Its
// coefficients sum to zero.
func highpassComplement(low *mat.Dense) *mat.Dense {
	size, _ := low.Dims()
	c := size / 2
	h := mat.NewDense(size, size, nil)
	h.Scale(-1, low)
	h.Set(c, c, h.At(c, c)+1)
	return h
}

// orientedGaussian samples the order-th directional derivative of a Gaussian
// along direction theta. The derivative acts on the coordinate along theta
// only, which for a Gaussian is a Hermite polynomial times the envelope.
// The sampled filter is forced to zero mean and unit energy.
func orientedGaussian(size int, sigma, theta float64, order int) *mat.Dense {
	c := size / 2
	dx, dy := math.Cos(theta), math.Sin(theta)
	f := mat.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			y := float64(i - c)
			x := float64(j - c)
			s := (x*dx + y*dy) / (sigma * math.Sqrt2)
			g := math.Exp(-(x*x + y*y) / (2 * sigma * sigma))
			f.Set(i, j, hermite(order, s)*g)
		}
	}

	data := f.RawMatrix().Data
	mean := floats.Sum(data) / float64(len(data))
	for i := range data {
		data[i] -= mean
	}
	if norm := math.Sqrt(floats.Dot(data, data)); norm > 0 {
		floats.Scale(1/norm, data)
	}
	return f
}

// hermite evaluates the physicists' Hermite polynomial H_n by recurrence.
func hermite(n int, u float64) float64 {
	if n == 0 {
		return 1
	}
	prev, cur := 1.0, 2*u
	for k := 2; k <= n; k++ {
		prev, cur = cur, 2*u*cur-2*float64(k-1)*prev
	}
	return cur
}

// harmonicOrders lists the angular harmonics present in a derivative bank of
// orients filters: the orders in [0, orients) sharing the parity of
// orients-1.
func harmonicOrders(orients int) []int {
	parity := (orients - 1) % 2
	var orders []int
	for m := 0; m < orients; m++ {
		if m%2 == parity {
			orders = append(orders, m)
		}
	}
	return orders
}

// steeringMatrix inverts the orientation basis: row k of the basis holds the
// trig functions of each harmonic evaluated at angle pi*k/orients, one
// column for harmonic zero and a cos/sin pair for every other. Applying the
// returned matrix to the vector of band responses yields the harmonic
// coefficients, from which a response at any angle can be synthesized.
func steeringMatrix(orients int) (*mat.Dense, error) {
	harmonics := harmonicOrders(orients)
	cols := 0
	for _, h := range harmonics {
		if h == 0 {
			cols++
		} else {
			cols += 2
		}
	}

	basis := mat.NewDense(orients, cols, nil)
	for k := 0; k < orients; k++ {
		theta := math.Pi * float64(k) / float64(orients)
		col := 0
		for _, h := range harmonics {
			if h == 0 {
				basis.Set(k, col, 1)
				col++
				continue
			}
			basis.Set(k, col, math.Cos(float64(h)*theta))
			basis.Set(k, col+1, math.Sin(float64(h)*theta))
			col += 2
		}
	}

	eye := mat.NewDense(orients, orients, nil)
	for i := 0; i < orients; i++ {
		eye.Set(i, i, 1)
	}

	var qr mat.QR
	qr.Factorize(basis)
	steering := mat.NewDense(cols, orients, nil)
	if err := qr.SolveTo(steering, false, eye); err != nil {
		return nil, fmt.Errorf("orientation basis is singular: %v", err)
	}
	return steering, nil
}
