package filterbank

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// ComplexSteerable builds a complex oriented bank. Each band filter is
// designed on the frequency grid as a radial bandpass window times a
// one-sided angular lobe of width cos^(orients-1) about its orientation,
// then brought to the spatial domain by inverse FFT. One-sided frequency
// support makes the spatial filters complex, so band responses carry local
// magnitude and phase. The lowpass and highpass filters are the same
// spatial-domain Gaussian pair the real bank uses; sigma shapes those only,
// the band filters live in a fixed octave around pi/2.
func ComplexSteerable(orients, size int, sigma float64) (*Bank, error) {
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
		re, im := complexOriented(size, theta, order)
		bank.Bands = append(bank.Bands, BandFilter{Real: re, Imag: im})
	}

	steering, err := steeringMatrix(orients)
	if err != nil {
		return nil, err
	}
	bank.Steering = steering
	return bank, nil
}

// complexOriented fills the DFT grid with the band window and inverts it,
// recentering the impulse response on the filter grid and normalizing to
// unit energy across both planes.
func complexOriented(size int, theta float64, order int) (re, im *mat.Dense) {
	freq := make([]complex128, size*size)
	for i := 0; i < size; i++ {
		wy := wrapFreq(i, size)
		for j := 0; j < size; j++ {
			wx := wrapFreq(j, size)

			// Radial component: bandpass bump, zero at DC.
			radial := bandpassBump(math.Hypot(wx, wy))

			// Angular component: one-sided lobe about theta.
			angular := angularLobe(math.Atan2(wy, wx), theta, order)

			freq[i*size+j] = complex(radial*angular, 0)
		}
	}

	spatial := ifft2(freq, size)

	c := size / 2
	re = mat.NewDense(size, size, nil)
	im = mat.NewDense(size, size, nil)
	var energy float64
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			s := spatial[((i-c+size)%size)*size+(j-c+size)%size]
			re.Set(i, j, real(s))
			im.Set(i, j, imag(s))
			energy += real(s)*real(s) + imag(s)*imag(s)
		}
	}
	if energy > 0 {
		scale := 1 / math.Sqrt(energy)
		re.Scale(scale, re)
		im.Scale(scale, im)
	}
	return re, im
}

// wrapFreq maps DFT bin i of an n-point axis to its angular frequency in
// (-pi, pi].
func wrapFreq(i, n int) float64 {
	if i > n/2 {
		i -= n
	}
	return 2 * math.Pi * float64(i) / float64(n)
}

// bandpassBump is the radial window: a = r/(pi/2) gives a^2 * exp(1-a^2),
// which peaks at 1 one octave below Nyquist and vanishes at DC.
func bandpassBump(r float64) float64 {
	a := r / (math.Pi / 2)
	return a * a * math.Exp(1-a*a)
}

// angularLobe is the one-sided orientation window cos^order(phi-theta),
// zero on the opposite half-plane.
func angularLobe(phi, theta float64, order int) float64 {
	c := math.Cos(phi - theta)
	if c <= 0 {
		return 0
	}
	return math.Pow(c, float64(order))
}

// ifft2 inverse-transforms a size-by-size frequency grid with separable row
// and column passes, scaled so the round trip is the identity.
func ifft2(freq []complex128, size int) []complex128 {
	fft := fourier.NewCmplxFFT(size)

	rows := make([]complex128, size*size)
	line := make([]complex128, size)
	for i := 0; i < size; i++ {
		fft.Sequence(line, freq[i*size:(i+1)*size])
		copy(rows[i*size:(i+1)*size], line)
	}

	out := make([]complex128, size*size)
	col := make([]complex128, size)
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			col[i] = rows[i*size+j]
		}
		fft.Sequence(line, col)
		for i := 0; i < size; i++ {
			out[i*size+j] = line[i]
		}
	}

	scale := complex(1/float64(size*size), 0)
	for i := range out {
		out[i] *= scale
	}
	return out
}
