// Package filterbank constructs the filter sets consumed by the pyramid
// recursion: a lowpass residual filter, an initial highpass filter, the
// recursive lowpass used between levels, and a set of oriented band filters
// together with their steering matrix and harmonic orders. Band filters may
// be real or complex; the bank records which, and the pyramid propagates the
// sample type accordingly.
package filterbank

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// BandFilter is one oriented filter. Imag is nil for real filters; complex
// filters carry both planes and are applied to real data part by part.
type BandFilter struct {
	Real *mat.Dense
	Imag *mat.Dense
}

// Complex reports whether the filter carries an imaginary plane.
func (f BandFilter) Complex() bool {
	return f.Imag != nil
}

// Bank is a complete filter set for one pyramid build. It is read-only for
// the duration of the build.
type Bank struct {
	// LowpassResidual seeds the recursion from the densified volume.
	LowpassResidual *mat.Dense

	// Highpass produces the finest band before the recursion starts.
	Highpass *mat.Dense

	// RecursiveLowpass is applied with a 2x2 step between levels.
	RecursiveLowpass *mat.Dense

	// Bands are the oriented filters, ordered by orientation index.
	Bands []BandFilter

	// Steering maps band responses onto the harmonic basis so responses at
	// arbitrary orientations can be synthesized downstream.
	Steering *mat.Dense

	// Harmonics lists the angular harmonic orders present in the bands.
	Harmonics []int
}

// Complex reports whether the bank's oriented filters are complex-valued.
// Validate guarantees the bands agree, so the first one decides.
func (b *Bank) Complex() bool {
	return len(b.Bands) > 0 && b.Bands[0].Complex()
}

// Orientations returns the number of oriented band filters.
func (b *Bank) Orientations() int {
	return len(b.Bands)
}

// Validate checks the structural invariants the pyramid relies on: every
// filter present, band filters square and of equal size, and all bands
// sharing one sample type.
func (b *Bank) Validate() error {
	if b.LowpassResidual == nil || b.Highpass == nil || b.RecursiveLowpass == nil {
		return fmt.Errorf("filter bank is missing a lowpass or highpass filter")
	}
	if len(b.Bands) == 0 {
		return fmt.Errorf("filter bank has no oriented band filters")
	}

	r0, c0 := b.Bands[0].Real.Dims()
	if r0 != c0 {
		return fmt.Errorf("band filter 0 is %dx%d, want square", r0, c0)
	}
	complexBank := b.Bands[0].Complex()
	for i, band := range b.Bands {
		if band.Real == nil {
			return fmt.Errorf("band filter %d has no real plane", i)
		}
		r, c := band.Real.Dims()
		if r != r0 || c != c0 {
			return fmt.Errorf("band filter %d is %dx%d, want %dx%d", i, r, c, r0, c0)
		}
		if band.Complex() != complexBank {
			return fmt.Errorf("band filter %d mixes real and complex filters in one bank", i)
		}
		if band.Imag != nil {
			ir, ic := band.Imag.Dims()
			if ir != r || ic != c {
				return fmt.Errorf("band filter %d imaginary plane is %dx%d, want %dx%d", i, ir, ic, r, c)
			}
		}
	}

	if b.Steering != nil {
		sr, _ := b.Steering.Dims()
		if sr != len(b.Bands) {
			return fmt.Errorf("steering matrix has %d rows for %d bands", sr, len(b.Bands))
		}
	}
	return nil
}

// Identity returns the degenerate pass-through bank: 1x1 unit lowpass
// filters, a zero highpass (the impulse minus the unit lowpass) and a single
// unit band. Useful for exercising the pyramid plumbing without filtering.
func Identity() *Bank {
	return &Bank{
		LowpassResidual:  mat.NewDense(1, 1, []float64{1}),
		Highpass:         mat.NewDense(1, 1, []float64{0}),
		RecursiveLowpass: mat.NewDense(1, 1, []float64{1}),
		Bands:            []BandFilter{{Real: mat.NewDense(1, 1, []float64{1})}},
		Steering:         mat.NewDense(1, 1, []float64{1}),
		Harmonics:        []int{0},
	}
}

// MaxHeight returns the tallest pyramid the given image size supports with
// this bank: levels are counted while every filter still fits inside the
// (floor-)halved image.
func MaxHeight(rows, cols int, b *Bank) int {
	size := filterExtent(b)
	h := 0
	for rows >= size && cols >= size {
		h++
		rows /= 2
		cols /= 2
	}
	return h
}

// filterExtent returns the largest side length among the filters applied
// during the recursion.
func filterExtent(b *Bank) int {
	size := 1
	grow := func(m *mat.Dense) {
		if m == nil {
			return
		}
		r, c := m.Dims()
		if r > size {
			size = r
		}
		if c > size {
			size = c
		}
	}
	grow(b.RecursiveLowpass)
	for _, band := range b.Bands {
		grow(band.Real)
		grow(band.Imag)
	}
	return size
}
