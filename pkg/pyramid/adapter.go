// Package pyramid implements the bilateral steerable decomposition: the
// volumetric correlate-downsample adapter, the level recursion over oriented
// band filters, and the packer that flattens the band volumes into one
// indexable coefficient buffer.
package pyramid

import (
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"depthpyr/pkg/convolve"
	"depthpyr/pkg/filterbank"
	"depthpyr/pkg/volume"
)

// zeroSumTol decides when a filter counts as zero-sum, in which case the
// weight channel cannot be refiltered without destroying the validity mask
// and is resampled instead.
const zeroSumTol = 1e-12

// Correlator applies 2D filters independently to every depth slice of a
// volume. Slices are independent, so they are fanned out across Workers
// goroutines; zero or negative Workers means one per CPU.
type Correlator struct {
	Edge    convolve.Edge
	Workers int
}

// FilterBoth correlates both channels with filt and subsamples by the given
// step and start. The weight channel uses the filter rescaled to unit
// coefficient sum, which keeps an all-ones weight field at one away from
// borders; a zero-sum filter (the highpass) would have no valid rescaling,
// so its weight channel is resampled like bookkeeping instead.
func (c *Correlator) FilterBoth(v *volume.Volume, filt *mat.Dense, stepRow, stepCol, startRow, startCol int) *volume.Volume {
	out := resampleShell(v, stepRow, stepCol, startRow, startCol)

	var weightFilt *mat.Dense
	if sum := mat.Sum(filt); math.Abs(sum) >= zeroSumTol {
		var scaled mat.Dense
		scaled.Scale(1/sum, filt)
		weightFilt = &scaled
	}

	c.forEachSlice(v.Depth, func(d int) {
		res := convolve.CorrDn(v.Plane(d), filt, c.Edge, stepRow, stepCol, startRow, startCol)
		copy(out.Slice(d), res.RawMatrix().Data)

		if weightFilt != nil {
			w := convolve.CorrDn(v.WeightPlane(d), weightFilt, c.Edge, stepRow, stepCol, startRow, startCol)
			copy(out.WeightSlice(d), w.RawMatrix().Data)
		} else {
			w := convolve.Subsample(v.WeightPlane(d), stepRow, stepCol, startRow, startCol)
			copy(out.WeightSlice(d), w.RawMatrix().Data)
		}
	})
	return out
}

// FilterGrid correlates only the data channel, which may use a complex
// filter: both filter planes are applied to the real data and recombined as
// real plus i times imaginary. The weight channel is resampled at the same
// step without filtering; past the initial split it is bookkeeping, not a
// statistical quantity.
func (c *Correlator) FilterGrid(v *volume.Volume, band filterbank.BandFilter, stepRow, stepCol, startRow, startCol int) *volume.Volume {
	out := resampleShell(v, stepRow, stepCol, startRow, startCol)
	if band.Imag != nil {
		out.Imag = make([]float64, len(out.Data))
	}

	c.forEachSlice(v.Depth, func(d int) {
		plane := v.Plane(d)
		re := convolve.CorrDn(plane, band.Real, c.Edge, stepRow, stepCol, startRow, startCol)
		copy(out.Slice(d), re.RawMatrix().Data)

		if band.Imag != nil {
			im := convolve.CorrDn(plane, band.Imag, c.Edge, stepRow, stepCol, startRow, startCol)
			copy(out.ImagSlice(d), im.RawMatrix().Data)
		}

		w := convolve.Subsample(v.WeightPlane(d), stepRow, stepCol, startRow, startCol)
		copy(out.WeightSlice(d), w.RawMatrix().Data)
	})
	return out
}

// resampleShell allocates the output volume for one adapter pass: data and
// weight storage at the subsampled resolution, with the row, col and depth
// bookkeeping planes re-picked at the same step and start so they stay
// aligned with whatever the filters produce.
func resampleShell(v *volume.Volume, stepRow, stepCol, startRow, startCol int) *volume.Volume {
	ri := convolve.Subsample(mat.NewDense(v.Rows, v.Cols, v.RowIndex), stepRow, stepCol, startRow, startCol)
	ci := convolve.Subsample(mat.NewDense(v.Rows, v.Cols, v.ColIndex), stepRow, stepCol, startRow, startCol)
	dm := convolve.Subsample(mat.NewDense(v.Rows, v.Cols, v.DepthMap), stepRow, stepCol, startRow, startCol)

	rows, cols := ri.Dims()
	return &volume.Volume{
		Data:     make([]float64, rows*cols*v.Depth),
		Weights:  make([]float64, rows*cols*v.Depth),
		RowIndex: ri.RawMatrix().Data,
		ColIndex: ci.RawMatrix().Data,
		DepthMap: dm.RawMatrix().Data,
		Rows:     rows,
		Cols:     cols,
		Depth:    v.Depth,
	}
}

// forEachSlice runs fn for every depth bin, spread across a worker pool.
func (c *Correlator) forEachSlice(depth int, fn func(d int)) {
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > depth {
		workers = depth
	}
	if workers <= 1 {
		for d := 0; d < depth; d++ {
			fn(d)
		}
		return
	}

	jobs := make(chan int, depth)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				fn(d)
			}
		}()
	}
	for d := 0; d < depth; d++ {
		jobs <- d
	}
	close(jobs)
	wg.Wait()
}
