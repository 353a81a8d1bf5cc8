package pyramid

import (
	"fmt"

	"depthpyr/pkg/convolve"
	"depthpyr/pkg/filterbank"
	"depthpyr/pkg/volume"
)

// AutoHeight asks Build to use the maximum height the input size and filter
// bank support.
const AutoHeight = -1

// Params configure one pyramid build.
type Params struct {
	// Height is the number of recursive levels, or AutoHeight.
	Height int

	// Depth describes the depth axis the input volume was binned with; its
	// bin count must match the volume and it supplies the physical centers
	// recorded in the output.
	Depth volume.DepthParams

	// Edge is handed through to every correlation.
	Edge convolve.Edge

	// Workers bounds the per-slice fan-out; zero means one per CPU.
	Workers int
}

// Build decomposes a densified volume into the bilateral steerable pyramid.
// The initial highpass/lowpass split runs in data+weight mode at full
// resolution; the lowpass volume then seeds the recursion, which emits the
// oriented bands of each level at that level's resolution and halves the
// volume between levels. A height exceeding what the input size supports is
// rejected before any filtering starts.
func Build(v *volume.Volume, bank *filterbank.Bank, params Params) (*Pyramid, error) {
	if err := bank.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter bank: %v", err)
	}
	if err := params.Depth.Validate(); err != nil {
		return nil, fmt.Errorf("invalid depth params: %v", err)
	}
	if bins := params.Depth.Bins(); bins != v.Depth {
		return nil, fmt.Errorf("depth params give %d bins, volume has %d", bins, v.Depth)
	}

	maxHeight := filterbank.MaxHeight(v.Rows, v.Cols, bank)
	height := params.Height
	if height < 0 {
		height = maxHeight
	} else if height > maxHeight {
		return nil, fmt.Errorf("pyramid height %d exceeds maximum %d for a %dx%d input",
			height, maxHeight, v.Rows, v.Cols)
	}

	corr := &Correlator{Edge: params.Edge, Workers: params.Workers}

	highpass := corr.FilterBoth(v, bank.Highpass, 1, 1, 0, 0)
	lowpass := corr.FilterBoth(v, bank.LowpassResidual, 1, 1, 0, 0)

	levels := recurse(corr, lowpass, bank, height)

	return pack(highpass, levels, params.Depth.Centers()), nil
}

// recurse walks the level countdown on the current lowpass volume and
// returns the per-level band lists, finest first. Each level correlates the
// unfiltered input volume once per oriented filter at full step, then
// derives the next level by filtering with the recursive lowpass at a 2x2
// step. The countdown's base case emits the residual as a single band,
// promoted to complex when the bank is complex so every band of the pyramid
// shares one sample type.
func recurse(corr *Correlator, low *volume.Volume, bank *filterbank.Bank, levels int) [][]*volume.Volume {
	if levels <= 0 {
		if bank.Complex() {
			low.PromoteComplex()
		}
		return [][]*volume.Volume{{low}}
	}

	bands := make([]*volume.Volume, len(bank.Bands))
	for i, band := range bank.Bands {
		bands[i] = corr.FilterGrid(low, band, 1, 1, 0, 0)
	}

	next := corr.FilterGrid(low, filterbank.BandFilter{Real: bank.RecursiveLowpass}, 2, 2, 0, 0)
	rest := recurse(corr, next, bank, levels-1)

	return append([][]*volume.Volume{bands}, rest...)
}
