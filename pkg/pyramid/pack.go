package pyramid

import (
	"depthpyr/pkg/volume"
)

// BandSize records the shape of one band's volume.
type BandSize struct {
	Rows, Cols, Depth int
}

// DepthMap is a level's fractional depth-bin coordinate plane, kept at
// reduced precision; it exists to resample coefficients back to
// depth-indexed pixel positions downstream.
type DepthMap struct {
	Data       []float32
	Rows, Cols int
}

// Pyramid is the packed decomposition. Coeffs is one row-major buffer of
// shape (totalElements x depthBins): band i occupies the element rows
// reported by BandRange, each row holding that element's samples across all
// depth bins. Band order is highpass first, then every level's oriented
// bands fine to coarse, then the lowpass residual.
type Pyramid struct {
	Coeffs     []float64
	CoeffsImag []float64 // nil when the bank was real

	BandSizes      []BandSize
	DepthCenters   []float64
	LevelDepthMaps []DepthMap
}

// pack flattens the highpass band and the per-level band lists into the
// coefficient buffer and collects the bookkeeping: one BandSize per band in
// global order and one reduced-precision depth map per recursion level.
func pack(highpass *volume.Volume, levels [][]*volume.Volume, centers []float64) *Pyramid {
	bands := []*volume.Volume{highpass}
	for _, level := range levels {
		bands = append(bands, level...)
	}

	depth := highpass.Depth
	total := 0
	anyComplex := false
	sizes := make([]BandSize, len(bands))
	for i, b := range bands {
		sizes[i] = BandSize{Rows: b.Rows, Cols: b.Cols, Depth: b.Depth}
		total += b.Rows * b.Cols
		if b.Complex() {
			anyComplex = true
		}
	}

	p := &Pyramid{
		Coeffs:       make([]float64, total*depth),
		BandSizes:    sizes,
		DepthCenters: centers,
	}
	if anyComplex {
		// Real bands in a complex pyramid (the highpass) read as zero
		// imaginary; the promoted residual carries its duplicated data.
		p.CoeffsImag = make([]float64, total*depth)
	}

	offset := 0
	for _, b := range bands {
		n := b.Rows * b.Cols
		for d := 0; d < depth; d++ {
			slice := b.Slice(d)
			for e := 0; e < n; e++ {
				p.Coeffs[(offset+e)*depth+d] = slice[e]
			}
			if p.CoeffsImag != nil && b.Imag != nil {
				imag := b.ImagSlice(d)
				for e := 0; e < n; e++ {
					p.CoeffsImag[(offset+e)*depth+d] = imag[e]
				}
			}
		}
		offset += n
	}

	p.LevelDepthMaps = make([]DepthMap, 0, len(levels))
	for _, level := range levels {
		rep := level[0]
		dm := DepthMap{
			Data: make([]float32, len(rep.DepthMap)),
			Rows: rep.Rows,
			Cols: rep.Cols,
		}
		for i, c := range rep.DepthMap {
			dm.Data[i] = float32(c)
		}
		p.LevelDepthMaps = append(p.LevelDepthMaps, dm)
	}
	return p
}

// NumBands returns the number of bands in the pyramid.
func (p *Pyramid) NumBands() int {
	return len(p.BandSizes)
}

// Complex reports whether the coefficients carry an imaginary buffer.
func (p *Pyramid) Complex() bool {
	return p.CoeffsImag != nil
}

// Depth returns the depth-bin count shared by every band.
func (p *Pyramid) Depth() int {
	if len(p.BandSizes) == 0 {
		return 0
	}
	return p.BandSizes[0].Depth
}

// BandRange returns the half-open element-row range of band i inside the
// packed buffer: band i occupies rows [start, start+count).
func (p *Pyramid) BandRange(i int) (start, count int) {
	for j := 0; j < i; j++ {
		start += p.BandSizes[j].Rows * p.BandSizes[j].Cols
	}
	return start, p.BandSizes[i].Rows * p.BandSizes[i].Cols
}

// Band reconstructs band i as a volume from the packed buffer, undoing the
// flattening exactly. The returned volume carries coefficient data only;
// weights and bookkeeping planes are fresh.
func (p *Pyramid) Band(i int) *volume.Volume {
	size := p.BandSizes[i]
	start, count := p.BandRange(i)

	v := volume.New(size.Rows, size.Cols, size.Depth)
	for e := 0; e < count; e++ {
		row := p.Coeffs[(start+e)*size.Depth : (start+e+1)*size.Depth]
		for d := 0; d < size.Depth; d++ {
			v.Data[d*count+e] = row[d]
		}
	}
	if p.CoeffsImag != nil {
		v.Imag = make([]float64, len(v.Data))
		for e := 0; e < count; e++ {
			row := p.CoeffsImag[(start+e)*size.Depth : (start+e+1)*size.Depth]
			for d := 0; d < size.Depth; d++ {
				v.Imag[d*count+e] = row[d]
			}
		}
	}
	return v
}
