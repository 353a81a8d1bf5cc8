// Package visualization renders bands of a packed pyramid as grayscale
// images for inspection: one image per band and depth slice, plus the
// per-level depth maps.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"

	"depthpyr/pkg/pyramid"
)

// Viewer wraps a built pyramid for rendering. Coarse bands are upscaled to
// the preview floor with nearest-neighbor sampling so individual
// coefficients stay visible.
type Viewer struct {
	pyr *pyramid.Pyramid

	// PreviewFloor is the minimum rendered side length; bands smaller than
	// this are integer-upscaled. Zero disables upscaling.
	PreviewFloor int
}

// NewViewer creates a viewer with a 64-pixel preview floor.
func NewViewer(pyr *pyramid.Pyramid) *Viewer {
	return &Viewer{pyr: pyr, PreviewFloor: 64}
}

// BandSlice renders depth slice d of band i as a min/max normalized
// grayscale image. Complex bands render coefficient magnitude.
func (v *Viewer) BandSlice(band, d int) (image.Image, error) {
	if band < 0 || band >= v.pyr.NumBands() {
		return nil, fmt.Errorf("band %d out of range [0,%d)", band, v.pyr.NumBands())
	}
	size := v.pyr.BandSizes[band]
	if d < 0 || d >= size.Depth {
		return nil, fmt.Errorf("depth slice %d out of range [0,%d)", d, size.Depth)
	}

	vol := v.pyr.Band(band)
	plane := make([]float64, size.Rows*size.Cols)
	re := vol.Slice(d)
	if vol.Complex() {
		im := vol.ImagSlice(d)
		for i := range plane {
			plane[i] = math.Hypot(re[i], im[i])
		}
	} else {
		copy(plane, re)
	}

	return v.render(plane, size.Rows, size.Cols), nil
}

// DepthMapImage renders the depth map of pyramid level lv. Missing cells
// (NaN coordinates) render as black.
func (v *Viewer) DepthMapImage(lv int) (image.Image, error) {
	if lv < 0 || lv >= len(v.pyr.LevelDepthMaps) {
		return nil, fmt.Errorf("level %d out of range [0,%d)", lv, len(v.pyr.LevelDepthMaps))
	}
	dm := v.pyr.LevelDepthMaps[lv]
	plane := make([]float64, len(dm.Data))
	for i, c := range dm.Data {
		plane[i] = float64(c)
	}
	return v.render(plane, dm.Rows, dm.Cols), nil
}

// SaveBandImages writes one PNG per band and depth slice into dir, creating
// it if needed.
func (v *Viewer) SaveBandImages(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	for band := 0; band < v.pyr.NumBands(); band++ {
		for d := 0; d < v.pyr.BandSizes[band].Depth; d++ {
			img, err := v.BandSlice(band, d)
			if err != nil {
				return err
			}
			filename := filepath.Join(dir, fmt.Sprintf("band_%02d_slice_%03d.png", band, d))
			if err := imgio.Save(filename, img, imgio.PNGEncoder()); err != nil {
				return fmt.Errorf("failed to save %s: %v", filename, err)
			}
		}
	}
	return nil
}

// SaveLevelDepthMaps writes one PNG per pyramid level's depth map into dir.
func (v *Viewer) SaveLevelDepthMaps(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	for lv := range v.pyr.LevelDepthMaps {
		img, err := v.DepthMapImage(lv)
		if err != nil {
			return err
		}
		filename := filepath.Join(dir, fmt.Sprintf("depthmap_level_%02d.png", lv))
		if err := imgio.Save(filename, img, imgio.PNGEncoder()); err != nil {
			return fmt.Errorf("failed to save %s: %v", filename, err)
		}
	}
	return nil
}

// render maps a float plane to a Gray16 image by min/max normalization and
// upscales it to the preview floor. NaN samples render as the minimum.
func (v *Viewer) render(plane []float64, rows, cols int) image.Image {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, s := range plane {
		if math.IsNaN(s) {
			continue
		}
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	img := image.NewGray16(image.Rect(0, 0, cols, rows))
	if hi > lo {
		scale := 65535 / (hi - lo)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				s := plane[y*cols+x]
				if math.IsNaN(s) {
					s = lo
				}
				value := uint16(math.Max(0, math.Min(65535, (s-lo)*scale)))
				img.SetGray16(x, y, color.Gray16{Y: value})
			}
		}
	}

	if v.PreviewFloor > 0 && (rows < v.PreviewFloor || cols < v.PreviewFloor) {
		factor := (v.PreviewFloor + rows - 1) / rows
		if f := (v.PreviewFloor + cols - 1) / cols; f > factor {
			factor = f
		}
		return transform.Resize(img, cols*factor, rows*factor, transform.NearestNeighbor)
	}
	return img
}
