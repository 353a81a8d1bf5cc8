package volume

import (
	"fmt"
	"math"
)

// Scatter builds a volume from a grayscale image and a raw depth map of the
// same shape. Each pixel's depth value is mapped to a fractional bin
// coordinate, rounded to the nearest bin and clamped to the axis; the pixel's
// intensity is then accumulated into that voxel and its weight incremented.
// Accumulation (rather than overwrite) keeps the builder correct should a
// caller ever scatter several sources into one grid.
//
// Pixels with a NaN intensity or a non-finite depth are skipped and leave
// their voxel's weight untouched. A shape mismatch between image and depth
// map is the caller's error and is rejected up front.
func Scatter(image, depth []float64, rows, cols int, params DepthParams) (*Volume, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(image) != rows*cols {
		return nil, fmt.Errorf("image length %d does not match %dx%d", len(image), rows, cols)
	}
	if len(depth) != len(image) {
		return nil, fmt.Errorf("depth map length %d does not match image length %d", len(depth), len(image))
	}

	bins := params.Bins()
	v := New(rows, cols, bins)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell := r*cols + c
			coord := params.binCoord(depth[cell])
			if math.IsNaN(coord) || math.IsInf(coord, 0) {
				v.DepthMap[cell] = math.NaN()
				continue
			}
			v.DepthMap[cell] = coord

			value := image[cell]
			if math.IsNaN(value) {
				continue
			}

			bin := int(math.Round(coord))
			if bin < 0 {
				bin = 0
			} else if bin >= bins {
				bin = bins - 1
			}
			v.Add(bin, r, c, value)
		}
	}
	return v, nil
}
