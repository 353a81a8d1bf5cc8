// Package depthio loads the two inputs of the pipeline, a grayscale image
// and its per-pixel depth map, as float planes, and aligns their shapes when
// the depth sensor resolution differs from the camera's.
package depthio

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/nfnt/resize"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImagePlane is a decoded 2D input as row-major float64 samples.
type ImagePlane struct {
	Data       []float64
	Rows, Cols int
}

// DepthOptions control how raw depth samples become physical depth values.
type DepthOptions struct {
	// ZeroMeansMissing maps pure-black samples to NaN. Depth sensors
	// commonly encode "no reading" as zero.
	ZeroMeansMissing bool

	// Scale and Offset map the normalized sample s to depth s*Scale+Offset.
	// A zero Scale means 1.
	Scale  float64
	Offset float64
}

func (o DepthOptions) scale() float64 {
	if o.Scale == 0 {
		return 1
	}
	return o.Scale
}

// LoadImage decodes the image at path into a grayscale plane with samples in
// [0, 1]. PNG and JPEG decode via the standard library; TIFF and WebP
// decoders are registered by import.
func LoadImage(path string) (*ImagePlane, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	return grayPlane(img), nil
}

// LoadDepthMap decodes the depth map at path and applies opts. The decoded
// 16-bit samples are normalized to [0, 1] before scaling, so a Gray16 depth
// image keeps its full precision.
func LoadDepthMap(path string, opts DepthOptions) (*ImagePlane, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	return depthPlane(img, opts), nil
}

// LoadAlignedDepthMap is LoadDepthMap with the decoded image first resampled
// to rows by cols when its own shape differs. Alignment happens before the
// missing-value mapping so resampling never blends a sentinel zero into a
// neighboring depth.
func LoadAlignedDepthMap(path string, rows, cols int, opts DepthOptions) (*ImagePlane, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	return depthPlane(AlignShapes(img, rows, cols), opts), nil
}

// AlignShapes resamples a decoded depth image to the target pixel grid.
// Nearest neighbor is deliberate: depth must not be interpolated across
// silhouette boundaries, and missing-value sentinels must survive untouched.
func AlignShapes(depth image.Image, rows, cols int) image.Image {
	bounds := depth.Bounds()
	if bounds.Dy() == rows && bounds.Dx() == cols {
		return depth
	}
	return resize.Resize(uint(cols), uint(rows), depth, resize.NearestNeighbor)
}

func decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %v", path, err)
	}
	return img, nil
}

// grayPlane converts an image to a float plane in [0, 1] using the red
// channel, which for grayscale sources carries the luminance.
func grayPlane(img image.Image) *ImagePlane {
	bounds := img.Bounds()
	cols := bounds.Dx()
	rows := bounds.Dy()
	plane := &ImagePlane{Data: make([]float64, rows*cols), Rows: rows, Cols: cols}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			plane.Data[y*cols+x] = float64(r) / 65535.0
		}
	}
	return plane
}

func depthPlane(img image.Image, opts DepthOptions) *ImagePlane {
	bounds := img.Bounds()
	cols := bounds.Dx()
	rows := bounds.Dy()
	plane := &ImagePlane{Data: make([]float64, rows*cols), Rows: rows, Cols: cols}

	scale := opts.scale()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if opts.ZeroMeansMissing && r == 0 {
				plane.Data[y*cols+x] = math.NaN()
				continue
			}
			plane.Data[y*cols+x] = float64(r)/65535.0*scale + opts.Offset
		}
	}
	return plane
}
