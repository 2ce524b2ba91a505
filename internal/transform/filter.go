package transform

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
)

// Sigma returns the Gaussian standard deviation used for a kernel of the
// given edge length: 0.3*((size-1)*0.5 - 1) + 0.8.
func Sigma(size int) float64 {
	return 0.3*((float64(size)-1)*0.5-1) + 0.8
}

// gaussianKernel builds a normalized 1-D Gaussian kernel of the given odd length.
func gaussianKernel(size int) convolution.Matrix {
	sigma := Sigma(size)
	center := float64(size-1) / 2

	k := convolution.NewKernel(size, 1)
	for i := 0; i < size; i++ {
		x := float64(i) - center
		k.Matrix[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
	}
	return k.Normalized()
}

// grayscale converts img to a single channel using BT.601 luminance weights.
// The result always starts at (0,0).
func grayscale(img image.Image) *image.Gray {
	lum := imaging.Grayscale(img)
	b := lum.Bounds()

	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := lum.Pix[y*lum.Stride : y*lum.Stride+b.Dx()*4]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return gray
}

// smooth applies a size×size Gaussian blur as two separable passes.
// Borders are handled by extending the edge pixels. size 1 returns a copy.
// Each pass rounds to the nearest level, so a uniform image is unchanged.
func smooth(gray *image.Gray, size int) *image.Gray {
	out := image.NewGray(gray.Rect)
	if size <= 1 {
		copy(out.Pix, gray.Pix)
		return out
	}

	k := gaussianKernel(size)
	opts := &convolution.Options{Bias: 0.5, Wrap: false, KeepAlpha: true}
	rgba := convolution.Convolve(gray, k, opts)
	rgba = convolution.Convolve(rgba, k.Transposed(), opts)

	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return out
}

// expand replicates each gray sample across R, G and B with opaque alpha.
func expand(gray *image.Gray) *image.NRGBA {
	out := image.NewNRGBA(gray.Rect)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	for y := 0; y < h; y++ {
		src := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		dst := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for x, v := range src {
			dst[x*4+0] = v
			dst[x*4+1] = v
			dst[x*4+2] = v
			dst[x*4+3] = 0xff
		}
	}
	return out
}

// drawFrame draws an unfilled rectangle of the given stroke along the inner
// edge of r. Pixels outside r are never touched.
func drawFrame(dst *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	r = r.Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		edgeRow := y < r.Min.Y+stroke || y >= r.Max.Y-stroke
		for x := r.Min.X; x < r.Max.X; x++ {
			if edgeRow || x < r.Min.X+stroke || x >= r.Max.X-stroke {
				dst.SetNRGBA(x, y, c)
			}
		}
	}
}
