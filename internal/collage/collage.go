// Package collage joins two processed images side by side.
package collage

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-collage/internal/logging"
)

// Filter is the interpolation used to bring both images to the common size.
var Filter = imaging.Linear

// TargetSize returns the common size both halves are resized to: the
// smaller width and the smaller height, chosen independently.
func TargetSize(a, b image.Rectangle) (width, height int) {
	return min(a.Dx(), b.Dx()), min(a.Dy(), b.Dy())
}

// Compose resizes a and b to TargetSize and concatenates them horizontally,
// a on the left and b on the right.
//
// The result is TargetSize height tall and twice TargetSize width wide.
// Images are always scaled, never cropped. A nil or empty input is a
// KindProcessing error.
func Compose(a, b image.Image) (*image.NRGBA, error) {
	for i, img := range []image.Image{a, b} {
		if img == nil {
			return nil, logging.Processingf("collage.compose", "image%d is nil", i+1)
		}
		if img.Bounds().Empty() {
			return nil, logging.Processingf("collage.compose", "image%d is empty", i+1)
		}
	}

	w, h := TargetSize(a.Bounds(), b.Bounds())
	left := imaging.Resize(a, w, h, Filter)
	right := imaging.Resize(b, w, h, Filter)

	dst := imaging.New(2*w, h, color.NRGBA{0, 0, 0, 255})
	dst = imaging.Paste(dst, left, image.Pt(0, 0))
	dst = imaging.Paste(dst, right, image.Pt(w, 0))
	return dst, nil
}
