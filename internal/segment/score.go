package segment

import "image"

// Mean returns the arithmetic mean of all samples in gray's bounds.
//
// Samples are summed as integers, so the result does not depend on the
// iteration order. An empty view has mean 0.
func Mean(gray *image.Gray) float64 {
	b := gray.Bounds()
	n := b.Dx() * b.Dy()
	if n <= 0 {
		return 0
	}

	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, y):gray.PixOffset(b.Max.X, y)]
		for _, v := range row {
			sum += uint64(v)
		}
	}

	return float64(sum) / float64(n)
}

// ShouldMark reports whether the mean brightness of gray is strictly above threshold.
//
// gray is usually a SubImage view of a larger buffer, and trailing segments
// may be smaller than the nominal segment size; only the view's own bounds
// are read. An empty view is never marked.
func ShouldMark(gray *image.Gray, threshold float64) bool {
	if gray.Bounds().Empty() {
		return false
	}
	return Mean(gray) > threshold
}
