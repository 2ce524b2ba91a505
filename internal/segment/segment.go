package segment

import "image"

// Segment is a rectangular tile of an image.
type Segment struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the segment's rectangle.
func (s Segment) Rect() image.Rectangle {
	return image.Rect(s.X, s.Y, s.X+s.Width, s.Y+s.Height)
}

// Partition tiles bounds row-major with squares of edge size.
//
// Segment coordinates are absolute, so a bounds with a non-zero Min yields
// segments starting at Min. Trailing segments are clamped to bounds. A
// non-positive size or an empty bounds yields nil.
func Partition(bounds image.Rectangle, size int) []Segment {
	if size <= 0 || bounds.Empty() {
		return nil
	}

	cols := (bounds.Dx() + size - 1) / size
	rows := (bounds.Dy() + size - 1) / size
	segments := make([]Segment, 0, cols*rows)

	for y := bounds.Min.Y; y < bounds.Max.Y; y += size {
		h := min(size, bounds.Max.Y-y)
		for x := bounds.Min.X; x < bounds.Max.X; x += size {
			w := min(size, bounds.Max.X-x)
			segments = append(segments, Segment{X: x, Y: y, Width: w, Height: h})
		}
	}

	return segments
}
