// Package segment splits images into fixed-size tiles and scores their brightness.
//
// A Segment is a rectangle of an image, addressed with the same coordinate
// convention as the rest of the module: (0,0) is the top-left pixel, X grows
// rightward and Y grows downward. A segment covers [X, X+Width) × [Y, Y+Height).
//
// # Partition
//
// Partition tiles an image row-major (top-to-bottom, left-to-right) with
// squares of a nominal edge length. The last column and the last row are
// clamped to the image bounds, so they may be narrower or shorter than the
// nominal size. The resulting rectangles never overlap and leave no gaps.
//
// # Scoring
//
// ShouldMark reports whether the mean sample value of a grayscale view is
// strictly greater than a threshold. It reads only the view it is given and
// has no side effects, so it is safe to call concurrently on disjoint or
// shared read-only views.
package segment
