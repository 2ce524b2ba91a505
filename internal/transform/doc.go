// Package transform marks bright segments of an image.
//
// A transform converts an image to grayscale (BT.601 weights), smooths it
// with a square Gaussian kernel, expands it back to an opaque colour image
// and draws an accent-coloured frame over every segment whose mean
// brightness is strictly above a threshold.
//
// # Smoothing
//
// The kernel edge length must be a positive odd integer. The standard
// deviation is derived from it as 0.3*((k-1)*0.5 - 1) + 0.8, so output is
// reproducible for a given kernel size. The blur runs as two separable
// passes through bild's convolution package, extending edge pixels at the
// borders.
//
// # Concurrency
//
// There are two levels of parallelism:
//   - ProcessPair runs the transforms of two images in separate goroutines.
//     Each owns its buffers; nothing is shared between them.
//   - Within one transform, segments are scored by a bounded errgroup. All
//     tasks share one output buffer but each writes only inside its own
//     segment through a SubImage view, so no lock is needed. The join in
//     errgroup.Wait publishes the writes to the caller.
//
// Cancelling the context stops new segment tasks from being submitted. A
// failing or panicking task aborts the whole transform, and a failing
// transform aborts the pair.
//
// # Errors
//
// Invalid configuration is reported as a logging.KindValidation error before
// any work starts. Failures during processing are logging.KindProcessing.
package transform
