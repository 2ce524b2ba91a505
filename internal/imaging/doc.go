// Package imaging is the codec boundary of the collage service.
//
// It turns uploaded bytes into image.Image values and turns finished
// collages back into PNG bytes or files. No pixel processing happens here;
// see the transform and collage packages for that.
//
// # Decoding
//
// Decode accepts PNG, JPEG and GIF through the standard library and BMP,
// TIFF and WebP through golang.org/x/image. The format is detected from the
// content, so a file name or declared content type is never trusted. Bytes
// that are not a supported image yield a logging.KindDecode error, which the
// HTTP layer reports as a client error.
//
// # Encoding and Persistence
//
// EncodePNG streams a collage to a writer. SaveCollage writes a copy into an
// output folder under a timestamp-derived name:
//
//	final_collage_20060102_150405_<suffix>.png
//
// Encoding and persistence failures are logging.KindProcessing errors.
//
// # Thread Safety
//
// All functions are stateless and may be called concurrently.
package imaging
