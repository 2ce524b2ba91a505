// Package server implements the HTTP API of the collage service.
//
// The server is a thin layer around the transform and collage packages: it
// parses the upload, hands decoded images to the pipeline, and streams the
// result back. It is built on gin and logs with zap.
//
// # Endpoints
//
//   - GET /health: returns {"status":"healthy"}.
//   - POST /process: multipart form with two files and three numbers:
//     image1, image2, kernel_size, segment_size, brightness_threshold.
//     On success the body is the PNG collage (Content-Type
//     application/octet-stream), with X-Request-ID and X-Marked-Segments
//     ("<count image1>,<count image2>") headers.
//
// # Error Handling
//
// Failures are returned as JSON {"detail": "...", "kind": "..."}:
//   - 400: a file is not a decodable image (kind "decode")
//   - 413: the request body exceeds max_upload_bytes
//   - 422: a form field is missing or malformed (kind "input"), or the
//     transform parameters are out of range (kind "validation")
//   - 500: processing, encoding or persistence failed (kind "processing")
//
// No partial collage is ever returned.
//
// # Persistence
//
// When an output folder is configured, every collage is also written there
// under a timestamp-derived name before the response is sent.
//
// # Usage
//
//	srv := server.New(cfg, transform.New(opts), logger)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal("server failed", zap.Error(err))
//	}
package server
