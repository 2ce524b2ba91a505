package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/image-collage/internal/logging"
)

// ImageInfo contains metadata about a decoded upload.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format name reported by the decoder: "png", "jpeg",
	// "gif", "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the size of the encoded upload in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (i ImageInfo) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("width", i.Width)
	enc.AddInt("height", i.Height)
	enc.AddString("format", i.Format)
	enc.AddString("color_depth", i.ColorDepth)
	// Alpha is discarded by the transform.
	enc.AddBool("has_alpha", i.HasAlpha)
	enc.AddInt64("size_bytes", i.SizeBytes)
	return nil
}

// Decoded is an upload after decoding.
type Decoded struct {
	Image image.Image
	Info  ImageInfo
}

// Decode reads and decodes one uploaded image.
//
// Parameters:
//   - r: The encoded image bytes. Supported formats are PNG, JPEG, GIF, BMP,
//     TIFF and WebP; detection is based on content, not on a file name or
//     a declared content type.
//
// Returns:
//   - *Decoded: The image and its metadata.
//   - error: A logging.KindDecode error if the bytes cannot be read, are not
//     a supported image, or decode to an image with no pixels.
func Decode(r io.Reader) (*Decoded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, logging.NewOperationError(logging.KindDecode, "imaging.decode", "", fmt.Errorf("failed to read image: %w", err))
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes an in-memory image. See Decode.
func DecodeBytes(data []byte) (*Decoded, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, logging.NewOperationError(logging.KindDecode, "imaging.decode", "", fmt.Errorf("failed to decode image: %w", err))
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, logging.NewOperationError(logging.KindDecode, "imaging.decode", "", fmt.Errorf("decoded image has no pixels"))
	}

	info := describe(img)
	info.Format = format
	info.SizeBytes = int64(len(data))
	return &Decoded{Image: img, Info: info}, nil
}

// describe extracts dimensions, colour depth and alpha presence.
//
// Color depth is determined by the Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - All other types -> "8-bit"
func describe(img image.Image) ImageInfo {
	bounds := img.Bounds()

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	return ImageInfo{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		ColorDepth: colorDepth,
		HasAlpha:   hasAlpha,
	}
}
