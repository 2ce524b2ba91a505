package transform

import (
	"image"

	"github.com/ironsheep/image-collage/internal/logging"
)

// MaxBrightness is the largest mean sample intensity of an 8-bit image.
const MaxBrightness = 255

// Config holds the parameters of one transform. It is a value type and is
// never modified by the transformer.
type Config struct {
	// KernelSize is the edge length of the square Gaussian kernel. Must be a
	// positive odd integer; 1 disables smoothing.
	KernelSize int `json:"kernel_size" yaml:"kernel_size"`

	// SegmentSize is the nominal edge length of a segment in pixels.
	SegmentSize int `json:"segment_size" yaml:"segment_size"`

	// BrightnessThreshold is compared with a segment's mean intensity. A
	// segment is marked when its mean is strictly greater.
	BrightnessThreshold float64 `json:"brightness_threshold" yaml:"brightness_threshold"`
}

// Validate reports the first invalid field as a KindValidation error.
func (c Config) Validate() error {
	if c.KernelSize <= 0 || c.KernelSize%2 == 0 {
		return logging.Validationf("transform.validate", "kernel_size must be a positive odd integer, got %d", c.KernelSize)
	}
	if c.SegmentSize <= 0 {
		return logging.Validationf("transform.validate", "segment_size must be positive, got %d", c.SegmentSize)
	}
	if c.BrightnessThreshold < 0 || c.BrightnessThreshold > MaxBrightness {
		return logging.Validationf("transform.validate", "brightness_threshold must be within [0, %d], got %v", MaxBrightness, c.BrightnessThreshold)
	}
	return nil
}

func validateImage(img image.Image) error {
	if img == nil {
		return logging.Validationf("transform.validate", "image is nil")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return logging.Validationf("transform.validate", "image must have positive dimensions, got %dx%d", b.Dx(), b.Dy())
	}
	return nil
}
