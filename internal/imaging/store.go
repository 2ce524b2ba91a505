package imaging

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-collage/internal/logging"
)

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return logging.NewOperationError(logging.KindProcessing, "imaging.encode", "", fmt.Errorf("failed to encode image: %w", err))
	}
	return nil
}

// CollageFilename returns the file name used to persist a collage created
// at t. The suffix keeps names unique when several collages are created in
// the same second.
func CollageFilename(t time.Time, suffix string) string {
	name := "final_collage_" + t.Format("20060102_150405")
	if suffix != "" {
		name += "_" + suffix
	}
	return name + ".png"
}

// SaveCollage writes img as PNG into dir and returns the file path.
//
// dir is created if it does not exist. Errors are logging.KindProcessing.
func SaveCollage(dir string, img image.Image, t time.Time, suffix string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", logging.NewOperationError(logging.KindProcessing, "imaging.save", "", fmt.Errorf("failed to create output folder: %w", err))
	}

	path := filepath.Join(dir, CollageFilename(t, suffix))
	if err := imaging.Save(img, path); err != nil {
		return "", logging.NewOperationError(logging.KindProcessing, "imaging.save", "", fmt.Errorf("failed to save collage: %w", err))
	}
	return path, nil
}
