package transform

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-collage/internal/logging"
)

// ProcessPair transforms a and b concurrently with the same cfg.
//
// Validation happens once, before either transform starts. Each image is
// processed in its own goroutine with private buffers, and each transform
// is internally parallel over its segments. Both results are returned only
// when both succeed; the first error cancels the other transform and is
// returned alone.
func (t *Transformer) ProcessPair(ctx context.Context, a, b image.Image, cfg Config) (*Processed, *Processed, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	for i, img := range []image.Image{a, b} {
		if err := validateImage(img); err != nil {
			return nil, nil, logging.Validationf("transform.pair", "image%d: %v", i+1, err)
		}
	}

	var pa, pb *Processed
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := t.transform(gctx, a, cfg)
		if err != nil {
			return err
		}
		pa = p
		return nil
	})
	g.Go(func() error {
		p, err := t.transform(gctx, b, cfg)
		if err != nil {
			return err
		}
		pb = p
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return pa, pb, nil
}
