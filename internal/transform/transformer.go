package transform

import (
	"context"
	"image"
	"image/color"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-collage/internal/logging"
	"github.com/ironsheep/image-collage/internal/segment"
	"github.com/ironsheep/image-collage/internal/system"
)

// StrokeWidth is the width in pixels of the frame drawn around a marked segment.
const StrokeWidth = 2

// DefaultAccent is the frame colour used when Options.Accent is nil.
var DefaultAccent = color.NRGBA{R: 255, G: 0, B: 0, A: 255}

// Options configures a Transformer.
type Options struct {
	// Workers bounds the number of segment tasks running at once for one
	// image. Non-positive means one per logical CPU.
	Workers int

	// Accent is the frame colour. Nil means DefaultAccent.
	Accent color.Color

	// Logger receives debug progress messages. Nil disables logging.
	Logger *zap.Logger
}

// Processed is the result of transforming one image.
type Processed struct {
	// Image is the blurred grayscale image expanded to colour, with frames
	// drawn over marked segments. It always starts at (0,0).
	Image *image.NRGBA

	// Segments is the full row-major partition that was scored.
	Segments []segment.Segment

	// Marked lists the segments whose mean brightness exceeded the
	// threshold, in row-major order.
	Marked []segment.Segment
}

// Transformer runs the segment-marking transform. It holds no per-image
// state and is safe for concurrent use.
type Transformer struct {
	workers int
	accent  color.NRGBA
	logger  *zap.Logger

	// score decides whether a segment is marked.
	score func(gray *image.Gray, threshold float64) bool
}

// New creates a Transformer from opts.
func New(opts Options) *Transformer {
	accent := DefaultAccent
	if opts.Accent != nil {
		accent = color.NRGBAModel.Convert(opts.Accent).(color.NRGBA)
		accent.A = 0xff
	}

	return &Transformer{
		workers: system.Workers(opts.Workers),
		accent:  accent,
		logger:  logging.OrNop(opts.Logger).Named("transform"),
		score:   segment.ShouldMark,
	}
}

// Workers returns the per-image segment concurrency.
func (t *Transformer) Workers() int {
	return t.workers
}

// Transform converts img to grayscale, blurs it, expands it back to colour
// and frames every segment whose mean brightness is above the threshold.
//
// cfg and img are validated before any buffer is allocated; a
// KindValidation error is returned for an even or non-positive kernel size,
// a non-positive segment size, a threshold outside [0,255], or an empty
// image. Segments are scored concurrently on at most Workers() goroutines.
// Each task writes only inside its own segment of the shared output buffer.
// The first failing task, or cancellation of ctx, stops further tasks from
// being submitted and the call returns a KindProcessing error.
func (t *Transformer) Transform(ctx context.Context, img image.Image, cfg Config) (*Processed, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateImage(img); err != nil {
		return nil, err
	}
	return t.transform(ctx, img, cfg)
}

func (t *Transformer) transform(ctx context.Context, img image.Image, cfg Config) (*Processed, error) {
	start := time.Now()
	b := img.Bounds()
	t.logger.Debug("start processing",
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Int("kernel_size", cfg.KernelSize),
		zap.Int("segment_size", cfg.SegmentSize),
		zap.Float64("brightness_threshold", cfg.BrightnessThreshold),
	)

	smoothed := smooth(grayscale(img), cfg.KernelSize)
	out := expand(smoothed)

	segs := segment.Partition(out.Bounds(), cfg.SegmentSize)
	marked := make([]bool, len(segs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)

	for i, s := range segs {
		if gctx.Err() != nil {
			break
		}
		i, s := i, s
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = logging.Processingf("transform.segment", "segment at (%d,%d): %v", s.X, s.Y, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			marked[i] = t.annotate(smoothed, out, s, cfg.BrightnessThreshold)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if logging.KindOf(err) == logging.KindUnknown {
			err = logging.NewOperationError(logging.KindProcessing, "transform.segments", "", err)
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, logging.NewOperationError(logging.KindProcessing, "transform.segments", "", err)
	}

	result := &Processed{Image: out, Segments: segs}
	for i, m := range marked {
		if m {
			result.Marked = append(result.Marked, segs[i])
		}
	}

	t.logger.Debug("done processing",
		zap.Int("segments", len(segs)),
		zap.Int("marked", len(result.Marked)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// annotate scores s on the smoothed buffer and frames it in out when marked.
// Both reads and writes go through SubImage views limited to s.
func (t *Transformer) annotate(smoothed *image.Gray, out *image.NRGBA, s segment.Segment, threshold float64) bool {
	r := s.Rect()
	if !t.score(smoothed.SubImage(r).(*image.Gray), threshold) {
		return false
	}
	drawFrame(out.SubImage(r).(*image.NRGBA), r, t.accent, StrokeWidth)
	return true
}
