package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/image-collage/internal/collage"
	"github.com/ironsheep/image-collage/internal/imaging"
	"github.com/ironsheep/image-collage/internal/logging"
	"github.com/ironsheep/image-collage/internal/transform"
)

// Response headers set by /process.
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderMarkedSegments = "X-Marked-Segments"
)

// Form fields of /process.
const (
	fieldImage1              = "image1"
	fieldImage2              = "image2"
	fieldKernelSize          = "kernel_size"
	fieldSegmentSize         = "segment_size"
	fieldBrightnessThreshold = "brightness_threshold"
)

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)
	router.POST("/process", s.handleProcess)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleProcess transforms two uploaded images and returns their collage as PNG.
//
// The response body is the PNG collage with Content-Type
// application/octet-stream. Failures are JSON {"detail": ..., "kind": ...}.
func (s *Server) handleProcess(c *gin.Context) {
	requestID := uuid.NewString()
	c.Header(HeaderRequestID, requestID)
	opLogger := logging.WithOperation(s.logger, "server.process", requestID)

	if c.Request.ContentLength > s.cfg.MaxUploadBytes {
		s.fail(c, opLogger, http.StatusRequestEntityTooLarge, "request body too large", nil)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	// Parse up front: gin's form accessors swallow parse errors, which would
	// turn an oversized chunked body into a missing-field error.
	if err := c.Request.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = inputError("invalid multipart form: %v", err)
		}
		s.failWith(c, opLogger, err)
		return
	}

	cfg, err := parseTransformConfig(c)
	if err != nil {
		s.failWith(c, opLogger, err)
		return
	}

	first, err := s.decodeUpload(c, fieldImage1)
	if err != nil {
		s.failWith(c, opLogger, err)
		return
	}
	second, err := s.decodeUpload(c, fieldImage2)
	if err != nil {
		s.failWith(c, opLogger, err)
		return
	}

	opLogger.Debug("uploads decoded",
		zap.Object(fieldImage1, first.Info),
		zap.Object(fieldImage2, second.Info),
	)

	a, b, err := s.transformer.ProcessPair(c.Request.Context(), first.Image, second.Image, cfg)
	if err != nil {
		s.failWith(c, opLogger, err)
		return
	}
	opLogger.Debug("images processed",
		zap.Int("marked_image1", len(a.Marked)),
		zap.Int("marked_image2", len(b.Marked)),
	)

	out, err := collage.Compose(a.Image, b.Image)
	if err != nil {
		s.failWith(c, opLogger, err)
		return
	}
	opLogger.Debug("collage created", zap.Int("width", out.Bounds().Dx()), zap.Int("height", out.Bounds().Dy()))

	if s.cfg.OutputFolder != "" {
		path, err := imaging.SaveCollage(s.cfg.OutputFolder, out, s.now(), requestID[:8])
		if err != nil {
			s.failWith(c, opLogger, err)
			return
		}
		opLogger.Debug("image saved", zap.String("path", path))
	}

	var buf bytes.Buffer
	if err := imaging.EncodePNG(&buf, out); err != nil {
		s.failWith(c, opLogger, err)
		return
	}
	opLogger.Debug("response image created", zap.Int("bytes", buf.Len()))

	c.Header(HeaderMarkedSegments, fmt.Sprintf("%d,%d", len(a.Marked), len(b.Marked)))
	c.Data(http.StatusOK, "application/octet-stream", buf.Bytes())
}

// parseTransformConfig reads the transform parameters from the form.
// Range checks are left to transform.Config.Validate.
func parseTransformConfig(c *gin.Context) (transform.Config, error) {
	kernel, err := formInt(c, fieldKernelSize)
	if err != nil {
		return transform.Config{}, err
	}
	size, err := formInt(c, fieldSegmentSize)
	if err != nil {
		return transform.Config{}, err
	}

	raw, ok := c.GetPostForm(fieldBrightnessThreshold)
	if !ok || raw == "" {
		return transform.Config{}, inputError("%s is required", fieldBrightnessThreshold)
	}
	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return transform.Config{}, inputError("%s must be a number, got %q", fieldBrightnessThreshold, raw)
	}

	return transform.Config{KernelSize: kernel, SegmentSize: size, BrightnessThreshold: threshold}, nil
}

func formInt(c *gin.Context, field string) (int, error) {
	raw, ok := c.GetPostForm(field)
	if !ok || raw == "" {
		return 0, inputError("%s is required", field)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, inputError("%s must be an integer, got %q", field, raw)
	}
	return n, nil
}

// decodeUpload opens and decodes the multipart file in field.
func (s *Server) decodeUpload(c *gin.Context, field string) (*imaging.Decoded, error) {
	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, inputError("%s file is required", field)
	}

	src, err := header.Open()
	if err != nil {
		return nil, inputError("unable to open %s", field)
	}
	defer src.Close()

	decoded, err := imaging.Decode(src)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func inputError(format string, args ...any) error {
	return logging.NewOperationError(logging.KindInput, "server.form", "", fmt.Errorf(format, args...))
}

// statusFor maps an error to the HTTP status reported to the client.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}

	switch logging.KindOf(err) {
	case logging.KindDecode:
		return http.StatusBadRequest
	case logging.KindInput, logging.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// detailFor returns the client-facing message for err.
func detailFor(status int, err error) string {
	switch status {
	case http.StatusBadRequest:
		return "Files must be of type image."
	case http.StatusRequestEntityTooLarge:
		return "request body too large"
	case http.StatusInternalServerError:
		return fmt.Sprintf("Error processing images: %v", err)
	default:
		return err.Error()
	}
}

func (s *Server) failWith(c *gin.Context, opLogger *zap.Logger, err error) {
	status := statusFor(err)
	s.fail(c, opLogger, status, detailFor(status, err), err)
}

func (s *Server) fail(c *gin.Context, opLogger *zap.Logger, status int, detail string, err error) {
	fields := []zap.Field{zap.Int("status", status), zap.String("kind", logging.KindOf(err).String())}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if status >= http.StatusInternalServerError {
		opLogger.Error("request failed", fields...)
	} else {
		opLogger.Warn("request rejected", fields...)
	}

	c.AbortWithStatusJSON(status, gin.H{
		"detail": detail,
		"kind":   logging.KindOf(err).String(),
	})
}
