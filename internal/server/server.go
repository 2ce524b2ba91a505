package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/image-collage/internal/config"
	"github.com/ironsheep/image-collage/internal/logging"
	"github.com/ironsheep/image-collage/internal/transform"
)

// Server serves the collage HTTP API.
type Server struct {
	cfg         *config.Config
	transformer *transform.Transformer
	logger      *zap.Logger
	engine      *gin.Engine

	// now is the clock used for persisted file names.
	now func() time.Time
}

// New creates a server instance with its routes registered.
func New(cfg *config.Config, transformer *transform.Transformer, logger *zap.Logger) *Server {
	s := &Server{
		cfg:         cfg,
		transformer: transformer,
		logger:      logging.OrNop(logger).Named("server"),
		now:         time.Now,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	// Uploads larger than this spill to temporary files.
	engine.MaxMultipartMemory = cfg.MaxUploadBytes
	s.registerRoutes(engine)
	s.engine = engine

	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully within
// the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	s.logger.Info("collage API listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down", zap.Error(context.Cause(ctx)))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}

// requestLogger logs one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("request_id", c.Writer.Header().Get(HeaderRequestID)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
