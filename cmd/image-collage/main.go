package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ironsheep/image-collage/internal/config"
	"github.com/ironsheep/image-collage/internal/logging"
	"github.com/ironsheep/image-collage/internal/server"
	"github.com/ironsheep/image-collage/internal/transform"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-collage %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("image-collage - HTTP service that marks bright segments of two images and joins them")
			fmt.Println()
			fmt.Println("Usage: image-collage [-config path]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  -config path     YAML configuration file")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  COLLAGE_ADDR=:8080           Listen address")
			fmt.Println("  OUTPUT_FOLDER=results        Folder for saved collages (empty disables)")
			fmt.Println("  COLLAGE_LOG_LEVEL=debug      Log level")
			fmt.Println("  COLLAGE_WORKERS=0            Segment workers per image (0 = CPU count)")
			fmt.Println()
			fmt.Println("Endpoints: POST /process, GET /health")
			return
		}
	}

	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Debug("image-collage starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
	)

	if cfg.OutputFolder != "" {
		if err := os.MkdirAll(cfg.OutputFolder, 0o755); err != nil {
			logger.Fatal("failed to create output folder", zap.String("path", cfg.OutputFolder), zap.Error(err))
		}
	}

	accent, err := cfg.Accent()
	if err != nil {
		logger.Fatal("invalid accent colour", zap.Error(err))
	}

	transformer := transform.New(transform.Options{
		Workers: cfg.Workers,
		Accent:  accent,
		Logger:  logger,
	})
	logger.Info("transformer ready", zap.Int("workers_per_image", transformer.Workers()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, transformer, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
