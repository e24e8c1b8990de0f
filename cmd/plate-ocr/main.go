package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/config"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/ocr"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/pipeline"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/server"
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
			fmt.Printf("plate-ocr %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  OCR:        %s\n", ocr.Backend)
			return
		case "--help", "-h", "help":
			fmt.Println("plate-ocr - license plate detection and OCR over a web upload form")
			fmt.Println()
			fmt.Println("Usage: plate-ocr [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  OCR_ENGINE_PATH=<dir>        Tesseract tessdata directory (required)")
			fmt.Println("  OCR_LANGUAGE=eng             Tesseract language model")
			fmt.Println("  PLATE_ADDR=:8080             Listen address")
			fmt.Println("  PLATE_MAX_UPLOAD_MB=20       Upload size limit")
			fmt.Println("  PLATE_STRATEGY=first-match   Locator strategy (first-match, plausible)")
			fmt.Println("  PLATE_LOG_LEVEL=debug        Enable debug logging")
			fmt.Println("  PLATE_CONFIG=<file>          Optional YAML configuration file")
			fmt.Println()
			fmt.Println("A .env file in the working directory is loaded if present.")
			return
		}
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if cfg.Debug() {
		log.Printf("plate-ocr v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := ocr.NewEngine(ocr.Options{
		TessdataPath: cfg.OCR.TessdataPath,
		Language:     cfg.OCR.Language,
		PageSegMode:  cfg.OCR.PageSegMode,
		Scale:        cfg.OCR.Scale,
		Binarize:     cfg.OCR.Binarize,
		Threshold:    cfg.OCR.Threshold,
	})
	if err := engine.Check(); err != nil {
		log.Fatalf("OCR engine error: %v", err)
	}
	log.Printf("OCR: %s %s (%s)", ocr.Backend, engine.Version(), cfg.OCR.Language)

	params, err := pipeline.ParamsFromConfig(cfg.Pipeline)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	pipe := pipeline.New(params, engine, cfg.Debug())

	srv, err := server.New(server.Options{
		MaxUploadMB: cfg.MaxUploadMB,
		Version:     Version,
		TopContours: params.TopContours,
	}, pipe, engine)
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Listening on %s", cfg.Addr)
	if err := srv.Run(ctx, cfg.Addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Printf("Server stopped")
}
