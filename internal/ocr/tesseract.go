package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config for the tesseract-backed extractor.
type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Language  string // default "spa"; receipts here are Spanish/Catalan
	PSM       int    // page segmentation mode; 6 suits a uniform block of text
}

// Extractor runs tesseract over a single receipt image.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "spa"
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner; tests stub external binaries this way.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

var supportedExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// Extract OCRs the image at path. "stdout" as output base makes tesseract
// write the recognized text to stdout instead of a file.
func (e *Extractor) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExts[ext] {
		e.logger.Error("unsupported ocr extension", "extension", ext)
		return TextExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	if _, err := os.Stat(path); err != nil {
		return TextExtractionResult{}, fmt.Errorf("stat image: %w", err)
	}

	args := []string{path, "stdout", "-l", e.cfg.Language, "--psm", strconv.Itoa(e.cfg.PSM)}
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return TextExtractionResult{}, fmt.Errorf("tesseract: %w", err)
	}

	res := TextExtractionResult{
		Text:     string(out),
		Method:   "image-ocr",
		Language: e.cfg.Language,
		Duration: time.Since(start),
	}
	e.logger.Debug("ocr extraction done",
		"path", path,
		"bytes", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
