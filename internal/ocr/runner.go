package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// Runner lets us stub the tesseract binary in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// execRunner shells out for real. It logs through the extractor's logger so
// OCR exec lines carry the same handler and attributes as the rest of the
// pipeline.
type execRunner struct {
	logger *slog.Logger
}

// tesseract can dump pages of warnings to stderr; cap what reaches the log.
const maxStderrLog = 8 << 10

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		r.logger.Error("ocr exec failed",
			"cmd", name,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
			"stderr", clip(errb.String(), maxStderrLog),
		)
		return out.Bytes(), errb.Bytes(), err
	}

	r.logger.Debug("ocr exec ok",
		"cmd", name,
		"duration_ms", elapsed.Milliseconds(),
		"stdout_bytes", out.Len(),
		"stderr_bytes", errb.Len(),
	)
	return out.Bytes(), errb.Bytes(), nil
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
