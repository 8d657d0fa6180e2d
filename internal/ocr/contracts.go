package ocr

import (
	"context"
	"time"
)

// TextExtractor turns a receipt image into plain text. The engine behind it
// (tesseract here) is an external collaborator; any error it raises is fatal
// to the submission that triggered it.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Method   string // "image-ocr"
	Language string
	Duration time.Duration
}
