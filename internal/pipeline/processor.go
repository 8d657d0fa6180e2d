// Package pipeline sequences one receipt submission end to end:
// OCR -> classification -> user confirmation -> extraction -> enrichment ->
// reconciliation, producing a user-facing summary.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/classify"
	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/enrich"
	"github.com/despensa-app/despensa/internal/entity"
	"github.com/despensa-app/despensa/internal/grammar"
	"github.com/despensa-app/despensa/internal/ocr"
	"github.com/despensa-app/despensa/internal/reconcile"
)

// ConfirmFunc asks the user to accept or reject the detected establishment.
// A nil ConfirmFunc on the request means auto-accept.
type ConfirmFunc func(ctx context.Context, est constants.Establishment) (bool, error)

// Request is one receipt submission. Exactly one of ImagePath or OCRText
// must be set; OCRText is the resume path for flows that already ran OCR
// (e.g. a preview/confirm round trip).
type Request struct {
	ImagePath string
	OCRText   string
	User      string
	Confirm   ConfirmFunc

	// Establishment, when set, overrides classification. This is how
	// keyword-less establishments (Ametller) are selected by hand.
	Establishment constants.Establishment
}

// Processor coordinates the ingestion stages. A single busy flag serializes
// submissions: it is taken before the first suspension point and released on
// every exit path.
type Processor struct {
	logger   *slog.Logger
	ocr      ocr.TextExtractor
	enricher *enrich.Enricher
	engine   *reconcile.Engine

	busy atomic.Bool
}

func NewProcessor(logger *slog.Logger, tx ocr.TextExtractor, enricher *enrich.Enricher, engine *reconcile.Engine) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, ocr: tx, enricher: enricher, engine: engine}
}

// Preview runs OCR and classification only, for flows that show the detected
// establishment to the user before committing anything.
func (p *Processor) Preview(ctx context.Context, user, imagePath string) (string, constants.Establishment, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return "", constants.UnknownEstablishment, common.ErrBusy
	}
	defer p.busy.Store(false)

	if user == "" {
		return "", constants.UnknownEstablishment, common.ErrNoSession
	}
	text, err := p.recognize(ctx, imagePath)
	if err != nil {
		return "", constants.UnknownEstablishment, err
	}
	return text, p.classify(text), nil
}

// Run executes a full submission and returns the summary. The summary is
// non-nil even on failure so callers can report the terminal state.
func (p *Processor) Run(ctx context.Context, req Request) (*entity.IngestSummary, error) {
	summary := &entity.IngestSummary{
		State:         constants.StateIdle,
		Establishment: constants.UnknownEstablishment,
	}

	if !p.busy.CompareAndSwap(false, true) {
		return summary, common.ErrBusy
	}
	defer p.busy.Store(false)

	if req.User == "" {
		summary.State = constants.StateFailed
		return summary, common.ErrNoSession
	}

	// OCR
	text := req.OCRText
	if text == "" {
		summary.State = constants.StateImageLoaded
		var err error
		text, err = p.recognize(ctx, req.ImagePath)
		if err != nil {
			summary.State = failedStateFor(err)
			return summary, err
		}
	} else if strings.TrimSpace(text) == "" {
		summary.State = constants.StateFailed
		return summary, common.ErrEmptyOCR
	}
	summary.State = constants.StateExtracting

	// Classification; unknown must never fall through to a guessed grammar.
	est := req.Establishment
	if est == "" {
		est = p.classify(text)
	}
	if est == constants.UnknownEstablishment {
		summary.State = constants.StateEstablishmentRejected
		return summary, common.ErrUnknownEstablishment
	}
	summary.Establishment = est
	summary.State = constants.StateEstablishmentResolved

	// Confirmation
	if req.Confirm != nil {
		ok, err := req.Confirm(ctx, est)
		if err != nil {
			summary.State = constants.StateFailed
			return summary, common.WrapError(err, "establishment confirmation")
		}
		if !ok {
			summary.State = constants.StateEstablishmentRejected
			p.logger.Info("pipeline.establishment_rejected", "user", req.User, "establishment", est)
			return summary, common.ErrEstablishmentRejected
		}
	}

	// Extraction
	items, err := grammar.Extract(text, est)
	if err != nil {
		summary.State = constants.StateEstablishmentRejected
		return summary, err
	}
	summary.ItemsExtracted = len(items)
	p.logger.Info("pipeline.extract_done", "user", req.User, "establishment", est, "items", len(items))

	// Enrichment (best effort) + reconciliation
	summary.State = constants.StateReconciliationInFlight
	p.enricher.EnrichAll(ctx, items)
	res := p.engine.Reconcile(ctx, items)

	summary.SuccessCount = res.SuccessCount
	summary.Failures = res.Failures
	summary.State = constants.StateCompleted
	p.logger.Info("pipeline.completed",
		"user", req.User,
		"establishment", est,
		"items", len(items),
		"success", res.SuccessCount,
		"failures", len(res.Failures),
	)
	return summary, nil
}

// recognize runs OCR over the image and rejects empty results.
func (p *Processor) recognize(ctx context.Context, imagePath string) (string, error) {
	if imagePath == "" {
		return "", common.ErrNoImage
	}
	res, err := p.ocr.Extract(ctx, imagePath)
	if err != nil {
		return "", common.WrapError(err, "ocr extraction")
	}
	if strings.TrimSpace(res.Text) == "" {
		return "", common.ErrEmptyOCR
	}
	p.logger.Info("pipeline.ocr_done", "path", imagePath, "bytes", len(res.Text), "method", res.Method)
	return res.Text, nil
}

func (p *Processor) classify(text string) constants.Establishment {
	est := classify.Classify(text)
	p.logger.Info("pipeline.classified", "establishment", est)
	return est
}

func failedStateFor(err error) constants.IngestState {
	if errors.Is(err, common.ErrNoImage) {
		return constants.StateIdle
	}
	return constants.StateFailed
}
