package server

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/async"
	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/entity"
	"github.com/despensa-app/despensa/internal/pipeline"
)

// preview is a submission frozen between OCR and reconciliation, waiting for
// the user to accept or reject the detected establishment.
type preview struct {
	User          string
	OCRText       string
	Establishment constants.Establishment
	ExpiresAt     time.Time
}

type previewStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[uuid.UUID]preview
}

func newPreviewStore(ttl time.Duration) *previewStore {
	return &previewStore{ttl: ttl, m: make(map[uuid.UUID]preview)}
}

func (ps *previewStore) put(p preview) uuid.UUID {
	id := uuid.New()
	p.ExpiresAt = time.Now().Add(ps.ttl)
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for k, v := range ps.m {
		if time.Now().After(v.ExpiresAt) {
			delete(ps.m, k)
		}
	}
	ps.m[id] = p
	return id
}

func (ps *previewStore) take(id uuid.UUID) (preview, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	p, ok := ps.m[id]
	if !ok {
		return preview{}, false
	}
	delete(ps.m, id)
	if time.Now().After(p.ExpiresAt) {
		return preview{}, false
	}
	return p, true
}

type receiptPreviewRequest struct {
	ImagePath string `json:"image_path" validate:"required"`
}

type receiptPreviewResponse struct {
	PreviewID     uuid.UUID               `json:"preview_id"`
	Establishment constants.Establishment `json:"establishment"`
	OCRText       string                  `json:"ocr_text"`
}

// handleReceiptPreview runs OCR and classification only. Nothing is written;
// the caller must confirm before reconciliation starts.
func (s *Server) handleReceiptPreview(c *fiber.Ctx) error {
	user := s.user(c)

	var req receiptPreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body: "+err.Error())
	}
	if err := s.validator.Struct(&req); err != nil {
		return err
	}

	text, est, err := s.processor.Preview(c.UserContext(), user, req.ImagePath)
	if err != nil {
		return err
	}

	id := s.previews.put(preview{User: user, OCRText: text, Establishment: est})
	s.logger.Info("receipt preview ready",
		"request_id", c.Locals("request_id"),
		"preview_id", id,
		"establishment", est,
	)
	return c.Status(fiber.StatusAccepted).JSON(receiptPreviewResponse{
		PreviewID:     id,
		Establishment: est,
		OCRText:       text,
	})
}

type receiptConfirmRequest struct {
	PreviewID     uuid.UUID `json:"preview_id" validate:"required"`
	Accept        bool      `json:"accept"`
	Establishment string    `json:"establishment,omitempty"`
}

// handleReceiptConfirm resumes a previewed submission. Accepted previews run
// the full pipeline on the worker queue; the response carries the terminal
// summary once the run finishes.
func (s *Server) handleReceiptConfirm(c *fiber.Ctx) error {
	user := s.user(c)
	if user == "" {
		return common.ErrNoSession
	}

	var req receiptConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body: "+err.Error())
	}
	if err := s.validator.Struct(&req); err != nil {
		return err
	}

	p, ok := s.previews.take(req.PreviewID)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "preview not found or expired")
	}
	if p.User != user {
		return fiber.NewError(fiber.StatusForbidden, "preview belongs to another user")
	}
	if !req.Accept {
		s.logger.Info("receipt preview rejected", "preview_id", req.PreviewID, "user", user)
		return c.JSON(entity.IngestSummary{
			State:         constants.StateEstablishmentRejected,
			Establishment: p.Establishment,
		})
	}

	est := p.Establishment
	if req.Establishment != "" {
		parsed, ok := constants.ParseEstablishment(req.Establishment)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "unknown establishment "+req.Establishment)
		}
		est = parsed
	}

	type outcome struct {
		summary *entity.IngestSummary
		err     error
	}
	done := make(chan outcome, 1)
	err := s.queue.Enqueue(c.UserContext(), async.Job{
		ID:          uuid.New(),
		SubmittedAt: time.Now(),
		Request: pipeline.Request{
			OCRText:       p.OCRText,
			User:          user,
			Establishment: est,
		},
		OnDone: func(summary *entity.IngestSummary, err error) {
			done <- outcome{summary: summary, err: err}
		},
	})
	if err != nil {
		return err
	}

	select {
	case out := <-done:
		if out.err != nil {
			return out.err
		}
		return c.JSON(out.summary)
	case <-c.UserContext().Done():
		return c.UserContext().Err()
	}
}
