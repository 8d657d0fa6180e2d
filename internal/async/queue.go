package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/despensa-app/despensa/internal/entity"
	"github.com/despensa-app/despensa/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue once Shutdown has started.
var ErrQueueClosed = errors.New("queue closed")

// Job is one queued receipt submission. Extend as needed later (retry,
// trace, priority).
type Job struct {
	ID          uuid.UUID
	Request     pipeline.Request
	SubmittedAt time.Time

	// OnDone, when set, receives the terminal summary (or error) once the
	// submission has run. Called from the worker goroutine.
	OnDone DoneFunc
}

// DoneFunc reports the terminal state of a queued submission.
type DoneFunc func(summary *entity.IngestSummary, err error)

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
