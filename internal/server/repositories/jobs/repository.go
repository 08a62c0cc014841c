package jobs

import (
	"context"

	"github.com/dmitrijs2005/clipcards/internal/server/models"
)

// Repository stores processing job records. Implementations enforce the job
// state machine on write: status edges follow models.CanTransition, progress
// never decreases while processing, and a transcript is set exactly once.
type Repository interface {
	Create(ctx context.Context, job *models.Job) (*models.Job, error)
	Get(ctx context.Context, id string) (*models.Job, error)

	// UpdateStatus applies one forward status transition, optionally updating
	// progress in the same write.
	UpdateStatus(ctx context.Context, id string, status models.JobStatus, progress int) error

	// SetProgress advances progress for a job in processing state.
	SetProgress(ctx context.Context, id string, progress int) error

	// SetTranscript stores the transcript verbatim, once.
	SetTranscript(ctx context.Context, id string, text string) error

	// Fail moves a processing job to the terminal failed state with a
	// human-readable reason.
	Fail(ctx context.Context, id string, reason string) error
}
