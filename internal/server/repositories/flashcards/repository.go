package flashcards

import (
	"context"

	"github.com/dmitrijs2005/clipcards/internal/server/models"
)

// Repository stores generated flashcards. A job's cards are written exactly
// once, as a single batch with ordinal positions 0..N-1 in the given order.
type Repository interface {
	// AddBatch persists all cards for a job atomically, assigning positions
	// in slice order. A second batch for the same job is rejected.
	AddBatch(ctx context.Context, jobID string, cards []*models.Flashcard) ([]*models.Flashcard, error)

	// ListByJob returns the job's cards ordered by position.
	ListByJob(ctx context.Context, jobID string) ([]*models.Flashcard, error)

	// CountByJob returns the number of cards for a job.
	CountByJob(ctx context.Context, jobID string) (int, error)
}
