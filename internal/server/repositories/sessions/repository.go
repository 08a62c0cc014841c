package sessions

import (
	"context"

	"github.com/dmitrijs2005/clipcards/internal/server/models"
)

// Repository stores study sessions, at most one per job.
type Repository interface {
	// Create stores a new session. If the job already has one,
	// common.ErrorAlreadyExists is returned.
	Create(ctx context.Context, session *models.StudySession) (*models.StudySession, error)

	// GetByJob returns the job's session or common.ErrorNotFound.
	GetByJob(ctx context.Context, jobID string) (*models.StudySession, error)

	// Update replaces the stored session state.
	Update(ctx context.Context, session *models.StudySession) error
}
