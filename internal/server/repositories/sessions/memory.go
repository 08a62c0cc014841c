package sessions

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/clipcards/internal/common"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
)

// MemoryRepository keeps sessions keyed by job id, which also enforces the
// one-session-per-job invariant.
type MemoryRepository struct {
	mu    sync.RWMutex
	byJob map[string]*models.StudySession
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byJob: make(map[string]*models.StudySession)}
}

func (r *MemoryRepository) Create(ctx context.Context, session *models.StudySession) (*models.StudySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byJob[session.JobID]; ok {
		return nil, common.ErrorAlreadyExists
	}

	stored := cloneSession(session)
	if stored.StartedAt.IsZero() {
		stored.StartedAt = time.Now().UTC()
	}
	r.byJob[session.JobID] = stored

	return cloneSession(stored), nil
}

func (r *MemoryRepository) GetByJob(ctx context.Context, jobID string) (*models.StudySession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.byJob[jobID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneSession(session), nil
}

func (r *MemoryRepository) Update(ctx context.Context, session *models.StudySession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byJob[session.JobID]; !ok {
		return common.ErrorNotFound
	}
	r.byJob[session.JobID] = cloneSession(session)
	return nil
}

func cloneSession(s *models.StudySession) *models.StudySession {
	out := *s
	out.Learned = slices.Clone(s.Learned)
	out.NeedsReview = slices.Clone(s.NeedsReview)
	if s.CompletedAt != nil {
		ts := *s.CompletedAt
		out.CompletedAt = &ts
	}
	return &out
}
