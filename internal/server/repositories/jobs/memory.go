package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/clipcards/internal/common"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
)

// MemoryRepository is a mutex-guarded in-memory job store. Jobs are keyed by
// id; writes to different jobs are independent, so concurrent pipeline runs
// never contend beyond the map lock.
type MemoryRepository struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{jobs: make(map[string]*models.Job)}
}

func (r *MemoryRepository) Create(ctx context.Context, job *models.Job) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}

	now := time.Now().UTC()
	stored := *job
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.jobs[job.ID] = &stored

	out := stored
	return &out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	out := *job
	return &out, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id string, status models.JobStatus, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return common.ErrorNotFound
	}
	if !models.CanTransition(job.Status, status) {
		return common.ErrorInvalidTransition
	}
	if progress < job.Progress && !status.Terminal() {
		return common.ErrorProgressRegression
	}

	job.Status = status
	job.Progress = progress
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) SetProgress(ctx context.Context, id string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return common.ErrorNotFound
	}
	if job.Status != models.StatusProcessing {
		return common.ErrorInvalidTransition
	}
	if progress < job.Progress {
		return common.ErrorProgressRegression
	}

	job.Progress = progress
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) SetTranscript(ctx context.Context, id string, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return common.ErrorNotFound
	}
	if job.Transcript != "" {
		return common.ErrorTranscriptAlreadySet
	}

	job.Transcript = text
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) Fail(ctx context.Context, id string, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return common.ErrorNotFound
	}
	if !models.CanTransition(job.Status, models.StatusFailed) {
		return common.ErrorInvalidTransition
	}

	job.Status = models.StatusFailed
	job.FailureReason = reason
	job.UpdatedAt = time.Now().UTC()
	return nil
}
