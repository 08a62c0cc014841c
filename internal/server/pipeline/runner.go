package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/clipcards/internal/common"
	"github.com/dmitrijs2005/clipcards/internal/logging"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/jobs"
)

// ErrJobAlreadyRunning is returned when a second run is dispatched for a job
// that already has an active one.
var ErrJobAlreadyRunning = errors.New("job already running")

// Runner dispatches pipeline runs as detached background tasks with
// at-most-one active run per job id. A run either completes or fails; there
// is no cancellation. Faults never propagate to the submission path: even a
// panic is converted into a failed status write.
type Runner struct {
	mu     sync.Mutex
	active map[string]chan struct{}
	jobs   jobs.Repository
	logger logging.Logger
}

func NewRunner(jobRepo jobs.Repository, logger logging.Logger) *Runner {
	return &Runner{
		active: make(map[string]chan struct{}),
		jobs:   jobRepo,
		logger: logger.With("module", "pipeline_runner"),
	}
}

// Dispatch starts fn for jobID in a detached goroutine. The context passed to
// fn is independent of the caller's: abandoning interest does not stop a run.
func (r *Runner) Dispatch(jobID string, fn func(ctx context.Context)) error {
	r.mu.Lock()
	if _, ok := r.active[jobID]; ok {
		r.mu.Unlock()
		return ErrJobAlreadyRunning
	}
	done := make(chan struct{})
	r.active[jobID] = done
	r.mu.Unlock()

	go func() {
		ctx := context.Background()

		defer func() {
			if p := recover(); p != nil {
				r.logger.Error(ctx, "pipeline run panicked", "job_id", jobID, "panic", fmt.Sprint(p))
				r.recordFault(ctx, jobID, fmt.Sprintf("internal fault: %v", p))
			}

			r.mu.Lock()
			delete(r.active, jobID)
			r.mu.Unlock()
			close(done)
		}()

		fn(ctx)
	}()

	return nil
}

// recordFault writes a terminal failed status for a run that died outside the
// pipeline's own fault handling. A job that never reached processing is
// promoted first so the failure has a legal edge to land on.
func (r *Runner) recordFault(ctx context.Context, jobID, reason string) {
	err := r.jobs.Fail(ctx, jobID, reason)
	if errors.Is(err, common.ErrorInvalidTransition) {
		if perr := r.jobs.UpdateStatus(ctx, jobID, models.StatusProcessing, 0); perr == nil {
			err = r.jobs.Fail(ctx, jobID, reason)
		}
	}
	if err != nil {
		r.logger.Error(ctx, "failed to record panic failure", "job_id", jobID, "error", err.Error())
	}
}

// Wait blocks until the job's active run finishes. It returns immediately if
// no run is active. Used by tests and by status readers that want to observe
// a settled state.
func (r *Runner) Wait(jobID string) {
	r.mu.Lock()
	done, ok := r.active[jobID]
	r.mu.Unlock()
	if !ok {
		return
	}
	<-done
}

// IsRunning reports whether a run is currently active for the job.
func (r *Runner) IsRunning(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[jobID]
	return ok
}
